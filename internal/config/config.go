package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Remote Remote `mapstructure:"remote"`
	Local  Local  `mapstructure:"local"`
	Logger Logger `mapstructure:"logger"`
	Server Server `mapstructure:"server"`
}

// Remote holds the connection parameters for the remote document store.
type Remote struct {
	ApiKey         string        `mapstructure:"apiKey"`
	ProjectID      string        `mapstructure:"projectId"`
	Database       string        `mapstructure:"database"`
	BaseURL        string        `mapstructure:"base_url"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Local holds the configuration for the on-device key-value store.
type Local struct {
	DSN       string `mapstructure:"dsn"`
	Namespace string `mapstructure:"namespace"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// placeholderValues are the stock values shipped in sample configs.
var placeholderValues = []string{
	"your-api-key",
	"your_api_key",
	"your-project-id",
	"your_project_id",
	"demo-api-key",
	"demo-project",
	"demo",
	"placeholder",
	"changeme",
}

// IsPlaceholder reports whether the remote connection parameters look like
// unset or demo values. When they do, the local store is used instead.
func (r Remote) IsPlaceholder() bool {
	for _, v := range []string{r.ApiKey, r.ProjectID} {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			return true
		}
		for _, p := range placeholderValues {
			if v == p {
				return true
			}
		}
		if strings.HasPrefix(v, "your-") || strings.HasPrefix(v, "your_") {
			return true
		}
	}
	return false
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory is loaded first if present.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("remote.apiKey", "")
	v.SetDefault("remote.projectId", "")
	v.SetDefault("remote.database", "(default)")
	v.SetDefault("remote.base_url", "https://firestore.googleapis.com/v1")
	v.SetDefault("remote.rate_limit", 20)
	v.SetDefault("remote.rate_limit_burst", 5)
	v.SetDefault("remote.max_attempts", 1)
	v.SetDefault("remote.timeout", 15*time.Second)
	v.SetDefault("local.dsn", "trading_journal.db")
	v.SetDefault("local.namespace", "trading_journal")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("server.port", 8080)

	if err = v.ReadInConfig(); err != nil {
		// Running purely from defaults and the environment is fine.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}
