package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap.Logger instance based on the provided configuration.
// format "json" selects the production encoder; anything else the development one.
func NewLogger(level string, format string) (*zap.Logger, error) {
	cfg, err := newConfig(level, format)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

func newConfig(level string, format string) (zap.Config, error) {
	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return zap.Config{}, err
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(logLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// "took" on store calls renders as 1.5s
	cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	// Failed store calls log at warn; no stack traces on them.
	cfg.DisableStacktrace = true
	// stdout is reserved for CLI output.
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.InitialFields = map[string]interface{}{"app": "trading-journal"}

	return cfg, nil
}
