package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/logger"
)

var (
	configPath string

	log      *zap.Logger
	svc      *journal.Service
	recorder *journal.Recorder
)

var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "Keep a daily trading journal",
	Long: `Journal records one profit/loss result per trading day for each account
and keeps every account's current balance in step with its latest entry.

Entries are stored in the remote document store when it is configured,
otherwise in a local SQLite file.

Examples:
  journal accounts create "Futures" --balance 10000 --currency USD
  journal entries add <account-id> --date 2024-06-03 --pl 125.50
  journal stats <account-id>`,
	SilenceUsage:       true,
	PersistentPreRunE:  openJournal,
	PersistentPostRunE: closeJournal,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs", "directory holding config.yml")
}

func openJournal(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err = logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	svc, err = journal.Open(&cfg, log)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	recorder = journal.NewRecorder(svc, log)
	return nil
}

func closeJournal(cmd *cobra.Command, args []string) error {
	defer log.Sync()
	return svc.Close()
}
