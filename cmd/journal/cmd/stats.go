package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trading-journal-go/internal/journal"
)

var statsCmd = &cobra.Command{
	Use:   "stats <account-id>",
	Short: "Print account statistics as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	account, err := svc.GetAccountByID(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("account %s not found", args[0])
	}

	entries, err := svc.GetEntriesByAccount(cmd.Context(), account.ID)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(journal.Summarize(account, entries, time.Now()))
}
