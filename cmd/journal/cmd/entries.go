package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Record and correct daily results",
	Long: `Entries are daily profit/loss results of an account.

Subcommands:
  list    - List an account's entries, most recent first
  add     - Record a day on top of the latest balance
  edit    - Correct the result or notes of an entry
  delete  - Remove an entry and recompute the account balance`,
}

var entriesListCmd = &cobra.Command{
	Use:   "list <account-id>",
	Short: "List entries, most recent first",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntriesList,
}

var entriesAddCmd = &cobra.Command{
	Use:   "add <account-id>",
	Short: "Record a day's profit/loss",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntriesAdd,
}

var entriesEditCmd = &cobra.Command{
	Use:   "edit <account-id> <entry-id>",
	Short: "Correct an entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runEntriesEdit,
}

var entriesDeleteCmd = &cobra.Command{
	Use:   "delete <account-id> <entry-id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runEntriesDelete,
}

var (
	enDate  string
	enPL    string
	enNotes string
)

func init() {
	rootCmd.AddCommand(entriesCmd)
	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesAddCmd)
	entriesCmd.AddCommand(entriesEditCmd)
	entriesCmd.AddCommand(entriesDeleteCmd)

	entriesAddCmd.Flags().StringVar(&enDate, "date", "", "trading day, YYYY-MM-DD (default today)")
	entriesAddCmd.Flags().StringVar(&enPL, "pl", "", "profit or loss of the day (required)")
	entriesAddCmd.Flags().StringVar(&enNotes, "notes", "", "free-form notes")
	entriesAddCmd.MarkFlagRequired("pl")

	entriesEditCmd.Flags().StringVar(&enPL, "pl", "", "corrected profit or loss")
	entriesEditCmd.Flags().StringVar(&enNotes, "notes", "", "replacement notes")
}

func runEntriesList(cmd *cobra.Command, args []string) error {
	entries, err := svc.GetEntriesByAccount(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date.Format(dateLayout), e.ProfitLoss, e.Balance, e.Notes)
	}
	return nil
}

func runEntriesAdd(cmd *cobra.Command, args []string) error {
	pl, err := decimal.NewFromString(enPL)
	if err != nil {
		return fmt.Errorf("pl: %w", err)
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if enDate != "" {
		if date, err = time.Parse(dateLayout, enDate); err != nil {
			return fmt.Errorf("date: %w", err)
		}
	}

	entry, err := recorder.RecordEntry(cmd.Context(), args[0], date, pl, enNotes)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", entry.ID, entry.Balance)
	return nil
}

func runEntriesEdit(cmd *cobra.Command, args []string) error {
	var pl *decimal.Decimal
	if cmd.Flags().Changed("pl") {
		v, err := decimal.NewFromString(enPL)
		if err != nil {
			return fmt.Errorf("pl: %w", err)
		}
		pl = &v
	}
	var notes *string
	if cmd.Flags().Changed("notes") {
		notes = &enNotes
	}
	if pl == nil && notes == nil {
		return fmt.Errorf("nothing to edit: pass --pl and/or --notes")
	}

	entry, err := recorder.EditEntry(cmd.Context(), args[0], args[1], pl, notes)
	if err != nil {
		return fmt.Errorf("edit entry: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", entry.ID, entry.Balance)
	return nil
}

func runEntriesDelete(cmd *cobra.Command, args []string) error {
	account, err := recorder.RemoveEntry(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), account.CurrentBalance)
	return nil
}
