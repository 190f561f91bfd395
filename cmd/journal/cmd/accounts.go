package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"trading-journal-go/internal/models"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage trading accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runAccountsList,
}

var accountsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsCreate,
}

var accountsDeleteCmd = &cobra.Command{
	Use:   "delete <account-id>",
	Short: "Delete an account and all of its entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsDelete,
}

var (
	acBalance  string
	acCurrency string
)

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsCreateCmd)
	accountsCmd.AddCommand(accountsDeleteCmd)

	accountsCreateCmd.Flags().StringVarP(&acBalance, "balance", "b", "0", "initial balance")
	accountsCreateCmd.Flags().StringVar(&acCurrency, "currency", "USD", "account currency")
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	accounts, err := svc.GetAllAccounts(cmd.Context())
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, a := range accounts {
		fmt.Fprintf(out, "%s\t%s\t%s %s\t(initial %s)\n", a.ID, a.Name, a.CurrentBalance, a.Currency, a.InitialBalance)
	}
	return nil
}

func runAccountsCreate(cmd *cobra.Command, args []string) error {
	balance, err := decimal.NewFromString(acBalance)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}

	id, err := svc.CreateAccount(cmd.Context(), models.CreateAccountInput{
		Name:           args[0],
		InitialBalance: balance,
		Currency:       acCurrency,
	})
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func runAccountsDelete(cmd *cobra.Command, args []string) error {
	if err := svc.DeleteAccount(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
