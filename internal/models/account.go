package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingAccount tracks one trading balance over time.
// CurrentBalance always mirrors the balance of the most recent entry,
// or InitialBalance while the account has no entries.
type TradingAccount struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CreateAccountInput carries the user supplied fields of a new account.
type CreateAccountInput struct {
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Currency       string          `json:"currency"`
}

// UpdateAccountInput is a partial update; nil fields are left untouched.
type UpdateAccountInput struct {
	Name           *string          `json:"name,omitempty"`
	Currency       *string          `json:"currency,omitempty"`
	InitialBalance *decimal.Decimal `json:"initialBalance,omitempty"`
	CurrentBalance *decimal.Decimal `json:"currentBalance,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (in UpdateAccountInput) IsEmpty() bool {
	return in.Name == nil && in.Currency == nil && in.InitialBalance == nil && in.CurrentBalance == nil
}
