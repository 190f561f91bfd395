package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyEntry records one day's profit or loss and the balance after it.
type DailyEntry struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"accountId"`
	Date       time.Time       `json:"date"`
	ProfitLoss decimal.Decimal `json:"profitLoss"`
	Balance    decimal.Decimal `json:"balance"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// CreateEntryInput carries a new entry. Balance must already be computed by the caller.
type CreateEntryInput struct {
	AccountID  string          `json:"accountId"`
	Date       time.Time       `json:"date"`
	ProfitLoss decimal.Decimal `json:"profitLoss"`
	Balance    decimal.Decimal `json:"balance"`
	Notes      string          `json:"notes,omitempty"`
}

// UpdateEntryInput is a partial update; nil fields are left untouched.
type UpdateEntryInput struct {
	Date       *time.Time       `json:"date,omitempty"`
	ProfitLoss *decimal.Decimal `json:"profitLoss,omitempty"`
	Balance    *decimal.Decimal `json:"balance,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}
