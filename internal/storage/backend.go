package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trading-journal-go/internal/models"
)

// Backend is the operation set every persistence variant implements.
// Variants must agree on inputs, outputs and error semantics so the
// caller cannot tell which one is active.
type Backend interface {
	// CreateAccount persists a new account with CurrentBalance = InitialBalance and returns its id.
	CreateAccount(ctx context.Context, in models.CreateAccountInput) (string, error)
	// UpdateAccount merges the non-nil fields. Returns ErrNotFound for an unknown id.
	UpdateAccount(ctx context.Context, id string, in models.UpdateAccountInput) error
	// DeleteAccount removes the account and every entry referencing it. Unknown ids are not an error.
	DeleteAccount(ctx context.Context, id string) error
	GetAllAccounts(ctx context.Context) ([]models.TradingAccount, error)
	// GetAccountByID returns nil, nil when the account does not exist.
	GetAccountByID(ctx context.Context, id string) (*models.TradingAccount, error)

	// CreateEntry persists the entry and copies in.Balance into the account's CurrentBalance.
	CreateEntry(ctx context.Context, in models.CreateEntryInput) (string, error)
	// UpdateEntry merges the non-nil fields. When in.Balance is set it is copied
	// into the account's CurrentBalance; otherwise the account is untouched.
	UpdateEntry(ctx context.Context, id, accountID string, in models.UpdateEntryInput) error
	// DeleteEntry removes the entry only. Recomputing the account balance is the caller's job.
	DeleteEntry(ctx context.Context, id, accountID string) error
	// GetEntriesByAccount returns the account's entries, most recent first.
	GetEntriesByAccount(ctx context.Context, accountID string) ([]models.DailyEntry, error)
}

// Options are the injectable sources of ids and time shared by the variants.
type Options struct {
	NewID func() string
	Now   func() time.Time
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.NewID == nil {
		o.NewID = func() string { return uuid.New().String() }
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Timestamp returns the current time in UTC without the monotonic reading.
func (o Options) Timestamp() time.Time {
	return o.Now().UTC().Round(0)
}
