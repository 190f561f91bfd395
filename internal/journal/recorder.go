package journal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/storage"
)

// Recorder drives entry mutations so the account's CurrentBalance keeps
// tracking the balance of its most recent entry. The backend only copies
// balances it is handed; computing them is done here.
type Recorder struct {
	backend storage.Backend
	logger  *zap.Logger
}

// NewRecorder creates a Recorder over any backend, typically a *Service.
func NewRecorder(backend storage.Backend, logger *zap.Logger) *Recorder {
	return &Recorder{backend: backend, logger: logger.Named("recorder")}
}

// HeadBalance is the balance of the most recent entry, or the initial balance
// when there are none. entries must be ordered most recent first.
func HeadBalance(account *models.TradingAccount, entries []models.DailyEntry) decimal.Decimal {
	if len(entries) == 0 {
		return account.InitialBalance
	}
	return entries[0].Balance
}

// PredecessorBalance is the balance of the entry just before entryID in
// chronological order, or the initial balance when entryID is the oldest.
// ok is false when entryID is not among entries.
func PredecessorBalance(account *models.TradingAccount, entries []models.DailyEntry, entryID string) (balance decimal.Decimal, isHead bool, ok bool) {
	for i, e := range entries {
		if e.ID != entryID {
			continue
		}
		if i+1 < len(entries) {
			return entries[i+1].Balance, i == 0, true
		}
		return account.InitialBalance, i == 0, true
	}
	return decimal.Zero, false, false
}

// RecordEntry appends a day's result. The new balance builds on the current
// head regardless of where date falls in the timeline.
func (r *Recorder) RecordEntry(ctx context.Context, accountID string, date time.Time, profitLoss decimal.Decimal, notes string) (*models.DailyEntry, error) {
	account, entries, err := r.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	balance := HeadBalance(account, entries).Add(profitLoss)
	id, err := r.backend.CreateEntry(ctx, models.CreateEntryInput{
		AccountID:  accountID,
		Date:       date,
		ProfitLoss: profitLoss,
		Balance:    balance,
		Notes:      notes,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Recorded entry",
		zap.String("account_id", accountID),
		zap.String("entry_id", id),
		zap.String("profit_loss", profitLoss.String()),
		zap.String("balance", balance.String()))

	return r.find(ctx, accountID, id)
}

// EditEntry changes an entry's profit/loss and/or notes.
//
// A profit/loss change recomputes the entry's balance from its chronological
// predecessor. Only that entry is corrected; later entries keep their stored
// balances. The account follows the edit only when the entry is the head.
func (r *Recorder) EditEntry(ctx context.Context, accountID, entryID string, profitLoss *decimal.Decimal, notes *string) (*models.DailyEntry, error) {
	if err := storage.ValidateEntryRef(entryID, accountID); err != nil {
		return nil, err
	}
	if profitLoss == nil {
		if notes != nil {
			if err := r.backend.UpdateEntry(ctx, entryID, accountID, models.UpdateEntryInput{Notes: notes}); err != nil {
				return nil, err
			}
		}
		return r.find(ctx, accountID, entryID)
	}

	account, entries, err := r.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	base, isHead, ok := PredecessorBalance(account, entries, entryID)
	if !ok {
		return nil, storage.NotFoundf("entry %s in account %s", entryID, accountID)
	}

	balance := base.Add(*profitLoss)
	if err := r.backend.UpdateEntry(ctx, entryID, accountID, models.UpdateEntryInput{
		ProfitLoss: profitLoss,
		Balance:    &balance,
		Notes:      notes,
	}); err != nil {
		return nil, err
	}

	// The backend copied the edited balance into the account; a non-head
	// edit must not move it, so put back the head's balance.
	if !isHead {
		head := entries[0].Balance
		if err := r.backend.UpdateAccount(ctx, accountID, models.UpdateAccountInput{CurrentBalance: &head}); err != nil {
			return nil, err
		}
	}

	r.logger.Info("Edited entry",
		zap.String("account_id", accountID),
		zap.String("entry_id", entryID),
		zap.Bool("head", isHead),
		zap.String("balance", balance.String()))

	return r.find(ctx, accountID, entryID)
}

// RemoveEntry deletes an entry and resets the account balance to the new head,
// or to the initial balance when no entries remain.
func (r *Recorder) RemoveEntry(ctx context.Context, accountID, entryID string) (*models.TradingAccount, error) {
	if err := r.backend.DeleteEntry(ctx, entryID, accountID); err != nil {
		return nil, err
	}

	account, entries, err := r.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	balance := HeadBalance(account, entries)
	if err := r.backend.UpdateAccount(ctx, accountID, models.UpdateAccountInput{CurrentBalance: &balance}); err != nil {
		return nil, err
	}
	account.CurrentBalance = balance

	r.logger.Info("Removed entry",
		zap.String("account_id", accountID),
		zap.String("entry_id", entryID),
		zap.Int("remaining", len(entries)),
		zap.String("balance", balance.String()))

	return account, nil
}

// load reads the account and its ordered entries. A missing account is ErrNotFound.
func (r *Recorder) load(ctx context.Context, accountID string) (*models.TradingAccount, []models.DailyEntry, error) {
	if accountID == "" {
		return nil, nil, storage.Validationf("account id is required")
	}
	account, err := r.backend.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, storage.NotFoundf("account %s", accountID)
	}
	entries, err := r.backend.GetEntriesByAccount(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	return account, entries, nil
}

func (r *Recorder) find(ctx context.Context, accountID, entryID string) (*models.DailyEntry, error) {
	entries, err := r.backend.GetEntriesByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == entryID {
			return &entries[i], nil
		}
	}
	return nil, storage.NotFoundf("entry %s in account %s", entryID, accountID)
}
