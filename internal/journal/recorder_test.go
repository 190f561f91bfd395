package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/storage"
)

// seedAccount creates an account with the three reference entries
// (profit/loss 100, -30, 50 on consecutive days) and returns their ids oldest first.
func seedAccount(t *testing.T, svc *Service, rec *Recorder) (string, []string) {
	ctx := context.Background()
	accountID, err := svc.CreateAccount(ctx, models.CreateAccountInput{Name: "Main", InitialBalance: dec(1000), Currency: "USD"})
	require.NoError(t, err)

	var ids []string
	for i, pl := range []int64{100, -30, 50} {
		entry, err := rec.RecordEntry(ctx, accountID, day(i+1), dec(pl), "")
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}
	return accountID, ids
}

func currentBalance(t *testing.T, svc *Service, accountID string) string {
	account, err := svc.GetAccountByID(context.Background(), accountID)
	require.NoError(t, err)
	require.NotNil(t, account)
	return account.CurrentBalance.String()
}

func entriesOf(t *testing.T, svc *Service, accountID string) []models.DailyEntry {
	entries, err := svc.GetEntriesByAccount(context.Background(), accountID)
	require.NoError(t, err)
	return entries
}

func TestRecorder_NewAccountStartsAtInitialBalance(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		id, err := svc.CreateAccount(context.Background(), models.CreateAccountInput{Name: "Fresh", InitialBalance: decimal.RequireFromString("250.5"), Currency: "EUR"})
		require.NoError(t, err)

		assert.Equal(t, "250.5", currentBalance(t, svc, id))
		assert.Empty(t, entriesOf(t, svc, id))
	})
}

func TestRecorder_CreateSequencing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		rec := NewRecorder(svc, zap.NewNop())
		accountID, _ := seedAccount(t, svc, rec)

		assert.Equal(t, []string{"1120", "1070", "1100"}, balances(entriesOf(t, svc, accountID)))
		assert.Equal(t, "1120", currentBalance(t, svc, accountID))
	})
}

func TestRecorder_RecordEntryBuildsOnHead(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		rec := NewRecorder(svc, zap.NewNop())
		accountID, _ := seedAccount(t, svc, rec)

		// Back-dated entry still adds to the head balance.
		entry, err := rec.RecordEntry(context.Background(), accountID, day(0), dec(10), "forgot this one")
		require.NoError(t, err)

		assert.Equal(t, "1130", entry.Balance.String())
		assert.Equal(t, "forgot this one", entry.Notes)
		assert.Equal(t, "1130", currentBalance(t, svc, accountID))

		// The back-dated entry sorts last, so the head keeps its own balance
		// and the account no longer matches it until the next head change.
		entries := entriesOf(t, svc, accountID)
		require.Len(t, entries, 4)
		assert.Equal(t, entry.ID, entries[3].ID)
		assert.Equal(t, "1120", entries[0].Balance.String())

		next, err := rec.RecordEntry(context.Background(), accountID, day(4), dec(5), "")
		require.NoError(t, err)
		assert.Equal(t, "1125", next.Balance.String(), "builds on the head entry, not the account")
		assert.Equal(t, "1125", currentBalance(t, svc, accountID))

		_, err = rec.RecordEntry(context.Background(), "ghost", day(1), dec(1), "")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestRecorder_DeleteThenRecompute(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		rec := NewRecorder(svc, zap.NewNop())
		accountID, ids := seedAccount(t, svc, rec)

		account, err := rec.RemoveEntry(ctx, accountID, ids[2])
		require.NoError(t, err)
		assert.Equal(t, "1070", account.CurrentBalance.String())
		assert.Equal(t, "1070", currentBalance(t, svc, accountID))

		_, err = rec.RemoveEntry(ctx, accountID, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "1070", currentBalance(t, svc, accountID), "removing a non-head entry keeps the head")

		_, err = rec.RemoveEntry(ctx, accountID, ids[1])
		require.NoError(t, err)
		assert.Equal(t, "1000", currentBalance(t, svc, accountID))
		assert.Empty(t, entriesOf(t, svc, accountID))
	})
}

func TestRecorder_EditOldestDoesNotCascade(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		rec := NewRecorder(svc, zap.NewNop())
		accountID, ids := seedAccount(t, svc, rec)

		entry, err := rec.EditEntry(context.Background(), accountID, ids[0], decPtr(200), nil)
		require.NoError(t, err)
		assert.Equal(t, "1200", entry.Balance.String())

		// Later entries keep their stale balances and the account is untouched.
		assert.Equal(t, []string{"1120", "1070", "1200"}, balances(entriesOf(t, svc, accountID)))
		assert.Equal(t, "1120", currentBalance(t, svc, accountID))
	})
}

func TestRecorder_EditHeadMovesAccount(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		rec := NewRecorder(svc, zap.NewNop())
		accountID, ids := seedAccount(t, svc, rec)

		notes := "moved stop"
		entry, err := rec.EditEntry(context.Background(), accountID, ids[2], decPtr(80), &notes)
		require.NoError(t, err)

		assert.Equal(t, "1150", entry.Balance.String())
		assert.Equal(t, "80", entry.ProfitLoss.String())
		assert.Equal(t, "moved stop", entry.Notes)
		assert.Equal(t, "1150", currentBalance(t, svc, accountID))
	})
}

func TestRecorder_EditMiddleUsesPredecessor(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		rec := NewRecorder(svc, zap.NewNop())
		accountID, ids := seedAccount(t, svc, rec)

		entry, err := rec.EditEntry(context.Background(), accountID, ids[1], decPtr(-100), nil)
		require.NoError(t, err)

		// 1100 (predecessor) - 100, not 1070 - 100 + 30.
		assert.Equal(t, "1000", entry.Balance.String())
		assert.Equal(t, "1120", currentBalance(t, svc, accountID))
	})
}

func TestRecorder_EditNotesOnly(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		rec := NewRecorder(svc, zap.NewNop())
		accountID, ids := seedAccount(t, svc, rec)

		notes := "FOMC day"
		entry, err := rec.EditEntry(context.Background(), accountID, ids[0], nil, &notes)
		require.NoError(t, err)

		assert.Equal(t, "FOMC day", entry.Notes)
		assert.Equal(t, "1100", entry.Balance.String())
		assert.Equal(t, "1120", currentBalance(t, svc, accountID))

		_, err = rec.EditEntry(context.Background(), accountID, "ghost", decPtr(1), nil)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = rec.EditEntry(context.Background(), "", ids[0], nil, &notes)
		assert.ErrorIs(t, err, storage.ErrValidation)
	})
}

func TestRecorder_HeadTracksMixedOperations(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		rec := NewRecorder(svc, zap.NewNop())
		accountID, ids := seedAccount(t, svc, rec)

		_, err := rec.RecordEntry(ctx, accountID, day(10), dec(-70), "")
		require.NoError(t, err)
		_, err = rec.EditEntry(ctx, accountID, ids[1], decPtr(5), nil)
		require.NoError(t, err)
		_, err = rec.RemoveEntry(ctx, accountID, ids[2])
		require.NoError(t, err)
		_, err = rec.RecordEntry(ctx, accountID, day(11), decimal.RequireFromString("12.25"), "")
		require.NoError(t, err)

		entries := entriesOf(t, svc, accountID)
		require.NotEmpty(t, entries)
		assert.Equal(t, entries[0].Balance.String(), currentBalance(t, svc, accountID))
		assert.Equal(t, "1062.25", currentBalance(t, svc, accountID))
	})
}

func TestRecorder_CascadeAndIdempotentDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		rec := NewRecorder(svc, zap.NewNop())
		accountID, _ := seedAccount(t, svc, rec)
		otherID, _ := seedAccount(t, svc, rec)

		require.NoError(t, svc.DeleteAccount(ctx, accountID))
		require.NoError(t, svc.DeleteAccount(ctx, accountID))

		assert.Empty(t, entriesOf(t, svc, accountID))
		assert.Len(t, entriesOf(t, svc, otherID), 3)

		account, err := svc.GetAccountByID(ctx, accountID)
		assert.NoError(t, err)
		assert.Nil(t, account)

		accounts, err := svc.GetAllAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, otherID, accounts[0].ID)
	})
}

func TestPredecessorBalance(t *testing.T) {
	account := &models.TradingAccount{InitialBalance: dec(1000)}
	entries := []models.DailyEntry{
		{ID: "c", Balance: dec(1120)},
		{ID: "b", Balance: dec(1070)},
		{ID: "a", Balance: dec(1100)},
	}

	testCases := []struct {
		name     string
		id       string
		expected string
		isHead   bool
		ok       bool
	}{
		{name: "Head", id: "c", expected: "1070", isHead: true, ok: true},
		{name: "Middle", id: "b", expected: "1100", ok: true},
		{name: "Oldest", id: "a", expected: "1000", ok: true},
		{name: "Unknown", id: "z", expected: "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			balance, isHead, ok := PredecessorBalance(account, entries, tc.id)
			assert.Equal(t, tc.expected, balance.String())
			assert.Equal(t, tc.isHead, isHead)
			assert.Equal(t, tc.ok, ok)
		})
	}

	assert.Equal(t, "1120", HeadBalance(account, entries).String())
	assert.Equal(t, "1000", HeadBalance(account, nil).String())
}

func TestRecorder_RemoveEntry_UsesInitialBalanceWhenEmpty(t *testing.T) {
	backend := new(MockBackend)
	account := &models.TradingAccount{ID: "a1", InitialBalance: dec(500), CurrentBalance: dec(530)}

	backend.On("DeleteEntry", "e1", "a1").Return(nil)
	backend.On("GetAccountByID", "a1").Return(account, nil)
	backend.On("GetEntriesByAccount", "a1").Return([]models.DailyEntry{}, nil)
	backend.On("UpdateAccount", "a1", mock.MatchedBy(func(in models.UpdateAccountInput) bool {
		return in.CurrentBalance != nil && in.CurrentBalance.Equal(dec(500)) && in.Name == nil
	})).Return(nil)

	rec := NewRecorder(backend, zap.NewNop())
	updated, err := rec.RemoveEntry(context.Background(), "a1", "e1")

	require.NoError(t, err)
	assert.Equal(t, "500", updated.CurrentBalance.String())
	backend.AssertExpectations(t)
}

func TestRecorder_PropagatesBackendErrors(t *testing.T) {
	t.Run("DeleteFails", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("DeleteEntry", "e1", "a1").Return(storage.Failure("delete entry", errors.New("network down")))

		rec := NewRecorder(backend, zap.NewNop())
		_, err := rec.RemoveEntry(context.Background(), "a1", "e1")

		assert.ErrorIs(t, err, storage.ErrStorage)
		backend.AssertNotCalled(t, "UpdateAccount", mock.Anything, mock.Anything)
	})

	t.Run("CreateFails", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("GetAccountByID", "a1").Return(&models.TradingAccount{ID: "a1", InitialBalance: dec(10)}, nil)
		backend.On("GetEntriesByAccount", "a1").Return([]models.DailyEntry{}, nil)
		backend.On("CreateEntry", mock.MatchedBy(func(in models.CreateEntryInput) bool {
			return in.Balance.Equal(dec(15))
		})).Return("", storage.Failure("create entry", errors.New("quota")))

		rec := NewRecorder(backend, zap.NewNop())
		entry, err := rec.RecordEntry(context.Background(), "a1", day(1), dec(5), "")

		assert.Nil(t, entry)
		assert.ErrorIs(t, err, storage.ErrStorage)
		backend.AssertExpectations(t)
	})

	t.Run("MissingAccount", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("GetAccountByID", "a1").Return((*models.TradingAccount)(nil), nil)

		rec := NewRecorder(backend, zap.NewNop())
		_, err := rec.RecordEntry(context.Background(), "a1", day(1), dec(5), "")

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
