package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/database"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/storage"
	"trading-journal-go/internal/storage/local"
	"trading-journal-go/internal/storage/remote"
	"trading-journal-go/internal/storage/remote/remotetest"
)

// MockBackend is a mock implementation of storage.Backend.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CreateAccount(ctx context.Context, in models.CreateAccountInput) (string, error) {
	args := m.Called(in)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) UpdateAccount(ctx context.Context, id string, in models.UpdateAccountInput) error {
	args := m.Called(id, in)
	return args.Error(0)
}

func (m *MockBackend) DeleteAccount(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockBackend) GetAllAccounts(ctx context.Context) ([]models.TradingAccount, error) {
	args := m.Called()
	return args.Get(0).([]models.TradingAccount), args.Error(1)
}

func (m *MockBackend) GetAccountByID(ctx context.Context, id string) (*models.TradingAccount, error) {
	args := m.Called(id)
	return args.Get(0).(*models.TradingAccount), args.Error(1)
}

func (m *MockBackend) CreateEntry(ctx context.Context, in models.CreateEntryInput) (string, error) {
	args := m.Called(in)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) UpdateEntry(ctx context.Context, id, accountID string, in models.UpdateEntryInput) error {
	args := m.Called(id, accountID, in)
	return args.Error(0)
}

func (m *MockBackend) DeleteEntry(ctx context.Context, id, accountID string) error {
	args := m.Called(id, accountID)
	return args.Error(0)
}

func (m *MockBackend) GetEntriesByAccount(ctx context.Context, accountID string) ([]models.DailyEntry, error) {
	args := m.Called(accountID)
	return args.Get(0).([]models.DailyEntry), args.Error(1)
}

// deterministicOptions gives every backend the same ids and clock so their
// states can be compared field by field.
func deterministicOptions() storage.Options {
	n := 0
	clock := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	return storage.Options{
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		},
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
}

func newLocalBackend(t *testing.T) storage.Backend {
	db, err := database.NewDatabase(&config.Local{DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	return local.NewBackend(local.NewSQLiteKV(db), "journal", deterministicOptions(), zap.NewNop())
}

func newRemoteBackend(t *testing.T) storage.Backend {
	server := remotetest.NewServer()
	t.Cleanup(server.Close)

	client := remote.NewClient(&config.Remote{ApiKey: "k", ProjectID: "journal-test", BaseURL: server.BaseURL()}, zap.NewNop())
	return remote.NewBackend(client, deterministicOptions(), zap.NewNop())
}

// forEachBackend runs fn once per storage variant, each wrapped in a Service.
func forEachBackend(t *testing.T, fn func(t *testing.T, svc *Service)) {
	variants := map[BackendKind]func(*testing.T) storage.Backend{
		BackendLocal:  newLocalBackend,
		BackendRemote: newRemoteBackend,
	}
	for kind, build := range variants {
		kind, build := kind, build
		t.Run(string(kind), func(t *testing.T) {
			fn(t, NewService(build(t), kind, zap.NewNop()))
		})
	}
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// balances renders entry balances most recent first.
func balances(entries []models.DailyEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Balance.String())
	}
	return out
}
