package journal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/storage"
)

// Service is the operation surface consumed by the UI layer.
// It forwards every call to the active backend unchanged.
type Service struct {
	backend storage.Backend
	kind    BackendKind
	logger  *zap.Logger
	closer  func() error
}

// ensure Service implements the interface
var _ storage.Backend = (*Service)(nil)

// NewService wraps backend. kind is informational only.
func NewService(backend storage.Backend, kind BackendKind, logger *zap.Logger) *Service {
	return &Service{
		backend: backend,
		kind:    kind,
		logger:  logger.Named("journal"),
	}
}

// Kind reports which backend is active.
func (s *Service) Kind() BackendKind {
	return s.kind
}

// Close releases resources held by the backend, if any.
func (s *Service) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *Service) observe(op string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Duration("took", time.Since(start)))
	if err != nil {
		s.logger.Warn("Operation failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Debug("Operation completed", fields...)
}

func (s *Service) CreateAccount(ctx context.Context, in models.CreateAccountInput) (id string, err error) {
	defer func(start time.Time) { s.observe("createAccount", start, err, zap.String("account_id", id)) }(time.Now())
	return s.backend.CreateAccount(ctx, in)
}

func (s *Service) UpdateAccount(ctx context.Context, id string, in models.UpdateAccountInput) (err error) {
	defer func(start time.Time) { s.observe("updateAccount", start, err, zap.String("account_id", id)) }(time.Now())
	return s.backend.UpdateAccount(ctx, id, in)
}

func (s *Service) DeleteAccount(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.observe("deleteAccount", start, err, zap.String("account_id", id)) }(time.Now())
	return s.backend.DeleteAccount(ctx, id)
}

func (s *Service) GetAllAccounts(ctx context.Context) (accounts []models.TradingAccount, err error) {
	defer func(start time.Time) { s.observe("getAllAccounts", start, err, zap.Int("count", len(accounts))) }(time.Now())
	return s.backend.GetAllAccounts(ctx)
}

func (s *Service) GetAccountByID(ctx context.Context, id string) (account *models.TradingAccount, err error) {
	defer func(start time.Time) { s.observe("getAccountById", start, err, zap.String("account_id", id)) }(time.Now())
	return s.backend.GetAccountByID(ctx, id)
}

func (s *Service) CreateEntry(ctx context.Context, in models.CreateEntryInput) (id string, err error) {
	defer func(start time.Time) {
		s.observe("createEntry", start, err, zap.String("account_id", in.AccountID), zap.String("entry_id", id))
	}(time.Now())
	return s.backend.CreateEntry(ctx, in)
}

func (s *Service) UpdateEntry(ctx context.Context, id, accountID string, in models.UpdateEntryInput) (err error) {
	defer func(start time.Time) {
		s.observe("updateEntry", start, err, zap.String("account_id", accountID), zap.String("entry_id", id))
	}(time.Now())
	return s.backend.UpdateEntry(ctx, id, accountID, in)
}

func (s *Service) DeleteEntry(ctx context.Context, id, accountID string) (err error) {
	defer func(start time.Time) {
		s.observe("deleteEntry", start, err, zap.String("account_id", accountID), zap.String("entry_id", id))
	}(time.Now())
	return s.backend.DeleteEntry(ctx, id, accountID)
}

func (s *Service) GetEntriesByAccount(ctx context.Context, accountID string) (entries []models.DailyEntry, err error) {
	defer func(start time.Time) {
		s.observe("getEntriesByAccount", start, err, zap.String("account_id", accountID), zap.Int("count", len(entries)))
	}(time.Now())
	return s.backend.GetEntriesByAccount(ctx, accountID)
}
