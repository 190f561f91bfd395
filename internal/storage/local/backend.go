package local

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/storage"
)

// Backend keeps every account in one serialized list and each account's
// entries in a list of their own:
//
//	<namespace>:accounts
//	<namespace>:entries_<accountId>
type Backend struct {
	kv        KV
	namespace string
	opts      storage.Options
	logger    *zap.Logger

	// guards read-modify-write of the serialized lists
	mu sync.Mutex
}

// ensure Backend implements the interface
var _ storage.Backend = (*Backend)(nil)

// NewBackend creates a local backend over kv.
func NewBackend(kv KV, namespace string, opts storage.Options, logger *zap.Logger) *Backend {
	return &Backend{
		kv:        kv,
		namespace: namespace,
		opts:      opts.WithDefaults(),
		logger:    logger.Named("local-store"),
	}
}

func (b *Backend) accountsKey() string {
	return b.namespace + ":accounts"
}

func (b *Backend) entriesKey(accountID string) string {
	return b.namespace + ":entries_" + accountID
}

func (b *Backend) CreateAccount(ctx context.Context, in models.CreateAccountInput) (string, error) {
	if err := storage.ValidateCreateAccount(in); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	accounts, err := b.loadAccounts(ctx)
	if err != nil {
		return "", err
	}

	now := b.opts.Timestamp()
	account := models.TradingAccount{
		ID:             b.opts.NewID(),
		Name:           in.Name,
		InitialBalance: in.InitialBalance,
		CurrentBalance: in.InitialBalance,
		Currency:       in.Currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	accounts = append(accounts, account)

	if err := b.saveAccounts(ctx, accounts); err != nil {
		return "", err
	}
	b.logger.Debug("Created account", zap.String("account_id", account.ID))
	return account.ID, nil
}

func (b *Backend) UpdateAccount(ctx context.Context, id string, in models.UpdateAccountInput) error {
	if err := storage.ValidateUpdateAccount(id, in); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updateAccountLocked(ctx, id, in)
}

func (b *Backend) updateAccountLocked(ctx context.Context, id string, in models.UpdateAccountInput) error {
	accounts, err := b.loadAccounts(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range accounts {
		if accounts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return storage.NotFoundf("account %s", id)
	}

	a := &accounts[idx]
	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.Currency != nil {
		a.Currency = *in.Currency
	}
	if in.InitialBalance != nil {
		a.InitialBalance = *in.InitialBalance
	}
	if in.CurrentBalance != nil {
		a.CurrentBalance = *in.CurrentBalance
	}
	a.UpdatedAt = b.opts.Timestamp()

	return b.saveAccounts(ctx, accounts)
}

func (b *Backend) DeleteAccount(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	accounts, err := b.loadAccounts(ctx)
	if err != nil {
		return err
	}

	kept := accounts[:0]
	for _, a := range accounts {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) != len(accounts) {
		if err := b.saveAccounts(ctx, kept); err != nil {
			return err
		}
	}

	// The whole entries bucket goes with the account.
	if err := b.kv.Delete(ctx, b.entriesKey(id)); err != nil {
		return storage.Failure("delete entries", err)
	}
	b.logger.Debug("Deleted account", zap.String("account_id", id))
	return nil
}

func (b *Backend) GetAllAccounts(ctx context.Context) ([]models.TradingAccount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	accounts, err := b.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	storage.SortAccounts(accounts)
	return accounts, nil
}

func (b *Backend) GetAccountByID(ctx context.Context, id string) (*models.TradingAccount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.findAccountLocked(ctx, id)
}

func (b *Backend) findAccountLocked(ctx context.Context, id string) (*models.TradingAccount, error) {
	accounts, err := b.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i], nil
		}
	}
	return nil, nil
}

func (b *Backend) CreateEntry(ctx context.Context, in models.CreateEntryInput) (string, error) {
	if err := storage.ValidateCreateEntry(in); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	account, err := b.findAccountLocked(ctx, in.AccountID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", storage.NotFoundf("account %s", in.AccountID)
	}

	entries, err := b.loadEntries(ctx, in.AccountID)
	if err != nil {
		return "", err
	}

	now := b.opts.Timestamp()
	entry := models.DailyEntry{
		ID:         b.opts.NewID(),
		AccountID:  in.AccountID,
		Date:       in.Date.UTC(),
		ProfitLoss: in.ProfitLoss,
		Balance:    in.Balance,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	entries = append(entries, entry)

	if err := b.saveEntries(ctx, in.AccountID, entries); err != nil {
		return "", err
	}

	balance := in.Balance
	if err := b.updateAccountLocked(ctx, in.AccountID, models.UpdateAccountInput{CurrentBalance: &balance}); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (b *Backend) UpdateEntry(ctx context.Context, id, accountID string, in models.UpdateEntryInput) error {
	if err := storage.ValidateEntryRef(id, accountID); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.loadEntries(ctx, accountID)
	if err != nil {
		return err
	}

	idx := -1
	for i := range entries {
		if entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return storage.NotFoundf("entry %s in account %s", id, accountID)
	}

	e := &entries[idx]
	if in.Date != nil {
		e.Date = in.Date.UTC()
	}
	if in.ProfitLoss != nil {
		e.ProfitLoss = *in.ProfitLoss
	}
	if in.Balance != nil {
		e.Balance = *in.Balance
	}
	if in.Notes != nil {
		e.Notes = *in.Notes
	}
	e.UpdatedAt = b.opts.Timestamp()

	if err := b.saveEntries(ctx, accountID, entries); err != nil {
		return err
	}

	if in.Balance == nil {
		return nil
	}
	balance := *in.Balance
	return b.updateAccountLocked(ctx, accountID, models.UpdateAccountInput{CurrentBalance: &balance})
}

func (b *Backend) DeleteEntry(ctx context.Context, id, accountID string) error {
	if err := storage.ValidateEntryRef(id, accountID); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.loadEntries(ctx, accountID)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}
	return b.saveEntries(ctx, accountID, kept)
}

func (b *Backend) GetEntriesByAccount(ctx context.Context, accountID string) ([]models.DailyEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.loadEntries(ctx, accountID)
	if err != nil {
		return nil, err
	}
	storage.SortEntries(entries)
	return entries, nil
}

// loadAccounts never returns a nil slice, so empty state encodes as [].
func (b *Backend) loadAccounts(ctx context.Context) ([]models.TradingAccount, error) {
	accounts := []models.TradingAccount{}
	if err := b.load(ctx, b.accountsKey(), &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (b *Backend) saveAccounts(ctx context.Context, accounts []models.TradingAccount) error {
	return b.save(ctx, b.accountsKey(), accounts)
}

func (b *Backend) loadEntries(ctx context.Context, accountID string) ([]models.DailyEntry, error) {
	entries := []models.DailyEntry{}
	if err := b.load(ctx, b.entriesKey(accountID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (b *Backend) saveEntries(ctx context.Context, accountID string, entries []models.DailyEntry) error {
	return b.save(ctx, b.entriesKey(accountID), entries)
}

// load decodes the JSON stored under key into out. A missing key leaves out untouched.
func (b *Backend) load(ctx context.Context, key string, out interface{}) error {
	raw, ok, err := b.kv.Get(ctx, key)
	if err != nil {
		return storage.Failure("load "+key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		b.logger.Error("Corrupt stored value", zap.String("key", key), zap.Error(err))
		return storage.Failure("decode "+key, err)
	}
	return nil
}

func (b *Backend) save(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return storage.Failure("encode "+key, err)
	}
	if err := b.kv.Put(ctx, key, string(raw)); err != nil {
		return storage.Failure("save "+key, err)
	}
	return nil
}
