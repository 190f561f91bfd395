package remote

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/storage"
)

const (
	accountsCollection = "accounts"
	entriesCollection  = "entries"
)

// Backend stores accounts and entries as two flat document collections.
// Entries reference their account through the accountId field.
type Backend struct {
	store  DocumentStore
	opts   storage.Options
	logger *zap.Logger
}

// ensure Backend implements the interface
var _ storage.Backend = (*Backend)(nil)

// NewBackend creates a remote backend over store.
func NewBackend(store DocumentStore, opts storage.Options, logger *zap.Logger) *Backend {
	return &Backend{
		store:  store,
		opts:   opts.WithDefaults(),
		logger: logger.Named("remote-store"),
	}
}

func (b *Backend) CreateAccount(ctx context.Context, in models.CreateAccountInput) (string, error) {
	if err := storage.ValidateCreateAccount(in); err != nil {
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

	if _, err := b.store.CreateDocument(ctx, accountsCollection, account.ID, accountFields(account)); err != nil {
		return "", storage.Failure("create account", err)
	}
	b.logger.Debug("Created account", zap.String("account_id", account.ID))
	return account.ID, nil
}

// UpdateAccount relies on the store's existence precondition, so an unknown
// id surfaces as storage.ErrNotFound instead of creating a document.
func (b *Backend) UpdateAccount(ctx context.Context, id string, in models.UpdateAccountInput) error {
	if err := storage.ValidateUpdateAccount(id, in); err != nil {
		return err
	}

	fields := map[string]Value{"updatedAt": TimestampValue(b.opts.Timestamp())}
	if in.Name != nil {
		fields["name"] = StringValue(*in.Name)
	}
	if in.Currency != nil {
		fields["currency"] = StringValue(*in.Currency)
	}
	if in.InitialBalance != nil {
		fields["initialBalance"] = DecimalValue(*in.InitialBalance)
	}
	if in.CurrentBalance != nil {
		fields["currentBalance"] = DecimalValue(*in.CurrentBalance)
	}

	if _, err := b.store.PatchDocument(ctx, accountsCollection, id, fields, maskOf(fields)); err != nil {
		return storage.Failure("update account "+id, err)
	}
	return nil
}

// DeleteAccount removes the account document and then each of its entries.
// The fan-out is not atomic: a failure part way leaves orphaned entries.
func (b *Backend) DeleteAccount(ctx context.Context, id string) error {
	if err := b.store.DeleteDocument(ctx, accountsCollection, id); err != nil {
		return storage.Failure("delete account "+id, err)
	}

	docs, err := b.store.RunQuery(ctx, b.entriesQuery(id))
	if err != nil {
		return storage.Failure("list entries of "+id, err)
	}
	for _, doc := range docs {
		if err := b.store.DeleteDocument(ctx, entriesCollection, doc.ID()); err != nil {
			b.logger.Error("Entry fan-out delete failed",
				zap.String("account_id", id),
				zap.String("entry_id", doc.ID()),
				zap.Error(err))
			return storage.Failure("delete entry "+doc.ID(), err)
		}
	}
	b.logger.Debug("Deleted account", zap.String("account_id", id), zap.Int("entries", len(docs)))
	return nil
}

func (b *Backend) GetAllAccounts(ctx context.Context) ([]models.TradingAccount, error) {
	docs, err := b.store.ListDocuments(ctx, accountsCollection)
	if err != nil {
		return nil, storage.Failure("list accounts", err)
	}

	accounts := make([]models.TradingAccount, 0, len(docs))
	for _, doc := range docs {
		a, err := decodeAccount(doc)
		if err != nil {
			return nil, storage.Failure("decode account "+doc.ID(), err)
		}
		accounts = append(accounts, a)
	}
	storage.SortAccounts(accounts)
	return accounts, nil
}

func (b *Backend) GetAccountByID(ctx context.Context, id string) (*models.TradingAccount, error) {
	doc, err := b.store.GetDocument(ctx, accountsCollection, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Failure("get account "+id, err)
	}

	a, err := decodeAccount(*doc)
	if err != nil {
		return nil, storage.Failure("decode account "+id, err)
	}
	return &a, nil
}

func (b *Backend) CreateEntry(ctx context.Context, in models.CreateEntryInput) (string, error) {
	if err := storage.ValidateCreateEntry(in); err != nil {
		return "", err
	}

	account, err := b.GetAccountByID(ctx, in.AccountID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", storage.NotFoundf("account %s", in.AccountID)
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

	if _, err := b.store.CreateDocument(ctx, entriesCollection, entry.ID, entryFields(entry)); err != nil {
		return "", storage.Failure("create entry", err)
	}

	balance := in.Balance
	if err := b.UpdateAccount(ctx, in.AccountID, models.UpdateAccountInput{CurrentBalance: &balance}); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// UpdateEntry only touches an entry that belongs to accountID. An entry of
// another account is reported as storage.ErrNotFound.
func (b *Backend) UpdateEntry(ctx context.Context, id, accountID string, in models.UpdateEntryInput) error {
	if err := storage.ValidateEntryRef(id, accountID); err != nil {
		return err
	}
	owned, err := b.ownsEntry(ctx, accountID, id)
	if err != nil {
		return err
	}
	if !owned {
		return storage.NotFoundf("entry %s in account %s", id, accountID)
	}

	fields := map[string]Value{"updatedAt": TimestampValue(b.opts.Timestamp())}
	if in.Date != nil {
		fields["date"] = TimestampValue(*in.Date)
	}
	if in.ProfitLoss != nil {
		fields["profitLoss"] = DecimalValue(*in.ProfitLoss)
	}
	if in.Balance != nil {
		fields["balance"] = DecimalValue(*in.Balance)
	}
	if in.Notes != nil {
		fields["notes"] = StringValue(*in.Notes)
	}

	if _, err := b.store.PatchDocument(ctx, entriesCollection, id, fields, maskOf(fields)); err != nil {
		return storage.Failure("update entry "+id, err)
	}

	if in.Balance == nil {
		return nil
	}
	balance := *in.Balance
	return b.UpdateAccount(ctx, accountID, models.UpdateAccountInput{CurrentBalance: &balance})
}

// DeleteEntry leaves an entry of another account in place and reports success.
func (b *Backend) DeleteEntry(ctx context.Context, id, accountID string) error {
	if err := storage.ValidateEntryRef(id, accountID); err != nil {
		return err
	}
	owned, err := b.ownsEntry(ctx, accountID, id)
	if err != nil || !owned {
		return err
	}
	if err := b.store.DeleteDocument(ctx, entriesCollection, id); err != nil {
		return storage.Failure("delete entry "+id, err)
	}
	return nil
}

func (b *Backend) GetEntriesByAccount(ctx context.Context, accountID string) ([]models.DailyEntry, error) {
	docs, err := b.store.RunQuery(ctx, b.entriesQuery(accountID))
	if err != nil {
		return nil, storage.Failure("query entries of "+accountID, err)
	}

	entries := make([]models.DailyEntry, 0, len(docs))
	for _, doc := range docs {
		e, err := decodeEntry(doc)
		if err != nil {
			return nil, storage.Failure("decode entry "+doc.ID(), err)
		}
		entries = append(entries, e)
	}
	// The store orders by date only; apply the shared tie-break.
	storage.SortEntries(entries)
	return entries, nil
}

// ownsEntry reports whether entry id exists and references accountID.
func (b *Backend) ownsEntry(ctx context.Context, accountID, id string) (bool, error) {
	doc, err := b.store.GetDocument(ctx, entriesCollection, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storage.Failure("get entry "+id, err)
	}
	return fieldString(doc.Fields, "accountId") == accountID, nil
}

func (b *Backend) entriesQuery(accountID string) StructuredQuery {
	return EqualityQuery(entriesCollection, "accountId", StringValue(accountID), "date")
}

func maskOf(fields map[string]Value) []string {
	mask := make([]string, 0, len(fields))
	for name := range fields {
		mask = append(mask, name)
	}
	return mask
}
