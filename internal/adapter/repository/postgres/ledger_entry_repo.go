package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/postgres/generated"
	"github.com/iho/banksaga/internal/usecase"
)

// LedgerEntryRepository implements usecase.LedgerEntryRepository.
type LedgerEntryRepository struct {
	queries *generated.Queries
}

// NewLedgerEntryRepository creates a new LedgerEntryRepository.
func NewLedgerEntryRepository(db generated.DBTX) *LedgerEntryRepository {
	return &LedgerEntryRepository{
		queries: generated.New(db),
	}
}

// LockAccounts takes a transaction-scoped advisory lock per account, in the
// order given. Callers pass ids sorted ascending.
func (r *LedgerEntryRepository) LockAccounts(ctx context.Context, tx usecase.Transaction, accountIDs []string) error {
	queries := txQueries(tx)
	for _, id := range accountIDs {
		if err := queries.LockLedgerAccount(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether the (transaction, account, type) entry is recorded.
func (r *LedgerEntryRepository) Exists(ctx context.Context, tx usecase.Transaction, transactionID, accountID string, entryType domain.EntryType) (bool, error) {
	return txQueries(tx).LedgerEntryExists(ctx, generated.LedgerEntryExistsParams{
		TransactionID: transactionID,
		AccountID:     accountID,
		EntryType:     string(entryType),
	})
}

// LatestBalance returns the running balance of the account's newest entry, or zero.
func (r *LedgerEntryRepository) LatestBalance(ctx context.Context, tx usecase.Transaction, accountID string) (decimal.Decimal, error) {
	return latestBalance(txQueries(tx).GetLatestLedgerBalance(ctx, accountID))
}

// Create appends an entry.
func (r *LedgerEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	err := txQueries(tx).CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
		ID:            entry.ID,
		AccountID:     entry.AccountID,
		TransactionID: entry.TransactionID,
		EntryType:     string(entry.Type),
		Amount:        decimalToNumeric(entry.Amount),
		BalanceAfter:  decimalToNumeric(entry.BalanceAfter),
		Description:   entry.Description,
		CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
	})
	if isUniqueViolation(err) {
		return domain.ErrDuplicateDelivery
	}

	return err
}

// ListByAccount lists an account's entries, newest first.
func (r *LedgerEntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesByAccount(ctx, generated.ListLedgerEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return mapRows(rows, rowToEntry), nil
}

// ListAll lists entries of every account, newest first.
func (r *LedgerEntryRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntries(ctx, generated.ListLedgerEntriesParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return mapRows(rows, rowToEntry), nil
}

// History returns every entry of the account, oldest first.
func (r *LedgerEntryRepository) History(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerHistory(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return mapRows(rows, rowToEntry), nil
}

// Balance returns the running balance of the account's newest entry, or zero.
func (r *LedgerEntryRepository) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return latestBalance(r.queries.GetLatestLedgerBalance(ctx, accountID))
}

func latestBalance(n pgtype.Numeric, err error) (decimal.Decimal, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return numericToDecimal(n), nil
}

func rowToEntry(row generated.LedgerEntry) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:            row.ID,
		AccountID:     row.AccountID,
		TransactionID: row.TransactionID,
		Type:          domain.EntryType(row.EntryType),
		Amount:        numericToDecimal(row.Amount),
		BalanceAfter:  numericToDecimal(row.BalanceAfter),
		Description:   row.Description,
		CreatedAt:     row.CreatedAt.Time,
	}
}
