package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/postgres/generated"
	"github.com/iho/banksaga/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{
		queries: generated.New(db),
	}
}

// Create inserts a transaction record within tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	return txQueries(tx).CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:              t.ID,
		TransactionType: string(t.Type),
		SourceAccountID: optionalText(t.SourceAccountID),
		TargetAccountID: optionalText(t.TargetAccountID),
		Amount:          decimalToNumeric(t.Amount),
		Status:          string(t.Status),
		Reference:       t.Reference,
		Description:     t.Description,
		ErrorMessage:    t.ErrorMessage,
		CreatedAt:       timeToPgTimestamptz(t.CreatedAt),
		CompletedAt:     optionalTimestamptz(t.CompletedAt),
	})
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return transactionFrom(r.queries.GetTransactionByID(ctx, id))
}

// GetByIDForUpdate retrieves a transaction by ID with a FOR UPDATE lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return transactionFrom(txQueries(tx).GetTransactionByIDForUpdate(ctx, id))
}

// UpdateStatus persists status, error message and completion time.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	n, err := txQueries(tx).UpdateTransactionStatus(ctx, generated.UpdateTransactionStatusParams{
		ID:           t.ID,
		Status:       string(t.Status),
		ErrorMessage: t.ErrorMessage,
		CompletedAt:  optionalTimestamptz(t.CompletedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ListByAccount lists transactions where the account is source or target, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByAccount(ctx, generated.ListTransactionsByAccountParams{
		AccountID: optionalText(accountID),
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return mapRows(rows, rowToTransaction), nil
}

// ListStale returns up to limit transactions in status created before the
// cutoff, oldest first, continuing after the cursor.
func (r *TransactionRepository) ListStale(ctx context.Context, status domain.TransactionStatus, before time.Time, after domain.Cursor, limit int) ([]*domain.Transaction, error) {
	params := generated.ListStaleTransactionsParams{
		Status:    string(status),
		CreatedAt: timeToPgTimestamptz(before),
		Limit:     int32(limit),
	}
	if !after.IsZero() {
		params.AfterCreatedAt = timeToPgTimestamptz(after.CreatedAt)
		params.AfterID = after.ID
	}

	rows, err := r.queries.ListStaleTransactions(ctx, params)
	if err != nil {
		return nil, err
	}

	return mapRows(rows, rowToTransaction), nil
}

func transactionFrom(row generated.Transaction, err error) (*domain.Transaction, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	return rowToTransaction(row), nil
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	t := &domain.Transaction{
		ID:              row.ID,
		Type:            domain.TransactionType(row.TransactionType),
		SourceAccountID: row.SourceAccountID.String,
		TargetAccountID: row.TargetAccountID.String,
		Amount:          numericToDecimal(row.Amount),
		Status:          domain.TransactionStatus(row.Status),
		Reference:       row.Reference,
		Description:     row.Description,
		ErrorMessage:    row.ErrorMessage,
		CreatedAt:       row.CreatedAt.Time,
	}
	if row.CompletedAt.Valid {
		completedAt := row.CompletedAt.Time
		t.CompletedAt = &completedAt
	}
	return t
}
