package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/postgres/generated"
	"github.com/iho/banksaga/internal/usecase"
)

// ProcessedTransactionRepository implements usecase.ProcessedTransactionRepository.
type ProcessedTransactionRepository struct {
	queries *generated.Queries
}

// NewProcessedTransactionRepository creates a new ProcessedTransactionRepository.
func NewProcessedTransactionRepository(db generated.DBTX) *ProcessedTransactionRepository {
	return &ProcessedTransactionRepository{
		queries: generated.New(db),
	}
}

// Get reads the processed record inside tx.
func (r *ProcessedTransactionRepository) Get(ctx context.Context, tx usecase.Transaction, transactionID string) (*domain.ProcessedTransaction, error) {
	return processedFrom(txQueries(tx).GetProcessedTransaction(ctx, transactionID))
}

// GetByID reads the processed record outside any transaction.
func (r *ProcessedTransactionRepository) GetByID(ctx context.Context, transactionID string) (*domain.ProcessedTransaction, error) {
	return processedFrom(r.queries.GetProcessedTransaction(ctx, transactionID))
}

// Create records the outcome. The primary key makes a second record for the
// same transaction fail with domain.ErrDuplicateDelivery.
func (r *ProcessedTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, processed *domain.ProcessedTransaction) error {
	err := txQueries(tx).CreateProcessedTransaction(ctx, generated.CreateProcessedTransactionParams{
		TransactionID: processed.TransactionID,
		Status:        string(processed.Status),
		ErrorMessage:  processed.ErrorMessage,
		CreatedAt:     timeToPgTimestamptz(processed.CreatedAt),
	})
	if isUniqueViolation(err) {
		return domain.ErrDuplicateDelivery
	}

	return err
}

func processedFrom(row generated.ProcessedTransaction, err error) (*domain.ProcessedTransaction, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProcessedNotFound
		}
		return nil, err
	}

	return &domain.ProcessedTransaction{
		TransactionID: row.TransactionID,
		Status:        domain.TransactionStatus(row.Status),
		ErrorMessage:  row.ErrorMessage,
		CreatedAt:     row.CreatedAt.Time,
	}, nil
}
