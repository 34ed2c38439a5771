package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
)

// Finalization sources, used as a metrics label.
const (
	sourceResult         = "result"
	sourceReconciliation = "reconciliation"
)

// TransactionUseCase owns the coordinator's transaction records.
type TransactionUseCase struct {
	txManager  TransactionManager
	txRepo     TransactionRepository
	outboxRepo OutboxRepository
	retrier    Retrier
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:  txManager,
		txRepo:     txRepo,
		outboxRepo: outboxRepo,
		retrier:    retrier,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger.With().Str("component", "coordinator").Logger(),
	}
}

// InitiateTransactionInput represents a client request to move money.
type InitiateTransactionInput struct {
	Type            string
	SourceAccountID string
	TargetAccountID string
	Amount          decimal.Decimal
	Description     string
}

// Initiate records a PROCESSING transaction and its Initiated event atomically.
// It returns before any balance has changed.
func (uc *TransactionUseCase) Initiate(ctx context.Context, input InitiateTransactionInput) (*domain.Transaction, error) {
	txType, err := domain.ParseTransactionType(input.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	movement := domain.Movement{
		Type:            txType,
		SourceAccountID: input.SourceAccountID,
		TargetAccountID: input.TargetAccountID,
		Amount:          input.Amount,
	}
	if err := movement.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	transaction := &domain.Transaction{
		ID:              uc.idGen.Generate(),
		Type:            txType,
		SourceAccountID: movement.SourceAccountID,
		TargetAccountID: movement.TargetAccountID,
		Amount:          input.Amount,
		Status:          domain.TransactionStatusProcessing,
		Reference:       domain.NewReference(now),
		Description:     input.Description,
		CreatedAt:       now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.txRepo.Create(txCtx, tx, transaction); err != nil {
		return nil, err
	}

	if err := uc.emit(txCtx, tx, transaction, domain.EventTypeTransactionInitiated, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsInitiated.WithLabelValues(string(txType)).Inc()
		uc.metrics.TransactionAmount.Observe(input.Amount.InexactFloat64())
	}

	uc.logger.Info().
		Str("transaction_id", transaction.ID).
		Str("type", string(txType)).
		Str("amount", input.Amount.String()).
		Msg("transaction initiated")

	return transaction, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txRepo.GetByID(ctx, id)
}

// ListTransactionsByAccount lists transactions where the account is source or target, newest first.
func (uc *TransactionUseCase) ListTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.txRepo.ListByAccount(ctx, accountID, limit, offset)
}

// ListTransactionEvents returns the outbox history of a transaction.
func (uc *TransactionUseCase) ListTransactionEvents(ctx context.Context, id string, limit, offset int) ([]*domain.OutboxEvent, error) {
	if _, err := uc.txRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.outboxRepo.GetByAggregate(ctx, domain.AggregateTypeTransaction, id, limit, offset)
}

// OnResult applies the account service's outcome. Results for unknown
// transactions are dropped and results for finalized ones are ignored.
func (uc *TransactionUseCase) OnResult(ctx context.Context, event domain.TransactionResultEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	_, err := uc.applyOutcome(ctx, event.TransactionID, event.Status, event.ErrorMessage, sourceResult)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		uc.logger.Warn().
			Str("transaction_id", event.TransactionID).
			Msg("result for unknown transaction, dropping")
		return nil
	}

	return err
}

// applyOutcome finalizes a PROCESSING transaction under a row lock and emits
// the notification-bound event. It reports false when the record was already
// terminal.
func (uc *TransactionUseCase) applyOutcome(ctx context.Context, id string, status domain.TransactionStatus, errorMessage, source string) (bool, error) {
	var applied bool

	err := uc.retrier.Retry(ctx, func() error {
		applied = false

		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		transaction, err := uc.txRepo.GetByIDForUpdate(txCtx, tx, id)
		if err != nil {
			return err
		}

		if transaction.Status.IsTerminal() {
			uc.logger.Info().
				Str("transaction_id", id).
				Str("status", string(transaction.Status)).
				Str("source", source).
				Msg("transaction already finalized, ignoring outcome")
			return nil
		}

		now := time.Now().UTC()
		transaction.Finalize(status, errorMessage, now)

		if err := uc.txRepo.UpdateStatus(txCtx, tx, transaction); err != nil {
			return err
		}

		eventType := domain.EventTypeTransactionCompleted
		if status == domain.TransactionStatusFailed {
			eventType = domain.EventTypeTransactionFailed
		}
		if err := uc.emit(txCtx, tx, transaction, eventType, now); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		if uc.metrics != nil {
			uc.metrics.TransactionsFinalized.WithLabelValues(string(status), source).Inc()
		}
		uc.logger.Info().
			Str("transaction_id", id).
			Str("status", string(status)).
			Str("source", source).
			Msg("transaction finalized")
	}

	return applied, nil
}

// republish writes a fresh Initiated event for a transaction that is still
// PROCESSING. It reports false when the record moved on in the meantime.
func (uc *TransactionUseCase) republish(ctx context.Context, id string) (bool, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	transaction, err := uc.txRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return false, err
	}
	if transaction.Status != domain.TransactionStatusProcessing {
		return false, nil
	}

	if err := uc.emit(txCtx, tx, transaction, domain.EventTypeTransactionInitiated, time.Now().UTC()); err != nil {
		return false, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return false, err
	}

	return true, nil
}

func (uc *TransactionUseCase) emit(ctx context.Context, tx Transaction, t *domain.Transaction, eventType string, at time.Time) error {
	event, err := domain.NewOutboxEvent(uc.idGen.Generate(), t.ID, eventType, domain.NewTransactionEvent(t, at), at)
	if err != nil {
		return err
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}
