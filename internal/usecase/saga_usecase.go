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

// SagaUseCase applies initiated transactions to account balances exactly once.
type SagaUseCase struct {
	txManager     TransactionManager
	accountRepo   AccountRepository
	processedRepo ProcessedTransactionRepository
	outboxRepo    OutboxRepository
	retrier       Retrier
	idGen         IDGenerator
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// NewSagaUseCase creates a new SagaUseCase.
func NewSagaUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	processedRepo ProcessedTransactionRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SagaUseCase {
	return &SagaUseCase{
		txManager:     txManager,
		accountRepo:   accountRepo,
		processedRepo: processedRepo,
		outboxRepo:    outboxRepo,
		retrier:       retrier,
		idGen:         idGen,
		metrics:       metrics,
		logger:        logger.With().Str("component", "saga").Logger(),
	}
}

// SagaOutcome describes what OnInitiated did with a message.
type SagaOutcome struct {
	Status       domain.TransactionStatus
	ErrorMessage string
	// Duplicate is set when the transaction had already been processed.
	Duplicate bool
}

// OnInitiated mutates balances for one initiated transaction and records the
// outcome together with a Result event in a single database transaction.
// Business failures are recorded as FAILED and return a nil error; any other
// error leaves no trace and must be retried by the caller.
func (uc *SagaUseCase) OnInitiated(ctx context.Context, event domain.TransactionEvent) (*SagaOutcome, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	var outcome *SagaOutcome
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		outcome, err = uc.process(ctx, event)
		return err
	})
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.SagaOutcomes.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if uc.metrics != nil {
		label := "completed"
		switch {
		case outcome.Duplicate:
			label = "duplicate"
		case outcome.Status == domain.TransactionStatusFailed:
			label = "failed"
		}
		uc.metrics.SagaOutcomes.WithLabelValues(label).Inc()
		uc.metrics.SagaDuration.Observe(time.Since(start).Seconds())
	}

	return outcome, nil
}

func (uc *SagaUseCase) process(ctx context.Context, event domain.TransactionEvent) (*SagaOutcome, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	existing, err := uc.processedRepo.Get(txCtx, tx, event.TransactionID)
	switch {
	case err == nil:
		uc.logger.Info().
			Str("transaction_id", event.TransactionID).
			Str("status", string(existing.Status)).
			Msg("transaction already processed, skipping")
		return &SagaOutcome{Status: existing.Status, ErrorMessage: existing.ErrorMessage, Duplicate: true}, nil
	case !errors.Is(err, domain.ErrProcessedNotFound):
		return nil, err
	}

	movement := event.Movement()

	locked, err := uc.accountRepo.GetByIDsForUpdate(txCtx, tx, movement.AccountIDs())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	step := newBalanceStep(txCtx, tx, uc.accountRepo, locked, now)

	outcome := &SagaOutcome{Status: domain.TransactionStatusCompleted}
	if stepErr := movement.Dispatch(step); stepErr != nil {
		if !domain.IsSagaFailure(stepErr) {
			return nil, stepErr
		}

		reverted, err := step.compensate()
		if err != nil {
			return nil, err
		}
		if reverted > 0 && uc.metrics != nil {
			uc.metrics.Compensations.Add(float64(reverted))
		}

		outcome.Status = domain.TransactionStatusFailed
		outcome.ErrorMessage = stepErr.Error()

		uc.logger.Warn().
			Str("transaction_id", event.TransactionID).
			Str("type", string(event.TransactionType)).
			Int("compensated", reverted).
			Err(stepErr).
			Msg("transaction failed")
	}

	processed := &domain.ProcessedTransaction{
		TransactionID: event.TransactionID,
		Status:        outcome.Status,
		ErrorMessage:  outcome.ErrorMessage,
		CreatedAt:     now,
	}
	if err := uc.processedRepo.Create(txCtx, tx, processed); err != nil {
		if errors.Is(err, domain.ErrDuplicateDelivery) {
			// A concurrent delivery recorded it first; this attempt rolls back.
			return &SagaOutcome{Duplicate: true}, nil
		}
		return nil, err
	}

	result, err := domain.NewOutboxEvent(
		uc.idGen.Generate(),
		event.TransactionID,
		domain.EventTypeTransactionResult,
		domain.TransactionResultEvent{
			TransactionID: event.TransactionID,
			Status:        outcome.Status,
			ErrorMessage:  outcome.ErrorMessage,
		},
		now,
	)
	if err != nil {
		return nil, err
	}
	if err := uc.outboxRepo.Create(txCtx, tx, result); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		for _, m := range step.applied {
			uc.metrics.BalanceAdjustments.WithLabelValues(string(m.op)).Inc()
		}
	}

	return outcome, nil
}

type mutation struct {
	accountID string
	amount    decimal.Decimal
	op        domain.BalanceOp
}

// balanceStep applies one movement to accounts already locked in tx and
// remembers each change so it can be reverted.
type balanceStep struct {
	ctx      context.Context
	tx       Transaction
	repo     AccountRepository
	accounts map[string]*domain.Account
	now      time.Time
	applied  []mutation
}

func newBalanceStep(ctx context.Context, tx Transaction, repo AccountRepository, locked []*domain.Account, now time.Time) *balanceStep {
	accounts := make(map[string]*domain.Account, len(locked))
	for _, a := range locked {
		accounts[a.ID] = a
	}
	return &balanceStep{ctx: ctx, tx: tx, repo: repo, accounts: accounts, now: now}
}

func (s *balanceStep) Deposit(targetAccountID string, amount decimal.Decimal) error {
	return s.apply(targetAccountID, amount, domain.BalanceOpCredit)
}

func (s *balanceStep) Withdrawal(sourceAccountID string, amount decimal.Decimal) error {
	return s.apply(sourceAccountID, amount, domain.BalanceOpDebit)
}

func (s *balanceStep) Transfer(sourceAccountID, targetAccountID string, amount decimal.Decimal) error {
	if err := s.apply(sourceAccountID, amount, domain.BalanceOpDebit); err != nil {
		return err
	}
	return s.apply(targetAccountID, amount, domain.BalanceOpCredit)
}

func (s *balanceStep) apply(accountID string, amount decimal.Decimal, op domain.BalanceOp) error {
	account, ok := s.accounts[accountID]
	if !ok {
		return accountError(domain.ErrAccountNotFound, accountID)
	}

	balance, err := account.Apply(amount, op)
	if err != nil {
		return accountError(err, accountID)
	}

	if err := s.repo.UpdateBalance(s.ctx, s.tx, accountID, balance, s.now); err != nil {
		return err
	}

	account.Balance = balance
	s.applied = append(s.applied, mutation{accountID: accountID, amount: amount, op: op})

	return nil
}

// compensate reverts applied mutations newest first, bypassing status checks.
func (s *balanceStep) compensate() (int, error) {
	for i := len(s.applied) - 1; i >= 0; i-- {
		m := s.applied[i]
		account := s.accounts[m.accountID]

		balance := account.Balance.Add(m.amount)
		if m.op.Inverse() == domain.BalanceOpDebit {
			balance = account.Balance.Sub(m.amount)
		}

		if err := s.repo.UpdateBalance(s.ctx, s.tx, m.accountID, balance, s.now); err != nil {
			return 0, err
		}
		account.Balance = balance
	}

	reverted := len(s.applied)
	s.applied = nil

	return reverted, nil
}

func accountError(err error, accountID string) error {
	return fmt.Errorf("%w: %s", err, accountID)
}
