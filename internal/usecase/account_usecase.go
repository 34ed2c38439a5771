package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
)

// maxAccountNumberAttempts bounds regeneration on account number collisions.
const maxAccountNumberAttempts = 10

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager     TransactionManager
	accountRepo   AccountRepository
	processedRepo ProcessedTransactionRepository
	idGen         IDGenerator
	metrics       *metrics.Metrics
	numberGen     func() (string, error)
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	processedRepo ProcessedTransactionRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:     txManager,
		accountRepo:   accountRepo,
		processedRepo: processedRepo,
		idGen:         idGen,
		metrics:       metrics,
		numberGen:     domain.GenerateAccountNumber,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	HolderName string
	Type       string
}

// CreateAccount opens an ACTIVE account with a zero balance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateHolderName(input.HolderName); err != nil {
		return nil, err
	}

	accountType, err := domain.ParseAccountType(input.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	number, err := uc.uniqueAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            uc.idGen.Generate(),
		AccountNumber: number,
		HolderName:    strings.TrimSpace(input.HolderName),
		Type:          accountType,
		Balance:       decimal.Zero,
		Status:        domain.AccountStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

func (uc *AccountUseCase) uniqueAccountNumber(ctx context.Context) (string, error) {
	for range maxAccountNumberAttempts {
		number, err := uc.numberGen()
		if err != nil {
			return "", err
		}

		exists, err := uc.accountRepo.ExistsByAccountNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}

	return "", domain.ErrAccountNumberExists
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByNumber retrieves an account by its account number.
func (uc *AccountUseCase) GetAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	return uc.accountRepo.GetByAccountNumber(ctx, accountNumber)
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.accountRepo.List(ctx, limit, offset)
}

// AdjustBalanceInput represents a single-account balance change.
type AdjustBalanceInput struct {
	AccountID string
	Amount    decimal.Decimal
	Operation domain.BalanceOp
}

// AdjustBalance locks the account row, validates and applies one credit or debit.
func (uc *AccountUseCase) AdjustBalance(ctx context.Context, input AdjustBalanceInput) (*domain.Account, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.Operation != domain.BalanceOpCredit && input.Operation != domain.BalanceOpDebit {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, domain.ErrInvalidBalanceOp)
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	balance, err := account.Apply(input.Amount, input.Operation)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, balance, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	account.Balance = balance
	account.UpdatedAt = now

	if uc.metrics != nil {
		uc.metrics.BalanceAdjustments.WithLabelValues(string(input.Operation)).Inc()
	}

	return account, nil
}

// GetProcessedTransaction returns the recorded outcome for a transaction id.
func (uc *AccountUseCase) GetProcessedTransaction(ctx context.Context, transactionID string) (*domain.ProcessedTransaction, error) {
	p, err := uc.processedRepo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrProcessedNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get processed transaction %s: %w", transactionID, err)
	}
	return p, nil
}
