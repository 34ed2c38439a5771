package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// ProcessedTransactionRepository stores the account service's per-transaction outcome.
type ProcessedTransactionRepository interface {
	// Get returns domain.ErrProcessedNotFound when no record exists.
	Get(ctx context.Context, tx Transaction, transactionID string) (*domain.ProcessedTransaction, error)
	GetByID(ctx context.Context, transactionID string) (*domain.ProcessedTransaction, error)
	// Create returns domain.ErrDuplicateDelivery when the id is already recorded.
	Create(ctx context.Context, tx Transaction, processed *domain.ProcessedTransaction) error
}

// TransactionRepository defines data access for coordinator transaction records.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	// ListStale pages through transactions in status created before the
	// cutoff in (created_at, id) order, starting after the cursor.
	ListStale(ctx context.Context, status domain.TransactionStatus, before time.Time, after domain.Cursor, limit int) ([]*domain.Transaction, error)
}

// LedgerEntryRepository defines data access for ledger entries.
type LedgerEntryRepository interface {
	// LockAccounts serializes appends per account for the rest of tx.
	LockAccounts(ctx context.Context, tx Transaction, accountIDs []string) error
	Exists(ctx context.Context, tx Transaction, transactionID, accountID string, entryType domain.EntryType) (bool, error)
	LatestBalance(ctx context.Context, tx Transaction, accountID string) (decimal.Decimal, error)
	// Create returns domain.ErrDuplicateDelivery on a (transaction, account, type) conflict.
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	ListAll(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error)
	// History returns every entry of the account, oldest first.
	History(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error)
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient database conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Incr atomically increments the integer stored at key, starting from 0.
	Incr(ctx context.Context, key string) (int64, error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim whose request did not succeed.
	Release(ctx context.Context, key string) error
}

// Locker hands out a cluster-wide lease.
type Locker interface {
	// TryLock returns ok=false without error when another holder owns key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// StatusClient queries the account service for a transaction's processed record.
type StatusClient interface {
	// GetProcessed returns domain.ErrProcessedNotFound when the account service has no record.
	GetProcessed(ctx context.Context, transactionID string) (*domain.ProcessedTransaction, error)
}

// Notifier delivers a customer-facing notification.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}
