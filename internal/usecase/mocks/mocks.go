package mocks

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/usecase"
)

// track registers undo to run if tx is rolled back instead of committed.
func track(tx usecase.Transaction, undo func()) {
	if mt, ok := tx.(*MockTransaction); ok {
		mt.OnRollback(undo)
	}
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	// LockedIDs records the id slices passed to GetByIDsForUpdate.
	LockedIDs [][]string

	CreateFunc                func(ctx context.Context, account *domain.Account) error
	ExistsByAccountNumberFunc func(ctx context.Context, accountNumber string) (bool, error)
	GetByIDsForUpdateFunc     func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc         func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed stores account as-is.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = copyAccount(account)
}

// Balance returns the stored balance of id.
func (m *MockAccountRepository) Balance(id string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc.Balance
	}
	return decimal.Zero
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.Seed(account)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return copyAccount(acc), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.AccountNumber == accountNumber {
			return copyAccount(acc), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error) {
	if m.ExistsByAccountNumberFunc != nil {
		return m.ExistsByAccountNumberFunc(ctx, accountNumber)
	}
	_, err := m.GetByAccountNumber(ctx, accountNumber)
	return err == nil, nil
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LockedIDs = append(m.LockedIDs, append([]string(nil), ids...))
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, copyAccount(acc))
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	previous, previousAt := acc.Balance, acc.UpdatedAt
	acc.Balance = balance
	acc.UpdatedAt = updatedAt
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		acc.Balance = previous
		acc.UpdatedAt = previousAt
	})
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		accounts = append(accounts, copyAccount(acc))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].CreatedAt.After(accounts[j].CreatedAt) })
	return page(accounts, limit, offset), nil
}

// MockProcessedTransactionRepository is a mock implementation of ProcessedTransactionRepository.
type MockProcessedTransactionRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.ProcessedTransaction

	GetFunc    func(ctx context.Context, tx usecase.Transaction, transactionID string) (*domain.ProcessedTransaction, error)
	CreateFunc func(ctx context.Context, tx usecase.Transaction, processed *domain.ProcessedTransaction) error
}

func NewMockProcessedTransactionRepository() *MockProcessedTransactionRepository {
	return &MockProcessedTransactionRepository{
		records: make(map[string]*domain.ProcessedTransaction),
	}
}

// Count returns the number of stored records.
func (m *MockProcessedTransactionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MockProcessedTransactionRepository) Get(ctx context.Context, tx usecase.Transaction, transactionID string) (*domain.ProcessedTransaction, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tx, transactionID)
	}
	return m.GetByID(ctx, transactionID)
}

func (m *MockProcessedTransactionRepository) GetByID(ctx context.Context, transactionID string) (*domain.ProcessedTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.records[transactionID]; ok {
		c := *p
		return &c, nil
	}
	return nil, domain.ErrProcessedNotFound
}

func (m *MockProcessedTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, processed *domain.ProcessedTransaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, processed)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[processed.TransactionID]; ok {
		return domain.ErrDuplicateDelivery
	}
	c := *processed
	m.records[processed.TransactionID] = &c
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.records, processed.TransactionID)
	})
	return nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	ListStaleFunc    func(ctx context.Context, status domain.TransactionStatus, before time.Time, after domain.Cursor, limit int) ([]*domain.Transaction, error)
	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

// Seed stores transaction as-is.
func (m *MockTransactionRepository) Seed(transaction *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[transaction.ID] = copyTransaction(transaction)
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[transaction.ID] = copyTransaction(transaction)
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.transactions, transaction.ID)
	})
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return copyTransaction(t), nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, transaction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	previous, ok := m.transactions[transaction.ID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	m.transactions[transaction.ID] = copyTransaction(transaction)
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.transactions[transaction.ID] = previous
	})
	return nil
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, t := range m.transactions {
		if t.SourceAccountID == accountID || t.TargetAccountID == accountID {
			result = append(result, copyTransaction(t))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, limit, offset), nil
}

func (m *MockTransactionRepository) ListStale(ctx context.Context, status domain.TransactionStatus, before time.Time, after domain.Cursor, limit int) ([]*domain.Transaction, error) {
	if m.ListStaleFunc != nil {
		return m.ListStaleFunc(ctx, status, before, after, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, t := range m.transactions {
		if t.Status == status && t.CreatedAt.Before(before) && afterCursor(t, after) {
			result = append(result, copyTransaction(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return page(result, limit, 0), nil
}

func afterCursor(t *domain.Transaction, c domain.Cursor) bool {
	if c.IsZero() {
		return true
	}
	if !t.CreatedAt.Equal(c.CreatedAt) {
		return t.CreatedAt.After(c.CreatedAt)
	}
	return t.ID > c.ID
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository.
type MockLedgerEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry
	// LockedIDs records the id slices passed to LockAccounts.
	LockedIDs [][]string

	CreateFunc  func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	BalanceFunc func(ctx context.Context, accountID string) (decimal.Decimal, error)
}

func NewMockLedgerEntryRepository() *MockLedgerEntryRepository {
	return &MockLedgerEntryRepository{}
}

func (m *MockLedgerEntryRepository) LockAccounts(ctx context.Context, tx usecase.Transaction, accountIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LockedIDs = append(m.LockedIDs, append([]string(nil), accountIDs...))
	return nil
}

func (m *MockLedgerEntryRepository) Exists(ctx context.Context, tx usecase.Transaction, transactionID, accountID string, entryType domain.EntryType) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.TransactionID == transactionID && e.AccountID == accountID && e.Type == entryType {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockLedgerEntryRepository) LatestBalance(ctx context.Context, tx usecase.Transaction, accountID string) (decimal.Decimal, error) {
	return m.Balance(ctx, accountID)
}

func (m *MockLedgerEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	if exists, _ := m.Exists(ctx, tx, entry.TransactionID, entry.AccountID, entry.Type); exists {
		return domain.ErrDuplicateDelivery
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *entry
	m.entries = append(m.entries, &c)
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, e := range m.entries {
			if e.ID == c.ID {
				m.entries = append(m.entries[:i], m.entries[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (m *MockLedgerEntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	history, _ := m.History(ctx, accountID)
	reverse(history)
	return page(history, limit, offset), nil
}

func (m *MockLedgerEntryRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	all := make([]*domain.LedgerEntry, 0, len(m.entries))
	for _, e := range m.entries {
		c := *e
		all = append(all, &c)
	}
	m.mu.RUnlock()
	reverse(all)
	return page(all, limit, offset), nil
}

func (m *MockLedgerEntryRepository) History(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			c := *e
			result = append(result, &c)
		}
	}
	return result, nil
}

func (m *MockLedgerEntryRepository) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if m.BalanceFunc != nil {
		return m.BalanceFunc(ctx, accountID)
	}
	history, _ := m.History(ctx, accountID)
	if len(history) == 0 {
		return decimal.Zero, nil
	}
	return history[len(history)-1].BalanceAfter, nil
}

// Append stores entry directly, bypassing duplicate checks.
func (m *MockLedgerEntryRepository) Append(entry *domain.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *entry
	m.entries = append(m.entries, &c)
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc  func(ctx context.Context, id string, publishedAt time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// EventsOfType returns stored events with the given type in creation order.
func (m *MockOutboxRepository) EventsOfType(eventType string) []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.OutboxEvent
	for _, e := range m.events {
		if e.EventType == eventType {
			result = append(result, e)
		}
	}
	return result
}

// Len returns the number of stored events.
func (m *MockOutboxRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, e := range m.events {
			if e == event {
				m.events = append(m.events[:i], m.events[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			result = append(result, e)
		}
	}
	return page(result, limit, 0), nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			result = append(result, e)
		}
	}
	return page(result, limit, offset), nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	mu           sync.Mutex
	Transactions []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Transactions = append(m.Transactions, tx)
	return tx, nil
}

// Commits returns how many transactions were committed.
func (m *MockTransactionManager) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tx := range m.Transactions {
		if tx.Committed() {
			n++
		}
	}
	return n
}

// MockTransaction is a mock implementation of Transaction. Writes made by
// the in-memory repositories are undone when it rolls back uncommitted.
type MockTransaction struct {
	mu         sync.Mutex
	undo       []func()
	committed  bool
	rolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

// OnRollback registers fn to run on rollback.
func (m *MockTransaction) OnRollback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, fn)
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = true
	m.undo = nil
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.mu.Lock()
	if m.committed || m.rolledBack {
		m.mu.Unlock()
		return nil
	}
	m.rolledBack = true
	undo := m.undo
	m.undo = nil
	m.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	return nil
}

// Committed reports whether Commit succeeded.
func (m *MockTransaction) Committed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed
}

// RolledBack reports whether uncommitted work was discarded.
func (m *MockTransaction) RolledBack() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rolledBack
}

// MockRetrier is a mock implementation of Retrier that runs the operation once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetFunc func(ctx context.Context, key string) ([]byte, error)
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCache) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
