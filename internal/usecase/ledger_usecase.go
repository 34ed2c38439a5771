package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
)

// LedgerUseCase records completed transactions as immutable entries.
type LedgerUseCase struct {
	txManager TransactionManager
	entryRepo LedgerEntryRepository
	retrier   Retrier
	idGen     IDGenerator
	cache     Cache
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase. cache may be nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	entryRepo LedgerEntryRepository,
	retrier Retrier,
	idGen IDGenerator,
	cache Cache,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager: txManager,
		entryRepo: entryRepo,
		retrier:   retrier,
		idGen:     idGen,
		cache:     cache,
		metrics:   metrics,
		logger:    logger.With().Str("component", "ledger").Logger(),
	}
}

// OnCompleted appends the entries of a completed transaction. Entries that
// already exist are skipped, so redelivery is harmless.
func (uc *LedgerUseCase) OnCompleted(ctx context.Context, event domain.TransactionEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.Status != "" && event.Status != domain.TransactionStatusCompleted {
		return fmt.Errorf("%w: ledger received %s transaction %s", domain.ErrFatal, event.Status, event.TransactionID)
	}

	movement := event.Movement()

	var writer *entryWriter
	err := uc.retrier.Retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := uc.entryRepo.LockAccounts(txCtx, tx, movement.AccountIDs()); err != nil {
			return err
		}

		writer = &entryWriter{
			ctx:   txCtx,
			tx:    tx,
			repo:  uc.entryRepo,
			idGen: uc.idGen,
			event: event,
			now:   time.Now().UTC(),
		}
		if err := movement.Dispatch(writer); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})
	if err != nil {
		return err
	}

	for _, e := range writer.written {
		uc.invalidateBalance(ctx, e.AccountID)
		if uc.metrics != nil {
			uc.metrics.LedgerEntries.WithLabelValues(string(e.Type)).Inc()
		}
	}
	if uc.metrics != nil && writer.skipped > 0 {
		uc.metrics.LedgerDuplicateEntries.Add(float64(writer.skipped))
	}

	uc.logger.Info().
		Str("transaction_id", event.TransactionID).
		Int("written", len(writer.written)).
		Int("skipped", writer.skipped).
		Msg("ledger entries recorded")

	return nil
}

// EntriesForAccount lists an account's entries, newest first.
func (uc *LedgerUseCase) EntriesForAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.entryRepo.ListByAccount(ctx, accountID, limit, offset)
}

// AllEntries lists entries across all accounts, newest first.
func (uc *LedgerUseCase) AllEntries(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.entryRepo.ListAll(ctx, limit, offset)
}

// BalanceOf returns the balance snapshot of the account's latest entry, or zero.
func (uc *LedgerUseCase) BalanceOf(ctx context.Context, accountID string) (decimal.Decimal, error) {
	// The generation is read before the database. A reader that loses a race
	// with OnCompleted caches under a generation nobody reads any more.
	key, cacheable := uc.balanceKey(ctx, accountID)

	if cacheable {
		if cached, err := uc.cache.Get(ctx, key); err == nil && cached != nil {
			if d, err := decimal.NewFromString(string(cached)); err == nil {
				return d, nil
			}
		}
	}

	balance, err := uc.entryRepo.Balance(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if cacheable {
		if err := uc.cache.Set(ctx, key, []byte(balance.String()), ledgerBalanceCacheTTL); err != nil {
			uc.logger.Debug().Err(err).Str("account_id", accountID).Msg("failed to cache ledger balance")
		}
	}

	return balance, nil
}

// LedgerVerification compares an account's folded entries with its latest snapshot.
type LedgerVerification struct {
	AccountID       string
	Entries         int
	FoldedBalance   decimal.Decimal
	SnapshotBalance decimal.Decimal
	Consistent      bool
	CheckedAt       time.Time
}

// VerifyAccount folds every entry of the account and checks it against the
// running balance recorded on the latest entry.
func (uc *LedgerUseCase) VerifyAccount(ctx context.Context, accountID string) (*LedgerVerification, error) {
	history, err := uc.entryRepo.History(ctx, accountID)
	if err != nil {
		return nil, err
	}

	folded := domain.FoldEntries(history)
	snapshot := decimal.Zero
	if len(history) > 0 {
		snapshot = history[len(history)-1].BalanceAfter
	}

	return &LedgerVerification{
		AccountID:       accountID,
		Entries:         len(history),
		FoldedBalance:   folded,
		SnapshotBalance: snapshot,
		Consistent:      folded.Equal(snapshot),
		CheckedAt:       time.Now().UTC(),
	}, nil
}

// invalidateBalance bumps the account's balance generation, orphaning every
// value cached under the previous one.
func (uc *LedgerUseCase) invalidateBalance(ctx context.Context, accountID string) {
	if uc.cache == nil {
		return
	}
	if _, err := uc.cache.Incr(ctx, balanceGenerationKey(accountID)); err != nil {
		uc.logger.Warn().Err(err).Str("account_id", accountID).Msg("failed to invalidate cached ledger balance")
	}
}

// balanceKey returns the cache key of the account's current balance
// generation. It reports false when there is no cache or the generation
// cannot be read.
func (uc *LedgerUseCase) balanceKey(ctx context.Context, accountID string) (string, bool) {
	if uc.cache == nil {
		return "", false
	}

	raw, err := uc.cache.Get(ctx, balanceGenerationKey(accountID))
	if err != nil {
		return "", false
	}
	var generation int64
	if raw != nil {
		if generation, err = strconv.ParseInt(string(raw), 10, 64); err != nil {
			return "", false
		}
	}

	return balanceCacheKey(accountID, generation), true
}

func balanceCacheKey(accountID string, generation int64) string {
	return "ledger:balance:" + accountID + ":" + strconv.FormatInt(generation, 10)
}

func balanceGenerationKey(accountID string) string {
	return "ledger:balance-gen:" + accountID
}

// entryWriter appends the entries of one transaction inside tx.
type entryWriter struct {
	ctx     context.Context
	tx      Transaction
	repo    LedgerEntryRepository
	idGen   IDGenerator
	event   domain.TransactionEvent
	now     time.Time
	written []*domain.LedgerEntry
	skipped int
}

func (w *entryWriter) Deposit(targetAccountID string, amount decimal.Decimal) error {
	return w.append(targetAccountID, domain.EntryTypeCredit, amount)
}

func (w *entryWriter) Withdrawal(sourceAccountID string, amount decimal.Decimal) error {
	return w.append(sourceAccountID, domain.EntryTypeDebit, amount)
}

func (w *entryWriter) Transfer(sourceAccountID, targetAccountID string, amount decimal.Decimal) error {
	if err := w.append(sourceAccountID, domain.EntryTypeDebit, amount); err != nil {
		return err
	}
	return w.append(targetAccountID, domain.EntryTypeCredit, amount)
}

func (w *entryWriter) append(accountID string, entryType domain.EntryType, amount decimal.Decimal) error {
	exists, err := w.repo.Exists(w.ctx, w.tx, w.event.TransactionID, accountID, entryType)
	if err != nil {
		return err
	}
	if exists {
		w.skipped++
		return nil
	}

	previous, err := w.repo.LatestBalance(w.ctx, w.tx, accountID)
	if err != nil {
		return err
	}

	entry := &domain.LedgerEntry{
		ID:            w.idGen.Generate(),
		AccountID:     accountID,
		TransactionID: w.event.TransactionID,
		Type:          entryType,
		Amount:        amount,
		Description:   domain.EntryDescription(w.event.TransactionType, entryType, w.event.Description),
		CreatedAt:     w.now,
	}
	entry.BalanceAfter = previous.Add(entry.Signed())

	if err := w.repo.Create(w.ctx, w.tx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateDelivery) {
			return fmt.Errorf("%w: %w", domain.ErrTransient, err)
		}
		return err
	}

	w.written = append(w.written, entry)

	return nil
}
