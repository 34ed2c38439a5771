package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
)

// ReconciliationConfig tunes the stuck-transaction sweep.
type ReconciliationConfig struct {
	StaleAfter time.Duration
	BatchSize  int
	// LockTTL bounds the cluster lease; it should exceed one sweep.
	LockTTL time.Duration
	Now     func() time.Time
}

// ReconciliationUseCase repairs transactions left PROCESSING by lost messages.
type ReconciliationUseCase struct {
	transactions *TransactionUseCase
	txRepo       TransactionRepository
	statusClient StatusClient
	locker       Locker
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	cfg          ReconciliationConfig
	running      atomic.Bool
}

// NewReconciliationUseCase creates a new ReconciliationUseCase. locker may be
// nil for single-replica deployments.
func NewReconciliationUseCase(
	transactions *TransactionUseCase,
	txRepo TransactionRepository,
	statusClient StatusClient,
	locker Locker,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
	cfg ReconciliationConfig,
) *ReconciliationUseCase {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultReconciliationBatch
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultReconciliationInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &ReconciliationUseCase{
		transactions: transactions,
		txRepo:       txRepo,
		statusClient: statusClient,
		locker:       locker,
		metrics:      metrics,
		logger:       logger.With().Str("component", "reconciliation").Logger(),
		cfg:          cfg,
	}
}

// ReconciliationReport summarizes one sweep.
type ReconciliationReport struct {
	Scanned     int
	Adopted     int
	Republished int
	Unchanged   int
	Failed      int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Reconcile runs one sweep. It returns domain.ErrReconciliationInProgress when
// another sweep holds the in-process guard or the cluster lease.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	if !uc.running.CompareAndSwap(false, true) {
		uc.countRun("skipped")
		return nil, domain.ErrReconciliationInProgress
	}
	defer uc.running.Store(false)

	if uc.locker != nil {
		token, ok, err := uc.locker.TryLock(ctx, ReconciliationLockKey, uc.cfg.LockTTL)
		if err != nil {
			uc.countRun("error")
			return nil, fmt.Errorf("acquire reconciliation lease: %w", err)
		}
		if !ok {
			uc.countRun("skipped")
			return nil, domain.ErrReconciliationInProgress
		}
		defer func() {
			if err := uc.locker.Unlock(context.WithoutCancel(ctx), ReconciliationLockKey, token); err != nil {
				uc.logger.Warn().Err(err).Msg("failed to release reconciliation lease")
			}
		}()
	}

	report := &ReconciliationReport{StartedAt: uc.cfg.Now().UTC()}

	cutoff := report.StartedAt.Add(-uc.cfg.StaleAfter)

	// Pages are keyed on (created_at, id) so rows that stay PROCESSING after
	// a republish do not hide the ones behind them.
	var after domain.Cursor
	for ctx.Err() == nil {
		stale, err := uc.txRepo.ListStale(ctx, domain.TransactionStatusProcessing, cutoff, after, uc.cfg.BatchSize)
		if err != nil {
			uc.countRun("error")
			return nil, fmt.Errorf("list stale transactions: %w", err)
		}

		uc.sweep(ctx, report, stale)

		if len(stale) < uc.cfg.BatchSize {
			break
		}
		last := stale[len(stale)-1]
		after = domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	report.FinishedAt = uc.cfg.Now().UTC()

	uc.countRun("completed")
	if uc.metrics != nil {
		uc.metrics.ReconciliationDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}

	if report.Scanned > 0 {
		uc.logger.Info().
			Int("scanned", report.Scanned).
			Int("adopted", report.Adopted).
			Int("republished", report.Republished).
			Int("failed", report.Failed).
			Msg("reconciliation sweep finished")
	}

	return report, nil
}

func (uc *ReconciliationUseCase) sweep(ctx context.Context, report *ReconciliationReport, stale []*domain.Transaction) {
	report.Scanned += len(stale)

	for _, t := range stale {
		if ctx.Err() != nil {
			return
		}

		action, err := uc.reconcileOne(ctx, t)
		if err != nil {
			report.Failed++
			if uc.metrics != nil {
				uc.metrics.ReconciliationErrors.Inc()
			}
			uc.logger.Error().
				Err(err).
				Str("transaction_id", t.ID).
				Msg("failed to reconcile transaction")
			continue
		}

		switch action {
		case actionAdopted:
			report.Adopted++
		case actionRepublished:
			report.Republished++
		default:
			report.Unchanged++
		}
	}
}

type reconcileAction int

const (
	actionNone reconcileAction = iota
	actionAdopted
	actionRepublished
)

func (uc *ReconciliationUseCase) reconcileOne(ctx context.Context, t *domain.Transaction) (reconcileAction, error) {
	processed, err := uc.statusClient.GetProcessed(ctx, t.ID)
	if errors.Is(err, domain.ErrProcessedNotFound) {
		ok, err := uc.transactions.republish(ctx, t.ID)
		if err != nil || !ok {
			return actionNone, err
		}
		if uc.metrics != nil {
			uc.metrics.ReconciliationRepublished.Inc()
		}
		uc.logger.Info().Str("transaction_id", t.ID).Msg("republished initiated event")
		return actionRepublished, nil
	}
	if err != nil {
		return actionNone, err
	}

	if !processed.Status.IsOutcome() {
		return actionNone, fmt.Errorf("unexpected processed status %q", processed.Status)
	}

	applied, err := uc.transactions.applyOutcome(ctx, t.ID, processed.Status, processed.ErrorMessage, sourceReconciliation)
	if err != nil || !applied {
		return actionNone, err
	}
	if uc.metrics != nil {
		uc.metrics.ReconciliationAdopted.WithLabelValues(string(processed.Status)).Inc()
	}

	return actionAdopted, nil
}

// Start runs Reconcile every interval until ctx is cancelled.
func (uc *ReconciliationUseCase) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultReconciliationInterval
	}

	uc.logger.Info().
		Dur("interval", interval).
		Dur("stale_after", uc.cfg.StaleAfter).
		Msg("reconciliation job started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info().Msg("reconciliation job shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := uc.Reconcile(ctx); err != nil && !errors.Is(err, domain.ErrReconciliationInProgress) {
				uc.logger.Error().Err(err).Msg("reconciliation sweep failed")
			}
		}
	}
}

func (uc *ReconciliationUseCase) countRun(result string) {
	if uc.metrics != nil {
		uc.metrics.ReconciliationRuns.WithLabelValues(result).Inc()
	}
}
