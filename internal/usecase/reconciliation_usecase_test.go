package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/usecase"
	"github.com/iho/banksaga/internal/usecase/mocks"
)

var reconcileNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type reconcileFixture struct {
	*coordinatorFixture
	status *mocks.MockStatusClient
	locker *mocks.MockLocker
	uc     *usecase.ReconciliationUseCase
}

func newReconcileFixture(t *testing.T, withLocker bool) *reconcileFixture {
	ctrl := gomock.NewController(t)
	f := &reconcileFixture{
		coordinatorFixture: newCoordinatorFixture(),
		status:             mocks.NewMockStatusClient(ctrl),
	}

	var locker usecase.Locker
	if withLocker {
		f.locker = mocks.NewMockLocker(ctrl)
		locker = f.locker
	}

	f.uc = usecase.NewReconciliationUseCase(
		f.coordinatorFixture.uc, f.txRepo, f.status, locker, f.metrics, zerolog.Nop(),
		usecase.ReconciliationConfig{
			StaleAfter: 5 * time.Minute,
			Now:        func() time.Time { return reconcileNow },
		},
	)
	return f
}

func TestReconcile_AdoptsProcessedOutcome(t *testing.T) {
	tests := []struct {
		name      string
		processed domain.ProcessedTransaction
		wantEvent string
	}{
		{
			name:      "completed",
			processed: domain.ProcessedTransaction{TransactionID: "tx-1", Status: domain.TransactionStatusCompleted},
			wantEvent: domain.EventTypeTransactionCompleted,
		},
		{
			name: "failed",
			processed: domain.ProcessedTransaction{
				TransactionID: "tx-1",
				Status:        domain.TransactionStatusFailed,
				ErrorMessage:  "insufficient funds: acc-a",
			},
			wantEvent: domain.EventTypeTransactionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReconcileFixture(t, false)
			f.txRepo.Seed(processingTransaction("tx-1", reconcileNow.Add(-10*time.Minute)))

			processed := tt.processed
			f.status.EXPECT().GetProcessed(gomock.Any(), "tx-1").Return(&processed, nil)

			report, err := f.uc.Reconcile(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, report.Scanned)
			assert.Equal(t, 1, report.Adopted)
			assert.Zero(t, report.Republished)

			stored, err := f.txRepo.GetByID(context.Background(), "tx-1")
			require.NoError(t, err)
			assert.Equal(t, tt.processed.Status, stored.Status)
			assert.Equal(t, tt.processed.ErrorMessage, stored.ErrorMessage)

			assert.Len(t, f.outbox.EventsOfType(tt.wantEvent), 1)
			assert.Empty(t, f.outbox.EventsOfType(domain.EventTypeTransactionInitiated),
				"adopting an outcome must not republish")
			assert.Equal(t, float64(1),
				testutil.ToFloat64(f.metrics.TransactionsFinalized.WithLabelValues(string(tt.processed.Status), "reconciliation")))
		})
	}
}

func TestReconcile_RepublishesWhenNeverProcessed(t *testing.T) {
	f := newReconcileFixture(t, false)
	f.txRepo.Seed(processingTransaction("tx-1", reconcileNow.Add(-6*time.Minute)))

	f.status.EXPECT().GetProcessed(gomock.Any(), "tx-1").Return(nil, domain.ErrProcessedNotFound)

	report, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Republished)

	events := f.outbox.EventsOfType(domain.EventTypeTransactionInitiated)
	require.Len(t, events, 1)
	payload := decodeTransactionEvent(t, events[0])
	assert.Equal(t, "tx-1", payload.TransactionID)
	assert.Equal(t, domain.TransactionTypeTransfer, payload.TransactionType)

	stored, _ := f.txRepo.GetByID(context.Background(), "tx-1")
	assert.Equal(t, domain.TransactionStatusProcessing, stored.Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ReconciliationRepublished))
}

func TestReconcile_SkipsFreshTransactions(t *testing.T) {
	f := newReconcileFixture(t, false)
	f.txRepo.Seed(processingTransaction("tx-fresh", reconcileNow.Add(-time.Minute)))

	report, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.Zero(t, f.outbox.Len())
}

func TestReconcile_ContinuesAfterPerTransactionError(t *testing.T) {
	f := newReconcileFixture(t, false)
	f.txRepo.Seed(processingTransaction("tx-1", reconcileNow.Add(-20*time.Minute)))
	f.txRepo.Seed(processingTransaction("tx-2", reconcileNow.Add(-10*time.Minute)))

	f.status.EXPECT().GetProcessed(gomock.Any(), "tx-1").Return(nil, errors.New("account service unavailable"))
	f.status.EXPECT().GetProcessed(gomock.Any(), "tx-2").Return(&domain.ProcessedTransaction{
		TransactionID: "tx-2",
		Status:        domain.TransactionStatusCompleted,
	}, nil)

	report, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Adopted)

	first, _ := f.txRepo.GetByID(context.Background(), "tx-1")
	assert.Equal(t, domain.TransactionStatusProcessing, first.Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ReconciliationErrors))
}

func TestReconcile_PagesPastRowsThatStayProcessing(t *testing.T) {
	f := newReconcileFixture(t, false)
	f.uc = usecase.NewReconciliationUseCase(
		f.coordinatorFixture.uc, f.txRepo, f.status, nil, f.metrics, zerolog.Nop(),
		usecase.ReconciliationConfig{
			StaleAfter: 5 * time.Minute,
			BatchSize:  2,
			Now:        func() time.Time { return reconcileNow },
		},
	)

	created := reconcileNow.Add(-time.Hour)
	for _, id := range []string{"tx-1", "tx-2", "tx-3", "tx-4", "tx-5"} {
		// Equal timestamps force the id tiebreak.
		f.txRepo.Seed(processingTransaction(id, created))
	}
	f.status.EXPECT().GetProcessed(gomock.Any(), gomock.Any()).Return(nil, domain.ErrProcessedNotFound).Times(5)

	report, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 5, report.Republished)

	seen := map[string]int{}
	for _, event := range f.outbox.EventsOfType(domain.EventTypeTransactionInitiated) {
		seen[event.AggregateID]++
	}
	assert.Equal(t, map[string]int{"tx-1": 1, "tx-2": 1, "tx-3": 1, "tx-4": 1, "tx-5": 1}, seen)
}

func TestReconcile_ListFailure(t *testing.T) {
	f := newReconcileFixture(t, false)
	f.txRepo.ListStaleFunc = func(context.Context, domain.TransactionStatus, time.Time, domain.Cursor, int) ([]*domain.Transaction, error) {
		return nil, errors.New("timeout")
	}

	_, err := f.uc.Reconcile(context.Background())
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ReconciliationRuns.WithLabelValues("error")))
}

func TestReconcile_DoesNotOverlap(t *testing.T) {
	f := newReconcileFixture(t, false)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.txRepo.ListStaleFunc = func(context.Context, domain.TransactionStatus, time.Time, domain.Cursor, int) ([]*domain.Transaction, error) {
		close(entered)
		<-release
		return nil, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.uc.Reconcile(context.Background())
		done <- err
	}()

	<-entered
	_, err := f.uc.Reconcile(context.Background())
	assert.ErrorIs(t, err, domain.ErrReconciliationInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ReconciliationRuns.WithLabelValues("skipped")))
}

func TestReconcile_ClusterLease(t *testing.T) {
	t.Run("held elsewhere", func(t *testing.T) {
		f := newReconcileFixture(t, true)
		f.txRepo.ListStaleFunc = func(context.Context, domain.TransactionStatus, time.Time, domain.Cursor, int) ([]*domain.Transaction, error) {
			t.Fatal("sweep ran without the lease")
			return nil, nil
		}
		f.locker.EXPECT().
			TryLock(gomock.Any(), usecase.ReconciliationLockKey, gomock.Any()).
			Return("", false, nil)

		_, err := f.uc.Reconcile(context.Background())
		assert.ErrorIs(t, err, domain.ErrReconciliationInProgress)
	})

	t.Run("acquired and released", func(t *testing.T) {
		f := newReconcileFixture(t, true)
		gomock.InOrder(
			f.locker.EXPECT().
				TryLock(gomock.Any(), usecase.ReconciliationLockKey, gomock.Any()).
				Return("token-1", true, nil),
			f.locker.EXPECT().
				Unlock(gomock.Any(), usecase.ReconciliationLockKey, "token-1").
				Return(nil),
		)

		_, err := f.uc.Reconcile(context.Background())
		require.NoError(t, err)
	})

	t.Run("lease backend down", func(t *testing.T) {
		f := newReconcileFixture(t, true)
		f.locker.EXPECT().
			TryLock(gomock.Any(), usecase.ReconciliationLockKey, gomock.Any()).
			Return("", false, errors.New("redis: connection refused"))

		_, err := f.uc.Reconcile(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrReconciliationInProgress)
	})
}

func TestReconcile_StartStopsOnCancel(t *testing.T) {
	f := newReconcileFixture(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.uc.Start(ctx, 10*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
