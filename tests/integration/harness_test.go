package integration

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/iho/banksaga/internal/adapter/http"
	"github.com/iho/banksaga/internal/adapter/http/handler"
	"github.com/iho/banksaga/internal/adapter/httpclient"
	"github.com/iho/banksaga/internal/adapter/queue"
	"github.com/iho/banksaga/internal/adapter/repository/postgres"
	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/messaging"
	"github.com/iho/banksaga/internal/usecase"
	"github.com/iho/banksaga/tests/testutil"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []usecase.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification usecase.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]string, len(n.sent))
	for i, s := range n.sent {
		kinds[i] = s.Kind
	}
	return kinds
}

// harness runs the four services in-process. Outbox rows are handed to the
// consumers' handlers directly instead of through a broker.
type harness struct {
	t *testing.T

	accountDB, transactionDB, ledgerDB *testutil.TestDB

	accounts       *usecase.AccountUseCase
	saga           *usecase.SagaUseCase
	coordinator    *usecase.TransactionUseCase
	reconciliation *usecase.ReconciliationUseCase
	ledger         *usecase.LedgerUseCase
	notifier       *recordingNotifier

	accountOutbox     *postgres.OutboxRepository
	transactionOutbox *postgres.OutboxRepository
	handlers          map[string][]messaging.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		t:             t,
		accountDB:     testutil.NewTestDB(t, "account"),
		transactionDB: testutil.NewTestDB(t, "transaction"),
		ledgerDB:      testutil.NewTestDB(t, "ledger"),
		notifier:      &recordingNotifier{},
	}
	logger := zerolog.Nop()
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier()

	// Account service
	accountPool := h.accountDB.Pool
	accountTx := postgres.NewTxManager(accountPool)
	accountRepo := postgres.NewAccountRepository(accountPool)
	processedRepo := postgres.NewProcessedTransactionRepository(accountPool)
	h.accountOutbox = postgres.NewOutboxRepository(accountPool)
	h.accounts = usecase.NewAccountUseCase(accountTx, accountRepo, processedRepo, idGen, nil)
	h.saga = usecase.NewSagaUseCase(accountTx, accountRepo, processedRepo, h.accountOutbox, retrier, idGen, nil, logger)

	accountAPI := httptest.NewServer(httpAdapter.NewAccountRouter(httpAdapter.AccountRouterConfig{
		CommonConfig:     httpAdapter.CommonConfig{Logger: logger},
		AccountHandler:   handler.NewAccountHandler(h.accounts),
		ProcessedHandler: handler.NewProcessedHandler(h.accounts),
	}))
	t.Cleanup(accountAPI.Close)

	statusClient, err := httpclient.NewStatusClient(httpclient.StatusClientConfig{
		BaseURL: accountAPI.URL,
		Logger:  logger,
	})
	require.NoError(t, err)

	// Coordinator
	transactionPool := h.transactionDB.Pool
	txRepo := postgres.NewTransactionRepository(transactionPool)
	h.transactionOutbox = postgres.NewOutboxRepository(transactionPool)
	h.coordinator = usecase.NewTransactionUseCase(postgres.NewTxManager(transactionPool), txRepo, h.transactionOutbox, retrier, idGen, nil, logger)
	h.reconciliation = usecase.NewReconciliationUseCase(h.coordinator, txRepo, statusClient, nil, nil, logger, usecase.ReconciliationConfig{
		StaleAfter: time.Minute,
		// Every PROCESSING transaction looks stale.
		Now: func() time.Time { return time.Now().Add(time.Hour) },
	})

	// Ledger
	ledgerPool := h.ledgerDB.Pool
	h.ledger = usecase.NewLedgerUseCase(postgres.NewTxManager(ledgerPool), postgres.NewLedgerEntryRepository(ledgerPool), retrier, idGen, nil, nil, logger)

	// Notification
	notifications := usecase.NewNotificationUseCase(h.notifier, nil, logger)

	h.handlers = map[string][]messaging.Handler{
		domain.EventTypeTransactionInitiated: {queue.Initiated(h.saga)},
		domain.EventTypeTransactionResult:    {queue.Result(h.coordinator)},
		domain.EventTypeTransactionCompleted: {queue.Completed(h.ledger), queue.Completed(notifications)},
		domain.EventTypeTransactionFailed:    {queue.Failed(notifications)},
	}
	return h
}

// pending returns every unpublished outbox row of both producers.
func (h *harness) pending(ctx context.Context) []*domain.OutboxEvent {
	h.t.Helper()

	var events []*domain.OutboxEvent
	for _, repo := range []*postgres.OutboxRepository{h.transactionOutbox, h.accountOutbox} {
		batch, err := repo.GetUnpublished(ctx, 100)
		require.NoError(h.t, err)
		events = append(events, batch...)
	}
	return events
}

// markPublished acknowledges an outbox row without delivering it, as if the
// broker had lost the message.
func (h *harness) markPublished(ctx context.Context, event *domain.OutboxEvent) {
	h.t.Helper()

	repo := h.transactionOutbox
	if event.EventType == domain.EventTypeTransactionResult {
		repo = h.accountOutbox
	}
	require.NoError(h.t, repo.MarkPublished(ctx, event.ID, time.Now().UTC()))
}

// deliver hands event to every handler bound to its routing key.
func (h *harness) deliver(ctx context.Context, event *domain.OutboxEvent) {
	h.t.Helper()

	for _, handle := range h.handlers[event.EventType] {
		require.NoError(h.t, handle(ctx, event.Payload), event.EventType)
	}
}

// drain relays outbox rows until both outboxes are empty.
func (h *harness) drain(ctx context.Context) {
	h.t.Helper()

	for round := 0; round < 10; round++ {
		events := h.pending(ctx)
		if len(events) == 0 {
			return
		}
		for _, event := range events {
			h.deliver(ctx, event)
			h.markPublished(ctx, event)
		}
	}
	h.t.Fatal("outbox did not drain")
}

func (h *harness) initiate(ctx context.Context, input usecase.InitiateTransactionInput) *domain.Transaction {
	h.t.Helper()

	tx, err := h.coordinator.Initiate(ctx, input)
	require.NoError(h.t, err)
	return tx
}

func (h *harness) deposit(ctx context.Context, accountID string, amount int64) *domain.Transaction {
	h.t.Helper()

	return h.initiate(ctx, usecase.InitiateTransactionInput{
		Type:            string(domain.TransactionTypeDeposit),
		TargetAccountID: accountID,
		Amount:          decimal.NewFromInt(amount),
	})
}

func (h *harness) openAccount(ctx context.Context, holder string) *domain.Account {
	h.t.Helper()

	account, err := h.accounts.CreateAccount(ctx, usecase.CreateAccountInput{HolderName: holder, Type: "CHECKING"})
	require.NoError(h.t, err)
	return account
}

func (h *harness) balance(ctx context.Context, accountID string) decimal.Decimal {
	h.t.Helper()

	account, err := h.accounts.GetAccount(ctx, accountID)
	require.NoError(h.t, err)
	return account.Balance
}

func (h *harness) status(ctx context.Context, transactionID string) domain.TransactionStatus {
	h.t.Helper()

	tx, err := h.coordinator.GetTransaction(ctx, transactionID)
	require.NoError(h.t, err)
	return tx.Status
}
