// Command transaction-service is the saga coordinator. It records client
// requests, finalizes them from Result events and repairs stuck ones.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/banksaga/internal/adapter/http"
	"github.com/iho/banksaga/internal/adapter/http/handler"
	"github.com/iho/banksaga/internal/adapter/httpclient"
	"github.com/iho/banksaga/internal/adapter/queue"
	postgresRepo "github.com/iho/banksaga/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/banksaga/internal/adapter/repository/redis"
	"github.com/iho/banksaga/internal/app"
	"github.com/iho/banksaga/internal/infrastructure/config"
	"github.com/iho/banksaga/internal/infrastructure/messaging"
	"github.com/iho/banksaga/internal/usecase"
)

const serviceName = "transaction-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("transaction service failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	rt := app.New(serviceName, cfg)

	pool, err := rt.OpenDatabase(ctx, "transaction")
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := rt.ConnectRedis(ctx)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	conn, publisher, err := rt.ConnectBroker(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer publisher.Close()

	statusClient, err := newStatusClient(rt)
	if err != nil {
		return err
	}

	// Repositories
	txManager := postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.DatabaseLockTimeout))
	txRepo := postgresRepo.NewTransactionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	retrier := postgresRepo.NewRetrier(postgresRepo.WithRetrierLogger(rt.Logger))
	idGen := postgresRepo.NewULIDGenerator()

	// Use cases
	transactionUC := usecase.NewTransactionUseCase(txManager, txRepo, outboxRepo, retrier, idGen, rt.Metrics, rt.Logger)
	reconciliationUC := usecase.NewReconciliationUseCase(
		transactionUC,
		txRepo,
		statusClient,
		redisRepo.NewLocker(redisClient),
		rt.Metrics,
		rt.Logger,
		usecase.ReconciliationConfig{
			StaleAfter: cfg.ReconciliationStaleAfter,
			LockTTL:    cfg.ReconciliationLeaseTTL,
		},
	)

	limiter, cleanup := rt.RateLimiter()
	router := httpAdapter.NewTransactionRouter(httpAdapter.TransactionRouterConfig{
		CommonConfig: rt.RouterConfig(limiter,
			handler.PostgresCheck(pool),
			handler.RedisCheck(redisClient),
			handler.RabbitMQCheck(conn),
		),
		TransactionHandler:    handler.NewTransactionHandler(transactionUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		IdempotencyStore:      redisRepo.NewIdempotencyStore(redisClient),
	})

	return rt.Run(ctx, rt.HTTPServer(router),
		rt.Consumer(conn, publisher, messaging.QueueTransactionResult, queue.Result(transactionUC)),
		rt.OutboxRelay(outboxRepo, publisher),
		app.Worker{Name: "reconciliation", Run: func(ctx context.Context) error {
			return reconciliationUC.Start(ctx, cfg.ReconciliationInterval)
		}},
		cleanup,
	)
}

func newStatusClient(rt *app.Runtime) (*httpclient.StatusClient, error) {
	tokens, err := rt.ServiceTokens()
	if err != nil {
		return nil, err
	}

	return httpclient.NewStatusClient(httpclient.StatusClientConfig{
		BaseURL:    rt.Config.AccountServiceURL,
		HTTPClient: &http.Client{Timeout: rt.Config.AccountServiceTimeout},
		Tokens:     tokens,
		Metrics:    rt.Metrics,
		Logger:     rt.Logger,
	})
}
