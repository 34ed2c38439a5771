// Command account-service owns account balances. It applies Initiated
// transactions and answers the coordinator's status queries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/banksaga/internal/adapter/http"
	"github.com/iho/banksaga/internal/adapter/http/handler"
	"github.com/iho/banksaga/internal/adapter/queue"
	postgresRepo "github.com/iho/banksaga/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/banksaga/internal/adapter/repository/redis"
	"github.com/iho/banksaga/internal/app"
	"github.com/iho/banksaga/internal/infrastructure/config"
	"github.com/iho/banksaga/internal/infrastructure/messaging"
	"github.com/iho/banksaga/internal/usecase"
)

const serviceName = "account-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("account service failed")
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

	pool, err := rt.OpenDatabase(ctx, "account")
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

	verifier, err := rt.ServiceVerifier()
	if err != nil {
		return err
	}

	// Repositories
	txManager := postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.DatabaseLockTimeout))
	accountRepo := postgresRepo.NewAccountRepository(pool)
	processedRepo := postgresRepo.NewProcessedTransactionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	retrier := postgresRepo.NewRetrier(postgresRepo.WithRetrierLogger(rt.Logger))
	idGen := postgresRepo.NewULIDGenerator()

	// Use cases
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, processedRepo, idGen, rt.Metrics)
	sagaUC := usecase.NewSagaUseCase(txManager, accountRepo, processedRepo, outboxRepo, retrier, idGen, rt.Metrics, rt.Logger)

	limiter, cleanup := rt.RateLimiter()
	router := httpAdapter.NewAccountRouter(httpAdapter.AccountRouterConfig{
		CommonConfig: rt.RouterConfig(limiter,
			handler.PostgresCheck(pool),
			handler.RedisCheck(redisClient),
			handler.RabbitMQCheck(conn),
		),
		AccountHandler:   handler.NewAccountHandler(accountUC),
		ProcessedHandler: handler.NewProcessedHandler(accountUC),
		IdempotencyStore: redisRepo.NewIdempotencyStore(redisClient),
		ServiceAuth:      verifier,
	})

	return rt.Run(ctx, rt.HTTPServer(router),
		rt.Consumer(conn, publisher, messaging.QueueTransactionInitiated, queue.Initiated(sagaUC)),
		rt.OutboxRelay(outboxRepo, publisher),
		cleanup,
	)
}
