// Command ledger-service keeps the append-only history of completed
// transactions.
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

const serviceName = "ledger-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("ledger service failed")
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

	pool, err := rt.OpenDatabase(ctx, "ledger")
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

	ledgerUC := usecase.NewLedgerUseCase(
		postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.DatabaseLockTimeout)),
		postgresRepo.NewLedgerEntryRepository(pool),
		postgresRepo.NewRetrier(postgresRepo.WithRetrierLogger(rt.Logger)),
		postgresRepo.NewULIDGenerator(),
		redisRepo.NewCache(redisClient, serviceName),
		rt.Metrics,
		rt.Logger,
	)

	limiter, cleanup := rt.RateLimiter()
	router := httpAdapter.NewLedgerRouter(httpAdapter.LedgerRouterConfig{
		CommonConfig: rt.RouterConfig(limiter,
			handler.PostgresCheck(pool),
			handler.RedisCheck(redisClient),
			handler.RabbitMQCheck(conn),
		),
		LedgerHandler: handler.NewLedgerHandler(ledgerUC),
	})

	return rt.Run(ctx, rt.HTTPServer(router),
		rt.Consumer(conn, publisher, messaging.QueueLedgerCompleted, queue.Completed(ledgerUC)),
		cleanup,
	)
}
