// Package app holds the process wiring shared by the service binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/banksaga/internal/infrastructure/config"
	"github.com/iho/banksaga/internal/infrastructure/eventpublisher"
	"github.com/iho/banksaga/internal/infrastructure/logger"
	"github.com/iho/banksaga/internal/infrastructure/messaging"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
	"github.com/iho/banksaga/internal/infrastructure/postgres"
	"github.com/iho/banksaga/internal/infrastructure/redis"
	"github.com/iho/banksaga/internal/usecase"
)

// Runtime carries the process-wide dependencies of one service.
type Runtime struct {
	Service  string
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// New builds the logger and the metrics registry of service and installs
// the logger globally.
func New(service string, cfg *config.Config) *Runtime {
	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: service,
	})
	logger.SetGlobal(log)

	reg := metrics.NewRegistry()

	return &Runtime{
		Service:  service,
		Config:   cfg,
		Logger:   log,
		Registry: reg,
		Metrics:  metrics.New(reg),
	}
}

// MetricsHandler serves the runtime's registry.
func (rt *Runtime) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{Registry: rt.Registry})
}

// MigrationsPath returns the configured migrations directory, or
// migrations/<schema> relative to the working directory.
func (rt *Runtime) MigrationsPath(schema string) string {
	if rt.Config.MigrationsPath != "" {
		return rt.Config.MigrationsPath
	}
	return filepath.Join("migrations", schema)
}

// OpenDatabase connects to Postgres and applies the migrations of schema.
func (rt *Runtime) OpenDatabase(ctx context.Context, schema string) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:     rt.Config.DatabaseURL,
		MaxConns:        rt.Config.DatabaseMaxConns,
		MinConns:        rt.Config.DatabaseMinConns,
		ApplicationName: rt.Service,
		ConnectTimeout:  rt.Config.DatabaseTimeout,
	})
	if err != nil {
		return nil, err
	}

	if err := postgres.RunMigrations(rt.Config.DatabaseURL, rt.MigrationsPath(schema), rt.Logger); err != nil {
		pool.Close()
		return nil, err
	}

	rt.Logger.Info().Str("schema", schema).Msg("connected to postgres")
	return pool, nil
}

// ConnectRedis connects to Redis, waiting up to the database timeout.
func (rt *Runtime) ConnectRedis(ctx context.Context) (*goredis.Client, error) {
	return redis.Connect(ctx, rt.Config.RedisURL, redis.Options{
		MaxWait: rt.Config.DatabaseTimeout,
		Logger:  rt.Logger,
	})
}

// Topology returns the configured exchange and queue layout.
func (rt *Runtime) Topology() messaging.Topology {
	return messaging.NewTopology(rt.Config.Exchange, rt.Config.DeadLetterExchange, rt.Config.DeadLetterQueue)
}

// ConnectBroker dials RabbitMQ, declares the topology and opens a confirmed
// publisher.
func (rt *Runtime) ConnectBroker(ctx context.Context) (*amqp.Connection, *messaging.Publisher, error) {
	conn, err := messaging.Connect(ctx, rt.Config.AMQPURL, rt.Config.DatabaseTimeout, rt.Logger)
	if err != nil {
		return nil, nil, err
	}

	pub, err := messaging.Setup(conn, rt.Topology())
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, pub, nil
}

// Consumer returns a worker consuming queue on conn with handler.
func (rt *Runtime) Consumer(conn *amqp.Connection, pub *messaging.Publisher, queue string, handler messaging.Handler) Worker {
	cfg := messaging.ConsumerConfig{
		Queue:         queue,
		Tag:           rt.Service + "." + queue,
		Prefetch:      rt.Config.ConsumerPrefetch,
		MaxRetries:    rt.Config.ConsumerMaxRetries,
		RetryDelay:    rt.Config.ConsumerRetryDelay,
		MaxRetryDelay: rt.Config.ConsumerRetryMaxDelay,
		Handler:       handler,
		Republisher:   pub,
		Metrics:       rt.Metrics,
		Logger:        rt.Logger,
	}
	return Worker{
		Name: "consumer " + queue,
		Run: func(ctx context.Context) error {
			return messaging.StartConsumer(ctx, conn, cfg)
		},
	}
}

// OutboxRelay returns a worker relaying outbox rows to pub.
func (rt *Runtime) OutboxRelay(outbox usecase.OutboxRepository, pub eventpublisher.Publisher) Worker {
	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outbox,
		Publisher:  pub,
		Metrics:    rt.Metrics,
		Logger:     rt.Logger,
		BatchSize:  rt.Config.OutboxBatchSize,
		Interval:   rt.Config.OutboxInterval,
		Retention:  rt.Config.OutboxRetention,
	})
	return Worker{Name: "outbox relay", Run: relay.Start}
}

// HTTPServer returns a server for handler on the configured port.
func (rt *Runtime) HTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + rt.Config.HTTPPort,
		Handler:      handler,
		ReadTimeout:  rt.Config.HTTPReadTimeout,
		WriteTimeout: rt.Config.HTTPWriteTimeout,
		IdleTimeout:  rt.Config.HTTPIdleTimeout,
	}
}

// Worker is a long-running background task.
type Worker struct {
	Name string
	Run  func(ctx context.Context) error
}

// Run serves srv and runs every worker until ctx is cancelled or one of them
// fails. A worker returning while ctx is still live counts as a failure.
func (rt *Runtime) Run(ctx context.Context, srv *http.Server, workers ...Worker) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rt.Logger.Info().Str("addr", srv.Addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		rt.Logger.Info().Msg("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.Config.HTTPShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	for _, w := range workers {
		g.Go(func() error {
			err := w.Run(gctx)
			switch {
			case gctx.Err() != nil:
				return nil
			case err != nil:
				return fmt.Errorf("%s: %w", w.Name, err)
			default:
				return fmt.Errorf("%s stopped unexpectedly", w.Name)
			}
		})
	}

	err := g.Wait()
	if err == nil {
		rt.Logger.Info().Msg("stopped")
	}
	return err
}
