package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/banksaga/internal/adapter/http/handler"
	"github.com/iho/banksaga/internal/adapter/http/middleware"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
	"github.com/iho/banksaga/internal/usecase"
)

// CommonConfig holds what every service router mounts.
type CommonConfig struct {
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	HealthHandler  *handler.HealthHandler
	RateLimiter    *middleware.RateLimiter

	// IdempotencyTTL bounds how long Idempotency-Key responses are replayed.
	IdempotencyTTL time.Duration
}

// AccountRouterConfig holds dependencies for the account service router.
type AccountRouterConfig struct {
	CommonConfig
	AccountHandler   *handler.AccountHandler
	ProcessedHandler *handler.ProcessedHandler
	IdempotencyStore usecase.IdempotencyStore
	// ServiceAuth guards /internal; nil leaves it open.
	ServiceAuth middleware.TokenVerifier
}

// TransactionRouterConfig holds dependencies for the coordinator router.
type TransactionRouterConfig struct {
	CommonConfig
	TransactionHandler    *handler.TransactionHandler
	ReconciliationHandler *handler.ReconciliationHandler
	IdempotencyStore      usecase.IdempotencyStore
}

// LedgerRouterConfig holds dependencies for the ledger service router.
type LedgerRouterConfig struct {
	CommonConfig
	LedgerHandler *handler.LedgerHandler
}

// newBaseRouter mounts global middleware, health probes and /metrics.
func newBaseRouter(cfg CommonConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	health := cfg.HealthHandler
	if health == nil {
		health = handler.NewHealthHandler()
	}
	r.Get("/health", health.Liveness)
	r.Get("/ready", health.Readiness)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

func idempotent(r chi.Router, store usecase.IdempotencyStore, cfg CommonConfig) {
	if store != nil {
		r.Use(middleware.NewIdempotencyMiddleware(store, cfg.Logger).WithTTL(cfg.IdempotencyTTL).Wrap)
	}
}

// NewAccountRouter creates the account service router.
func NewAccountRouter(cfg AccountRouterConfig) http.Handler {
	r := newBaseRouter(cfg.CommonConfig)

	r.Route("/api/v1/accounts", func(r chi.Router) {
		idempotent(r, cfg.IdempotencyStore, cfg.CommonConfig)

		r.Post("/", cfg.AccountHandler.Create)
		r.Get("/", cfg.AccountHandler.List)
		r.Get("/by-number/{number}", cfg.AccountHandler.GetByNumber)
		r.Get("/{id}", cfg.AccountHandler.Get)
		r.Post("/{id}/balance", cfg.AccountHandler.AdjustBalance)
	})

	r.Route("/internal", func(r chi.Router) {
		if cfg.ServiceAuth != nil {
			r.Use(middleware.ServiceAuth(cfg.ServiceAuth))
		}
		r.Get("/transactions/{id}/status", cfg.ProcessedHandler.Status)
	})

	return r
}

// NewTransactionRouter creates the coordinator router.
func NewTransactionRouter(cfg TransactionRouterConfig) http.Handler {
	r := newBaseRouter(cfg.CommonConfig)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			idempotent(r, cfg.IdempotencyStore, cfg.CommonConfig)

			r.Post("/", cfg.TransactionHandler.Initiate)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Get("/{id}/events", cfg.TransactionHandler.Events)
		})

		r.Get("/accounts/{id}/transactions", cfg.TransactionHandler.ListByAccount)

		if cfg.ReconciliationHandler != nil {
			r.Post("/reconciliation/run", cfg.ReconciliationHandler.Run)
		}
	})

	return r
}

// NewLedgerRouter creates the ledger service router.
func NewLedgerRouter(cfg LedgerRouterConfig) http.Handler {
	r := newBaseRouter(cfg.CommonConfig)

	r.Route("/api/v1/ledger", func(r chi.Router) {
		r.Get("/entries", cfg.LedgerHandler.List)
		r.Get("/accounts/{id}/entries", cfg.LedgerHandler.ListByAccount)
		r.Get("/accounts/{id}/balance", cfg.LedgerHandler.Balance)
		r.Get("/accounts/{id}/verify", cfg.LedgerHandler.Verify)
	})

	return r
}

// NewNotificationRouter creates the notification service router, which only
// exposes health and metrics.
func NewNotificationRouter(cfg CommonConfig) http.Handler {
	return newBaseRouter(cfg)
}
