package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Coordinator metrics
	TransactionsInitiated *prometheus.CounterVec
	TransactionsFinalized *prometheus.CounterVec
	TransactionAmount     prometheus.Histogram

	// Account metrics
	AccountsCreated    prometheus.Counter
	BalanceAdjustments *prometheus.CounterVec
	SagaOutcomes       *prometheus.CounterVec
	Compensations      prometheus.Counter
	SagaDuration       prometheus.Histogram

	// Ledger metrics
	LedgerEntries          *prometheus.CounterVec
	LedgerDuplicateEntries prometheus.Counter

	// Reconciliation metrics
	ReconciliationRuns        *prometheus.CounterVec
	ReconciliationAdopted     *prometheus.CounterVec
	ReconciliationRepublished prometheus.Counter
	ReconciliationErrors      prometheus.Counter
	ReconciliationDuration    prometheus.Histogram
	StatusClientRequests      *prometheus.CounterVec

	// Notification metrics
	Notifications *prometheus.CounterVec

	// Messaging metrics
	ConsumerDeliveries *prometheus.CounterVec
	OutboxPublished    *prometheus.CounterVec
	OutboxFailures     *prometheus.CounterVec
	OutboxLag          prometheus.Histogram

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInFlight  prometheus.Gauge
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		TransactionsInitiated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_transactions_initiated_total",
				Help: "Total number of transactions initiated by type",
			},
			[]string{"type"},
		),
		TransactionsFinalized: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_transactions_finalized_total",
				Help: "Total number of transactions finalized by status and source",
			},
			[]string{"status", "source"},
		),
		TransactionAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "banksaga_transaction_amount",
			Help:    "Requested transaction amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "banksaga_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		BalanceAdjustments: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_balance_adjustments_total",
				Help: "Total balance adjustments by operation",
			},
			[]string{"operation"},
		),
		SagaOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_saga_outcomes_total",
				Help: "Initiated messages handled by the account service by outcome",
			},
			[]string{"outcome"},
		),
		Compensations: f.NewCounter(prometheus.CounterOpts{
			Name: "banksaga_compensations_total",
			Help: "Total balance mutations reverted after a failed saga step",
		}),
		SagaDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "banksaga_saga_step_duration_seconds",
			Help:    "Duration of the account service saga step",
			Buckets: prometheus.DefBuckets,
		}),

		LedgerEntries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_ledger_entries_total",
				Help: "Total ledger entries appended by type",
			},
			[]string{"type"},
		),
		LedgerDuplicateEntries: f.NewCounter(prometheus.CounterOpts{
			Name: "banksaga_ledger_duplicate_entries_total",
			Help: "Ledger entries skipped because they were already recorded",
		}),

		ReconciliationRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_reconciliation_runs_total",
				Help: "Reconciliation sweeps by result",
			},
			[]string{"result"},
		),
		ReconciliationAdopted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_reconciliation_adopted_total",
				Help: "Stuck transactions finalized from the account service record",
			},
			[]string{"status"},
		),
		ReconciliationRepublished: f.NewCounter(prometheus.CounterOpts{
			Name: "banksaga_reconciliation_republished_total",
			Help: "Stuck transactions whose initiated event was republished",
		}),
		ReconciliationErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "banksaga_reconciliation_errors_total",
			Help: "Stuck transactions that could not be reconciled in a sweep",
		}),
		ReconciliationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "banksaga_reconciliation_duration_seconds",
			Help:    "Duration of reconciliation sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		StatusClientRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_status_client_requests_total",
				Help: "Account service status lookups by result",
			},
			[]string{"result"},
		),

		Notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_notifications_total",
				Help: "Notifications by kind and delivery status",
			},
			[]string{"kind", "status"},
		),

		ConsumerDeliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_consumer_deliveries_total",
				Help: "Consumed messages by queue and outcome",
			},
			[]string{"queue", "outcome"},
		),
		OutboxPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_outbox_published_total",
				Help: "Outbox events published by event type",
			},
			[]string{"event_type"},
		),
		OutboxFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_outbox_failures_total",
				Help: "Outbox events that failed to publish by event type",
			},
			[]string{"event_type"},
		),
		OutboxLag: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "banksaga_outbox_lag_seconds",
			Help:    "Time between an outbox event being written and reaching the broker",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		}),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksaga_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "banksaga_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "banksaga_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Name: "banksaga_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// NewRegistry returns a registry carrying the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
