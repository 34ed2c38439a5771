package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultReconciliationInterval is how often the stuck-transaction sweep runs.
	DefaultReconciliationInterval = 60 * time.Second

	// DefaultStaleAfter is how long a transaction may stay PROCESSING before the sweep inspects it.
	DefaultStaleAfter = 5 * time.Minute

	// DefaultReconciliationBatch bounds one sweep.
	DefaultReconciliationBatch = 500

	// ReconciliationLockKey names the cluster-wide sweep lease.
	ReconciliationLockKey = "reconciliation:stuck-transactions"

	// ledgerBalanceCacheTTL bounds how stale a cached ledger balance may be.
	ledgerBalanceCacheTTL = 30 * time.Second
)
