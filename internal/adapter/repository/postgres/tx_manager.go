package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/banksaga/internal/usecase"
)

type beginner interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager opens database transactions for the use cases. Every transaction
// it hands out runs in the pool's default isolation level (READ COMMITTED);
// balance and ledger writes rely on explicit row and advisory locks instead.
type TxManager struct {
	db          beginner
	lockTimeout time.Duration
}

// TxManagerOption configures a TxManager.
type TxManagerOption func(*TxManager)

// WithLockTimeout bounds how long a statement inside a managed transaction
// waits for a row or advisory lock. Zero leaves the server default in place.
// A timed out wait surfaces as SQLSTATE 55P03, which the Retrier re-runs.
func WithLockTimeout(d time.Duration) TxManagerOption {
	return func(m *TxManager) {
		if d > 0 {
			m.lockTimeout = d
		}
	}
}

// NewTxManager creates a TxManager over a pgx pool.
func NewTxManager(pool *pgxpool.Pool, opts ...TxManagerOption) *TxManager {
	return newTxManager(pool, opts...)
}

func newTxManager(db beginner, opts ...TxManagerOption) *TxManager {
	m := &TxManager{db: db}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts a transaction and applies the configured lock timeout to it.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	if m.lockTimeout > 0 {
		// SET does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx is the usecase.Transaction handed to repositories. Repositories recover
// the pgx.Tx through PgxTx so their queries join the same unit of work.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is safe to defer: once the transaction has been committed it
// does nothing.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
