// Package testutil provides Postgres fixtures for integration tests.
package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/postgres"
)

// TestDB is one service's database, isolated in its own schema.
type TestDB struct {
	Pool   *pgxpool.Pool
	Schema string
	t      *testing.T
}

// NewTestDB migrates service's schema (account, transaction or ledger) into
// a dedicated Postgres schema and connects to it. The test is skipped in
// -short mode or when DATABASE_URL is unset.
func NewTestDB(t *testing.T, service string) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "it_" + service
	if err := createSchema(ctx, dbURL, schema); err != nil {
		t.Fatalf("failed to create schema %s: %v", schema, err)
	}

	scopedURL, err := withSearchPath(dbURL, schema)
	if err != nil {
		t.Fatalf("failed to scope database URL: %v", err)
	}
	if err := postgres.RunMigrations(scopedURL, migrationsPath(service), zerolog.Nop()); err != nil {
		t.Fatalf("failed to run %s migrations: %v", service, err)
	}

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		t.Fatalf("failed to parse DATABASE_URL: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("failed to ping test database: %v", err)
	}

	db := &TestDB{Pool: pool, Schema: schema, t: t}
	db.TruncateAll(ctx)
	t.Cleanup(pool.Close)
	return db
}

func createSchema(ctx context.Context, dbURL, schema string) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize())
	return err
}

// withSearchPath scopes migrations to schema.
func withSearchPath(dbURL, schema string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func migrationsPath(service string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations", service)
}

// TruncateAll empties every table of the schema except the migration log.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	rows, err := db.Pool.Query(ctx,
		`SELECT tablename FROM pg_tables WHERE schemaname = $1 AND tablename <> 'schema_migrations'`, db.Schema)
	if err != nil {
		db.t.Fatalf("failed to list tables: %v", err)
	}
	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		db.t.Fatalf("failed to list tables: %v", err)
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{db.Schema, table}.Sanitize()+" CASCADE"); err != nil {
			db.t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}

// CreateAccount inserts an ACTIVE checking account holding balance.
func (db *TestDB) CreateAccount(ctx context.Context, id string, balance decimal.Decimal) *domain.Account {
	db.t.Helper()

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            id,
		AccountNumber: fmt.Sprintf("ACC%d", now.UnixNano()),
		HolderName:    "Holder " + id,
		Type:          domain.AccountTypeChecking,
		Balance:       balance,
		Status:        domain.AccountStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO accounts (id, account_number, holder_name, account_type, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, account.AccountNumber, account.HolderName, string(account.Type),
		balance.String(), string(account.Status), now, now)
	if err != nil {
		db.t.Fatalf("failed to create test account: %v", err)
	}
	return account
}
