package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/tasks-api/internal/platform/postgres"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

// URLEnv names the variable holding the test database connection string.
const URLEnv = "DATABASE_URL"

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

// URL returns the configured test database URL, or "" when integration
// tests should be skipped.
func URL() string {
	return os.Getenv(URLEnv)
}

// Open connects to the test database, applies the embedded migrations and
// registers cleanup. It skips t when no database is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := URL()
	if dsn == "" {
		t.Skip(URLEnv + " not set, skipping PostgreSQL integration test")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "failed to ping test database")

	require.NoError(t, Migrate(db), "failed to migrate test database")
	return db
}

// Migrate applies every pending migration.
func Migrate(db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(postgres.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, postgres.MigrationsDir)
}

// WithTx runs fn inside a transaction that is always rolled back, even if
// fn panics.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "failed to begin test transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
