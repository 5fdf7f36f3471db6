package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/platform/postgres"
	"github.com/phrazzld/tasks-api/internal/platform/sqlite"
	"github.com/phrazzld/tasks-api/internal/store"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// database is the task store for the configured driver plus the handle
// that must be closed on shutdown.
type database struct {
	taskStore store.TaskStore
	close     func() error
}

// Close releases the underlying connection pool.
func (d *database) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

// openDatabase connects to the configured database. Postgres must already
// be migrated (see -migrate); SQLite creates its schema on open.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*database, error) {
	switch cfg.Driver {
	case driverPostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("database connection established", slog.String("driver", cfg.Driver))
		return &database{
			taskStore: postgres.NewPostgresTaskStore(db, logger),
			close:     db.Close,
		}, nil

	case driverSQLite:
		gdb, err := sqlite.Open(cfg.URL)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sqlite connection: %w", err)
		}
		taskStore := sqlite.NewSQLiteTaskStore(gdb, logger)
		if err := taskStore.Migrate(); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
		logger.Info("database connection established", slog.String("driver", cfg.Driver))
		return &database{
			taskStore: taskStore,
			close:     sqlDB.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// openPostgres opens a pgx-backed *sql.DB with the configured pool limits
// and verifies it with a ping.
func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
