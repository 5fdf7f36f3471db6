package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
)

// application holds the shared dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger

	db *database

	jwtService  auth.JWTService
	taskService service.TaskService
}

// newApplication connects to the configured database and builds the
// services on top of it.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	repo, err := service.NewTaskRepositoryAdapter(db.taskStore)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create task repository: %w", err)
	}

	app.taskService, err = service.NewTaskService(repo, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("application initialized",
		slog.String("database_driver", cfg.Database.Driver),
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))
	return app, nil
}

// Run serves HTTP until a shutdown signal arrives and returns the exit code.
func (app *application) Run(ctx context.Context) int {
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup releases the database connection.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.Any("error", err))
		}
	}
	app.logger.Info("application shutdown completed")
}
