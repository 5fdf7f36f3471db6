// Package main runs the tasks API server. With -migrate it applies the
// embedded Postgres migrations instead and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses args, loads configuration and either migrates or serves.
// It returns the process exit code.
func run(args []string) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file (default: ./config.yaml if present)")
	migrateCmd := fs.String("migrate", "", "run a goose command (up, down, status, version, reset) and exit")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logger: %v\n", err)
		return 1
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))

	ctx := context.Background()

	if *migrateCmd != "" {
		if err := migrate(ctx, cfg, *migrateCmd, log); err != nil {
			log.Error("migration failed", slog.String("command", *migrateCmd), slog.Any("error", err))
			return 1
		}
		return 0
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.Any("error", err))
		return 1
	}
	return app.Run(ctx)
}
