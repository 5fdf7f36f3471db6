package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

// startHTTPServer serves router until SIGINT/SIGTERM, then drains
// in-flight requests within the configured timeout and releases the
// database. It returns the process exit code.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) int {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	timeout := time.Duration(app.config.Server.ShutdownTimeoutSeconds) * time.Second

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, timeout, map[string]gfshutdown.Operation{
		// Requests drain before the database goes away.
		"http-server": func(ctx context.Context) error {
			app.logger.Info("shutting down server")
			err := server.Shutdown(ctx)
			app.cleanup()
			return err
		},
	})

	select {
	case err := <-serveErr:
		app.logger.Error("server failed", slog.Any("error", err))
		app.cleanup()
		return 1
	case code := <-wait:
		app.logger.Info("server shutdown completed", slog.Int("exit_code", code))
		return code
	}
}
