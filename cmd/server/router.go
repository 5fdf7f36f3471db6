package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/phrazzld/tasks-api/internal/api"
	apiMiddleware "github.com/phrazzld/tasks-api/internal/api/middleware"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
)

const welcomeText = "Welcome to the tasks API"

// setupRouter builds the HTTP handler from the application's services.
func (app *application) setupRouter() http.Handler {
	return newRouter(app.logger, app.jwtService, app.taskService, app.config.Server.CORSAllowedOrigins)
}

// newRouter mounts every route behind the standard middleware and wraps
// the result in CORS handling for corsOrigins.
func newRouter(
	logger *slog.Logger,
	jwtService auth.JWTService,
	taskService service.TaskService,
	corsOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(jwtService)
	taskHandler := api.NewTaskHandler(taskService, logger)

	r.Route("/task", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/create", taskHandler.CreateTask)
		r.Get("/list", taskHandler.ListTasks)
		r.Get("/{"+api.TaskIDParam+"}", taskHandler.GetTask)
		r.Put("/{"+api.TaskIDParam+"}", taskHandler.UpdateTask)
		r.Delete("/{"+api.TaskIDParam+"}", taskHandler.DeleteTask)
		r.Patch("/{"+api.TaskIDParam+"}/toggle-status", taskHandler.ToggleTaskStatus)
		r.Get("/{"+api.TaskIDParam+"}/history", taskHandler.GetTaskHistory)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write([]byte(welcomeText)); err != nil {
			logger.Error("failed to write welcome response", slog.Any("error", err))
		}
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", slog.Any("error", err))
		}
	})

	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(corsOrigins),
		gorillahandlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
		gorillahandlers.AllowedHeaders([]string{
			"X-Requested-With", "Content-Type", "Authorization", shared.TraceIDHeader,
		}),
		gorillahandlers.ExposedHeaders([]string{shared.TraceIDHeader}),
	)(r)
}
