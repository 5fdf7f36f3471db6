package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/service"
)

// TaskIDParam is the chi URL parameter naming the task.
const TaskIDParam = "id"

const handlerComponent = "task_handler"

// filterAll is echoed for list filters the client did not send.
const filterAll = "all"

// TaskHandler handles the /task routes.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if taskService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskService cannot be nil for TaskHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", handlerComponent)),
	}
}

// CreateTask handles POST /task/create. The task is assigned to the caller.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.ForComponent(r.Context(), h.logger, handlerComponent)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Title == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Title is required")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), service.NewTaskParams{
		Title:          req.Title,
		Description:    req.Description,
		AssignedToID:   userID,
		Priority:       domain.TaskPriority(req.Priority),
		OrganizationID: req.OrganizationID,
		DueDate:        parseDueDate(req.DueDate),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, TaskEnvelope{
		Success: true,
		Message: "Task created successfully",
		Task:    taskToResponse(task),
	})
}

// ListTasks handles GET /task/list?status=&priority=&title=.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.ForComponent(r.Context(), h.logger, handlerComponent)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	query := r.URL.Query()
	filters := ListFilters{
		Status:   queryOrAll(query.Get("status")),
		Priority: queryOrAll(query.Get("priority")),
		Title:    query.Get("title"),
	}

	tasks, err := h.taskService.GetTasksByUser(r.Context(), userID, service.TaskListFilter{
		Status:   filters.Status,
		Priority: filters.Priority,
		Title:    filters.Title,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListEnvelope{
		Success: true,
		Tasks:   tasksToResponse(tasks),
		Count:   len(tasks),
		Filters: filters,
	})
}

// GetTask handles GET /task/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.ForComponent(r.Context(), h.logger, handlerComponent)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, TaskIDParam, log)
	if !ok {
		return
	}

	task, err := h.taskService.GetTaskByID(r.Context(), taskID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskEnvelope{
		Success: true,
		Task:    taskToResponse(task),
	})
}

// UpdateTask handles PUT /task/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.ForComponent(r.Context(), h.logger, handlerComponent)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, TaskIDParam, log)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", taskID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), taskID, userID, req.toUpdate())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskEnvelope{
		Success: true,
		Message: "Task updated successfully",
		Task:    taskToResponse(task),
	})
}

// ToggleTaskStatus handles PATCH /task/{id}/toggle-status.
func (h *TaskHandler) ToggleTaskStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.ForComponent(r.Context(), h.logger, handlerComponent)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, TaskIDParam, log)
	if !ok {
		return
	}

	task, err := h.taskService.ToggleTaskStatus(r.Context(), taskID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to toggle task status")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskEnvelope{
		Success: true,
		Message: "Task marked as " + string(task.Status),
		Task:    taskToResponse(task),
	})
}

// DeleteTask handles DELETE /task/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.ForComponent(r.Context(), h.logger, handlerComponent)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, TaskIDParam, log)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), taskID, userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageEnvelope{
		Success: true,
		Message: "Task deleted successfully",
	})
}

// GetTaskHistory handles GET /task/{id}/history.
func (h *TaskHandler) GetTaskHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.ForComponent(r.Context(), h.logger, handlerComponent)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, TaskIDParam, log)
	if !ok {
		return
	}

	revs, err := h.taskService.GetTaskHistory(r.Context(), taskID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task history")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HistoryEnvelope{
		Success: true,
		Tasks:   revisionsToResponse(revs),
		Count:   len(revs),
	})
}

func (req UpdateTaskRequest) toUpdate() service.TaskUpdate {
	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     parseDueDate(req.DueDate),
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		update.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		update.Priority = &priority
	}
	return update
}

func queryOrAll(v string) string {
	if strings.TrimSpace(v) == "" {
		return filterAll
	}
	return v
}
