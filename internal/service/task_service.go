package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/store"
)

// NewTaskParams carries the inputs of CreateTask.
type NewTaskParams struct {
	Title          string
	Description    string
	AssignedToID   uuid.UUID
	Priority       domain.TaskPriority
	OrganizationID *uuid.UUID
	DueDate        *time.Time
}

// TaskListFilter narrows GetTasksByUser. Status and Priority are raw query
// values; anything other than a recognised value (including "all" and "")
// leaves that dimension unfiltered. An empty Title disables title search.
type TaskListFilter struct {
	Status   string
	Priority string
	Title    string
}

// TaskUpdate lists the fields UpdateTask may change. A nil field was not
// supplied and keeps its current value; a non-nil pointer to an empty value
// is applied as given. A nil DueDate therefore cannot clear the due date.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	DueDate     *time.Time
}

// TaskService provides task-related operations. Every operation that takes
// a userID only sees tasks assigned to that user.
type TaskService interface {
	// CreateTask creates a new incomplete task owned by params.AssignedToID.
	CreateTask(ctx context.Context, params NewTaskParams) (*domain.Task, error)

	// GetTasksByUser lists the active tasks assigned to userID.
	GetTasksByUser(ctx context.Context, userID uuid.UUID, filter TaskListFilter) ([]*domain.Task, error)

	// GetTaskByID returns one active task. uuid.Nil as userID skips the
	// ownership check.
	GetTaskByID(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)

	// UpdateTask applies update to the task and saves a new revision.
	UpdateTask(ctx context.Context, taskID, userID uuid.UUID, update TaskUpdate) (*domain.Task, error)

	// ToggleTaskStatus flips a task between completed and incomplete.
	ToggleTaskStatus(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)

	// DeleteTask soft-deletes the task. Returns ErrTaskNotFound when there
	// was nothing to delete.
	DeleteTask(ctx context.Context, taskID, userID uuid.UUID) error

	// GetTaskHistory returns every revision of the task, oldest first.
	GetTaskHistory(ctx context.Context, taskID, userID uuid.UUID) ([]*domain.Task, error)
}

const serviceComponent = "task_service"

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	taskRepo TaskRepository
	logger   *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if the repository is nil.
func NewTaskService(taskRepo TaskRepository, logger *slog.Logger) (TaskService, error) {
	if taskRepo == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskRepo cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskRepo: taskRepo,
		logger:   logger.With("component", serviceComponent),
	}, nil
}

// CreateTask creates a new task. Every call creates a new entity.
func (s *taskServiceImpl) CreateTask(ctx context.Context, params NewTaskParams) (*domain.Task, error) {
	log := logger.ForComponent(ctx, s.logger, serviceComponent)

	task, err := domain.NewTask(
		params.Title,
		params.Description,
		params.AssignedToID,
		params.Priority,
		params.OrganizationID,
		params.DueDate,
	)
	if err != nil {
		log.Warn("invalid task on create",
			"error", err,
			"user_id", params.AssignedToID)
		return nil, NewTaskServiceError("create_task", "invalid task", err)
	}

	task.NextRevision(params.AssignedToID)
	if err := s.taskRepo.Save(ctx, task); err != nil {
		log.Error("failed to save new task",
			"error", err,
			"user_id", params.AssignedToID)
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Info("task created",
		"task_id", task.EntityID,
		"user_id", params.AssignedToID,
		"priority", task.Priority)
	return task, nil
}

// GetTasksByUser lists the user's tasks. Filter values are matched
// case-insensitively.
func (s *taskServiceImpl) GetTasksByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter TaskListFilter,
) ([]*domain.Task, error) {
	log := logger.ForComponent(ctx, s.logger, serviceComponent)

	q := store.OwnedBy(userID)
	if status, ok := domain.ParseStatusFilter(filter.Status); ok {
		q = q.WithStatus(status)
	}
	if priority, ok := domain.ParsePriorityFilter(filter.Priority); ok {
		q = q.WithPriority(priority)
	}

	var (
		tasks []*domain.Task
		err   error
	)
	if filter.Title != "" {
		tasks, err = s.taskRepo.GetTasksWithTitleLike(ctx, q, filter.Title)
	} else {
		tasks, err = s.taskRepo.GetMany(ctx, q)
	}
	if err != nil {
		log.Error("failed to list tasks",
			"error", err,
			"user_id", userID)
		return nil, NewTaskServiceError("get_tasks_by_user", "failed to list tasks", err)
	}

	log.Debug("listed tasks",
		"user_id", userID,
		"count", len(tasks))
	return tasks, nil
}

// GetTaskByID retrieves a task by its ID.
func (s *taskServiceImpl) GetTaskByID(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	return s.load(ctx, "get_task", taskID, userID)
}

// UpdateTask applies the supplied fields and always writes a new revision,
// even if no value actually changed.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	taskID, userID uuid.UUID,
	update TaskUpdate,
) (*domain.Task, error) {
	task, err := s.load(ctx, "update_task", taskID, userID)
	if err != nil {
		return nil, err
	}

	applyUpdate(task, update)
	return s.saveRevision(ctx, "update_task", task, userID)
}

// ToggleTaskStatus flips the task status and saves a new revision.
func (s *taskServiceImpl) ToggleTaskStatus(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	task, err := s.load(ctx, "toggle_task_status", taskID, userID)
	if err != nil {
		return nil, err
	}

	status := task.ToggledStatus()
	applyUpdate(task, TaskUpdate{Status: &status})
	return s.saveRevision(ctx, "toggle_task_status", task, userID)
}

// DeleteTask soft-deletes a task owned by userID.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID, userID uuid.UUID) error {
	log := logger.ForComponent(ctx, s.logger, serviceComponent)

	task, err := s.load(ctx, "delete_task", taskID, userID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, task, userID); err != nil {
		log.Error("failed to delete task",
			"error", err,
			"task_id", taskID,
			"user_id", userID)
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	log.Info("task deleted",
		"task_id", taskID,
		"user_id", userID)
	return nil
}

// GetTaskHistory returns the audit trail of a task the user currently owns.
func (s *taskServiceImpl) GetTaskHistory(ctx context.Context, taskID, userID uuid.UUID) ([]*domain.Task, error) {
	log := logger.ForComponent(ctx, s.logger, serviceComponent)

	if _, err := s.load(ctx, "get_task_history", taskID, userID); err != nil {
		return nil, err
	}

	revs, err := s.taskRepo.Revisions(ctx, taskID)
	if err != nil {
		log.Error("failed to load task history",
			"error", err,
			"task_id", taskID,
			"user_id", userID)
		return nil, NewTaskServiceError("get_task_history", "failed to load revisions", err)
	}
	return revs, nil
}

// load fetches the current revision, scoped to userID unless it is uuid.Nil.
func (s *taskServiceImpl) load(ctx context.Context, operation string, taskID, userID uuid.UUID) (*domain.Task, error) {
	log := logger.ForComponent(ctx, s.logger, serviceComponent)

	filter := store.TaskFilter{}.WithEntityID(taskID)
	if userID != uuid.Nil {
		filter = store.OwnedBy(userID).WithEntityID(taskID)
	}

	task, err := s.taskRepo.GetOne(ctx, filter)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found",
				"operation", operation,
				"task_id", taskID,
				"user_id", userID)
			return nil, ErrTaskNotFound
		}
		log.Error("failed to load task",
			"error", err,
			"operation", operation,
			"task_id", taskID,
			"user_id", userID)
		return nil, NewTaskServiceError(operation, "failed to load task", err)
	}
	return task, nil
}

func (s *taskServiceImpl) saveRevision(
	ctx context.Context,
	operation string,
	task *domain.Task,
	userID uuid.UUID,
) (*domain.Task, error) {
	log := logger.ForComponent(ctx, s.logger, serviceComponent)

	task.NextRevision(userID)
	if err := s.taskRepo.Save(ctx, task); err != nil {
		log.Error("failed to save task revision",
			"error", err,
			"operation", operation,
			"task_id", task.EntityID,
			"user_id", userID)
		return nil, NewTaskServiceError(operation, "failed to save task", err)
	}

	log.Info("task revision saved",
		"operation", operation,
		"task_id", task.EntityID,
		"version", task.Version,
		"status", task.Status)
	return task, nil
}

func applyUpdate(task *domain.Task, update TaskUpdate) {
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Status != nil {
		task.Status = *update.Status
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.DueDate != nil {
		due := update.DueDate.UTC()
		task.DueDate = &due
	}
}
