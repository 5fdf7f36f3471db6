package service

import (
	"context"
	"errors"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
)

// TaskRepository defines the repository interface for the service layer.
// It is store.TaskStore plus a title search that works on every backend.
type TaskRepository interface {
	store.TaskStore

	// GetTasksWithTitleLike returns the active tasks matching filter whose
	// title contains search, ignoring case.
	GetTasksWithTitleLike(ctx context.Context, filter store.TaskFilter, search string) ([]*domain.Task, error)
}

// TaskRepositoryAdapter adapts a store.TaskStore to TaskRepository.
// Stores that implement store.TitleSearcher answer title searches
// themselves; for the rest the adapter filters the equality matches.
type TaskRepositoryAdapter struct {
	store.TaskStore
}

// NewTaskRepositoryAdapter creates a new adapter that implements TaskRepository
// by delegating to a store.TaskStore implementation.
func NewTaskRepositoryAdapter(taskStore store.TaskStore) (*TaskRepositoryAdapter, error) {
	if taskStore == nil {
		return nil, errors.New("taskStore cannot be nil")
	}
	return &TaskRepositoryAdapter{TaskStore: taskStore}, nil
}

// Verify that TaskRepositoryAdapter implements TaskRepository
var _ TaskRepository = (*TaskRepositoryAdapter)(nil)

// GetTasksWithTitleLike implements TaskRepository.
func (a *TaskRepositoryAdapter) GetTasksWithTitleLike(
	ctx context.Context,
	filter store.TaskFilter,
	search string,
) ([]*domain.Task, error) {
	if searcher, ok := a.TaskStore.(store.TitleSearcher); ok {
		return searcher.GetManyTitleLike(ctx, filter, search)
	}

	tasks, err := a.GetMany(ctx, filter)
	if err != nil {
		return nil, err
	}

	matched := make([]*domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.TitleContains(search) {
			matched = append(matched, task)
		}
	}
	return matched, nil
}
