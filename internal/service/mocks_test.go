package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository mocks the TaskRepository interface
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Save(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetOne(ctx context.Context, filter store.TaskFilter) (*domain.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) GetMany(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, task *domain.Task, changedByID uuid.UUID) error {
	args := m.Called(ctx, task, changedByID)
	return args.Error(0)
}

func (m *MockTaskRepository) Revisions(ctx context.Context, entityID uuid.UUID) ([]*domain.Task, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) GetTasksWithTitleLike(
	ctx context.Context,
	filter store.TaskFilter,
	search string,
) ([]*domain.Task, error) {
	args := m.Called(ctx, filter, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

// MockTaskStore mocks store.TaskStore without native title search.
type MockTaskStore struct {
	MockTaskRepository
}

// MockSearchingTaskStore mocks a store.TaskStore that also implements
// store.TitleSearcher.
type MockSearchingTaskStore struct {
	MockTaskRepository
}

func (m *MockSearchingTaskStore) GetManyTitleLike(
	ctx context.Context,
	filter store.TaskFilter,
	search string,
) ([]*domain.Task, error) {
	args := m.Called(ctx, filter, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}
