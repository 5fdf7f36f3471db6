package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
)

// TaskFilter is an equality filter over the current revision of each task.
// Nil fields do not constrain the query. Only active revisions are ever
// matched.
type TaskFilter struct {
	EntityID     *uuid.UUID
	AssignedToID *uuid.UUID
	Status       *domain.TaskStatus
	Priority     *domain.TaskPriority
}

// OwnedBy returns the filter predicate that scopes a query to callerID.
// Ownership is enforced only through this predicate, so a task owned by
// someone else is simply not found.
func OwnedBy(callerID uuid.UUID) TaskFilter {
	return TaskFilter{AssignedToID: &callerID}
}

// WithEntityID returns a copy of f narrowed to a single entity.
func (f TaskFilter) WithEntityID(id uuid.UUID) TaskFilter {
	f.EntityID = &id
	return f
}

// WithStatus returns a copy of f narrowed to status.
func (f TaskFilter) WithStatus(status domain.TaskStatus) TaskFilter {
	f.Status = &status
	return f
}

// WithPriority returns a copy of f narrowed to priority.
func (f TaskFilter) WithPriority(priority domain.TaskPriority) TaskFilter {
	f.Priority = &priority
	return f
}

// TaskStore defines the interface for versioned task persistence.
// Version: 1.0
type TaskStore interface {
	// Save persists task as a new revision. The caller is expected to have
	// called task.NextRevision first.
	//
	// A root revision (nil PreviousVersion) inserts a new entity and returns
	// ErrDuplicate if the entity ID is already taken. Any other revision
	// replaces the current one only if the stored version equals
	// task.PreviousVersion; otherwise ErrVersionConflict is returned, or
	// ErrTaskNotFound if the entity does not exist at all.
	//
	// Every saved revision is also appended to the audit trail.
	Save(ctx context.Context, task *domain.Task) error

	// GetOne returns the current active revision matching filter.
	// Returns ErrTaskNotFound if nothing matches.
	GetOne(ctx context.Context, filter TaskFilter) (*domain.Task, error)

	// GetMany returns the current active revisions matching filter.
	// Returns an empty slice when nothing matches. No ordering is promised.
	GetMany(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// Delete soft-deletes task by saving a new inactive revision authored by
	// changedByID. The audit trail keeps every earlier revision.
	Delete(ctx context.Context, task *domain.Task, changedByID uuid.UUID) error

	// Revisions returns every stored revision of an entity, oldest first,
	// including inactive ones. Returns ErrTaskNotFound if there are none.
	Revisions(ctx context.Context, entityID uuid.UUID) ([]*domain.Task, error)
}

// TitleSearcher is implemented by stores that can match titles natively.
// Matching must be a case-insensitive substring test on the title.
type TitleSearcher interface {
	GetManyTitleLike(ctx context.Context, filter TaskFilter, search string) ([]*domain.Task, error)
}
