package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
)

// CreateTaskRequest is the body of POST /task/create.
type CreateTaskRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"        validate:"omitempty,oneof=low medium high"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	DueDate        *string    `json:"due_date"`
}

// UpdateTaskRequest is the body of PUT /task/{id}. Omitted fields keep
// their current value.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"      validate:"omitempty,max=20"`
	Priority    *string `json:"priority"    validate:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"due_date"`
}

// TaskResponse is the client representation of a task's current revision.
type TaskResponse struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	AssignedToID   uuid.UUID  `json:"assigned_to_id"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	DueDate        *time.Time `json:"due_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Version        uuid.UUID  `json:"version"`
	Active         bool       `json:"active"`
}

// RevisionResponse is one entry of a task's history.
type RevisionResponse struct {
	TaskResponse
	PreviousVersion *uuid.UUID `json:"previous_version"`
	ChangedByID     uuid.UUID  `json:"changed_by_id"`
}

// TaskEnvelope wraps a single task.
type TaskEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Task    TaskResponse `json:"task"`
}

// ListFilters echoes the list query back to the client.
type ListFilters struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Title    string `json:"title,omitempty"`
}

// TaskListEnvelope wraps GET /task/list results.
type TaskListEnvelope struct {
	Success bool           `json:"success"`
	Tasks   []TaskResponse `json:"tasks"`
	Count   int            `json:"count"`
	Filters ListFilters    `json:"filters"`
}

// HistoryEnvelope wraps GET /task/{id}/history results.
type HistoryEnvelope struct {
	Success bool               `json:"success"`
	Tasks   []RevisionResponse `json:"tasks"`
	Count   int                `json:"count"`
}

// MessageEnvelope is a success body without a payload.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:             t.EntityID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		AssignedToID:   t.AssignedToID,
		OrganizationID: t.OrganizationID,
		DueDate:        t.DueDate,
		CreatedAt:      t.ChangedOn,
		UpdatedAt:      t.ChangedOn,
		Version:        t.Version,
		Active:         t.Active,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	return out
}

func revisionsToResponse(revs []*domain.Task) []RevisionResponse {
	out := make([]RevisionResponse, 0, len(revs))
	for _, t := range revs {
		rev := RevisionResponse{
			TaskResponse: taskToResponse(t),
			ChangedByID:  t.ChangedByID,
		}
		if !t.IsRoot() {
			prev := t.PreviousVersion
			rev.PreviousVersion = &prev
		}
		out = append(out, rev)
	}
	return out
}

// dueDateLayouts are tried in order. Layouts without an offset are read
// as UTC.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDueDate reads an ISO-8601 due date. Nil, empty and unparsable input
// all yield nil.
func parseDueDate(value *string) *time.Time {
	if value == nil {
		return nil
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return nil
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
