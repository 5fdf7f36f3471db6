package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus is the completion state of a task. Storage treats it as a
// free-form string; only the two constants below carry meaning.
type TaskStatus string

// Known task statuses
const (
	TaskStatusIncomplete TaskStatus = "incomplete"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskPriority is the urgency of a task.
type TaskPriority string

// Known task priorities
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// MaxTaskTitleLength mirrors the width of the title column.
const MaxTaskTitleLength = 255

// Task validation errors
var (
	ErrTaskIDEmpty         = fmt.Errorf("%w: task entity ID cannot be empty", ErrValidation)
	ErrTaskVersionEmpty    = fmt.Errorf("%w: task version cannot be empty", ErrValidation)
	ErrTaskTitleEmpty      = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrTaskTitleTooLong    = fmt.Errorf("%w: task title is too long", ErrValidation)
	ErrTaskAssigneeEmpty   = fmt.Errorf("%w: task assignee cannot be empty", ErrValidation)
	ErrInvalidTaskPriority = fmt.Errorf("%w: invalid task priority", ErrValidation)
)

// Task is one revision of a versioned task entity. EntityID is stable across
// revisions; Version changes on every save and PreviousVersion links back to
// the revision it replaced (uuid.Nil for the first one).
type Task struct {
	EntityID        uuid.UUID    `json:"entity_id"`
	Version         uuid.UUID    `json:"version"`
	PreviousVersion uuid.UUID    `json:"previous_version"`
	Active          bool         `json:"active"`
	ChangedByID     uuid.UUID    `json:"changed_by_id"`
	ChangedOn       time.Time    `json:"changed_on"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Status          TaskStatus   `json:"status"`
	Priority        TaskPriority `json:"priority"`
	AssignedToID    uuid.UUID    `json:"assigned_to_id"`
	OrganizationID  *uuid.UUID   `json:"organization_id,omitempty"`
	DueDate         *time.Time   `json:"due_date,omitempty"`
}

// NewTask builds an unsaved task assigned to assignedToID. The status is
// always incomplete and an empty priority defaults to medium. The returned
// task has no identity yet; call NextRevision before persisting it.
func NewTask(
	title, description string,
	assignedToID uuid.UUID,
	priority TaskPriority,
	organizationID *uuid.UUID,
	dueDate *time.Time,
) (*Task, error) {
	if priority == "" {
		priority = TaskPriorityMedium
	}

	task := &Task{
		Active:         true,
		Title:          title,
		Description:    description,
		Status:         TaskStatusIncomplete,
		Priority:       priority,
		AssignedToID:   assignedToID,
		OrganizationID: organizationID,
		DueDate:        dueDate,
	}

	if err := task.validateFields(); err != nil {
		return nil, err
	}

	return task, nil
}

// NextRevision turns the task into a new revision authored by changedByID.
// A task without an entity ID receives one here, so the first call on a new
// task yields the root revision with a nil PreviousVersion.
func (t *Task) NextRevision(changedByID uuid.UUID) {
	if t.EntityID == uuid.Nil {
		t.EntityID = uuid.New()
	}
	t.PreviousVersion = t.Version
	t.Version = uuid.New()
	t.ChangedByID = changedByID
	t.ChangedOn = time.Now().UTC()
}

// IsRoot reports whether this revision starts its entity's chain.
func (t *Task) IsRoot() bool {
	return t.PreviousVersion == uuid.Nil
}

// Validate checks that the revision is complete enough to be stored.
func (t *Task) Validate() error {
	if t.EntityID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if t.Version == uuid.Nil {
		return ErrTaskVersionEmpty
	}
	return t.validateFields()
}

func (t *Task) validateFields() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleEmpty
	}
	if utf8.RuneCountInString(t.Title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}
	if t.AssignedToID == uuid.Nil {
		return ErrTaskAssigneeEmpty
	}
	if !IsValidTaskPriority(t.Priority) {
		return ErrInvalidTaskPriority
	}
	return nil
}

// ToggledStatus returns the status a toggle should move the task to.
func (t *Task) ToggledStatus() TaskStatus {
	if t.Status == TaskStatusCompleted {
		return TaskStatusIncomplete
	}
	return TaskStatusCompleted
}

// IsValidTaskStatus checks if the given status is a known TaskStatus.
func IsValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusIncomplete, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// IsValidTaskPriority checks if the given priority is a known TaskPriority.
func IsValidTaskPriority(priority TaskPriority) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// ParseStatusFilter interprets a list filter value. Matching is
// case-insensitive; "all" and unknown values report false, meaning the
// filter should not narrow the result.
func ParseStatusFilter(value string) (TaskStatus, bool) {
	status := TaskStatus(strings.ToLower(strings.TrimSpace(value)))
	if !IsValidTaskStatus(status) {
		return "", false
	}
	return status, true
}

// ParsePriorityFilter is the priority counterpart of ParseStatusFilter.
func ParsePriorityFilter(value string) (TaskPriority, bool) {
	priority := TaskPriority(strings.ToLower(strings.TrimSpace(value)))
	if !IsValidTaskPriority(priority) {
		return "", false
	}
	return priority, true
}

// TitleContains reports whether the task title contains search, ignoring
// case. Lowering is Unicode-aware.
func (t *Task) TitleContains(search string) bool {
	return strings.Contains(strings.ToLower(t.Title), strings.ToLower(search))
}
