package sqlite

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
)

// revisionColumns are the columns shared by the current-row table and the
// audit table.
type revisionColumns struct {
	PreviousVersion string     `gorm:"column:previous_version;size:36;not null"`
	Active          bool       `gorm:"column:active;not null;index"`
	ChangedByID     string     `gorm:"column:changed_by_id;size:36;not null"`
	ChangedOn       time.Time  `gorm:"column:changed_on;not null"`
	Title           string     `gorm:"column:title;size:255;not null"`
	Description     string     `gorm:"column:description;not null;default:''"`
	Status          string     `gorm:"column:status;size:20;not null;index"`
	Priority        string     `gorm:"column:priority;size:10;not null;index"`
	AssignedToID    string     `gorm:"column:assigned_to_id;size:36;not null;index"`
	OrganizationID  *string    `gorm:"column:organization_id;size:36;index"`
	DueDate         *time.Time `gorm:"column:due_date"`
}

// taskRecord is the current revision of an entity.
type taskRecord struct {
	EntityID string          `gorm:"column:entity_id;primaryKey;size:36"`
	Version  string          `gorm:"column:version;size:36;not null"`
	Columns  revisionColumns `gorm:"embedded"`
}

// TableName specifies the table name for taskRecord
func (taskRecord) TableName() string {
	return "tasks"
}

// auditRecord is one entry of the append-only revision trail.
type auditRecord struct {
	EntityID string          `gorm:"column:entity_id;primaryKey;size:36"`
	Version  string          `gorm:"column:version;primaryKey;size:36"`
	Columns  revisionColumns `gorm:"embedded"`
}

// TableName specifies the table name for auditRecord
func (auditRecord) TableName() string {
	return "tasks_audit"
}

func columnsFromTask(task *domain.Task) revisionColumns {
	cols := revisionColumns{
		PreviousVersion: task.PreviousVersion.String(),
		Active:          task.Active,
		ChangedByID:     task.ChangedByID.String(),
		ChangedOn:       task.ChangedOn.UTC(),
		Title:           task.Title,
		Description:     task.Description,
		Status:          string(task.Status),
		Priority:        string(task.Priority),
		AssignedToID:    task.AssignedToID.String(),
	}
	if task.OrganizationID != nil {
		org := task.OrganizationID.String()
		cols.OrganizationID = &org
	}
	if task.DueDate != nil {
		due := task.DueDate.UTC()
		cols.DueDate = &due
	}
	return cols
}

// updates lists every column of a replacement revision, including zero
// values such as active=false that a struct update would skip.
func (c revisionColumns) updates(version string) map[string]interface{} {
	return map[string]interface{}{
		"version":          version,
		"previous_version": c.PreviousVersion,
		"active":           c.Active,
		"changed_by_id":    c.ChangedByID,
		"changed_on":       c.ChangedOn,
		"title":            c.Title,
		"description":      c.Description,
		"status":           c.Status,
		"priority":         c.Priority,
		"assigned_to_id":   c.AssignedToID,
		"organization_id":  c.OrganizationID,
		"due_date":         c.DueDate,
	}
}

func (c revisionColumns) toTask(entityID, version string) (*domain.Task, error) {
	ids := make([]uuid.UUID, 4)
	for i, raw := range []string{entityID, version, c.PreviousVersion, c.ChangedByID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q in task row: %w", raw, err)
		}
		ids[i] = id
	}
	assignee, err := uuid.Parse(c.AssignedToID)
	if err != nil {
		return nil, fmt.Errorf("invalid assignee %q in task row: %w", c.AssignedToID, err)
	}

	task := &domain.Task{
		EntityID:        ids[0],
		Version:         ids[1],
		PreviousVersion: ids[2],
		ChangedByID:     ids[3],
		Active:          c.Active,
		ChangedOn:       c.ChangedOn.UTC(),
		Title:           c.Title,
		Description:     c.Description,
		Status:          domain.TaskStatus(c.Status),
		Priority:        domain.TaskPriority(c.Priority),
		AssignedToID:    assignee,
	}
	if c.OrganizationID != nil {
		org, err := uuid.Parse(*c.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("invalid organization %q in task row: %w", *c.OrganizationID, err)
		}
		task.OrganizationID = &org
	}
	if c.DueDate != nil {
		due := c.DueDate.UTC()
		task.DueDate = &due
	}
	return task, nil
}
