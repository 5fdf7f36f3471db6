package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/store"
)

const storeComponent = "task_store"

const taskColumns = `entity_id, version, previous_version, active, changed_by_id, changed_on,
	title, description, status, priority, assigned_to_id, organization_id, due_date`

// PostgresTaskStore implements store.TaskStore and store.TitleSearcher on
// PostgreSQL. Current revisions live in tasks; every revision is also
// appended to tasks_audit.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// When db is a *sql.DB, writes that touch both tables run in their own
// transaction; when it is a *sql.Tx the caller owns the transaction.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", storeComponent)),
	}
}

var (
	_ store.TaskStore     = (*PostgresTaskStore)(nil)
	_ store.TitleSearcher = (*PostgresTaskStore)(nil)
)

// WithTx returns a store that runs every statement on tx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) *PostgresTaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

func (s *PostgresTaskStore) inTx(ctx context.Context, fn func(db store.DBTX) error) error {
	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return fn(tx)
		})
	}
	return fn(s.db)
}

// Save implements store.TaskStore.Save.
func (s *PostgresTaskStore) Save(ctx context.Context, task *domain.Task) error {
	log := logger.ForComponent(ctx, s.logger, storeComponent)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during save",
			slog.String("error", err.Error()),
			slog.String("entity_id", task.EntityID.String()))
		return err
	}

	err := s.inTx(ctx, func(db store.DBTX) error {
		if task.IsRoot() {
			if err := insertTask(ctx, db, "tasks", task); err != nil {
				return err
			}
		} else if err := replaceCurrent(ctx, db, task); err != nil {
			return err
		}
		return insertTask(ctx, db, "tasks_audit", task)
	})
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) || errors.Is(err, store.ErrNotFound) {
			return err
		}
		log.Error("failed to save task revision",
			slog.String("error", err.Error()),
			slog.String("entity_id", task.EntityID.String()),
			slog.String("version", task.Version.String()))
		return store.NewStoreError("task", "save", "failed to save task revision", err)
	}

	log.Debug("task revision saved",
		slog.String("entity_id", task.EntityID.String()),
		slog.String("version", task.Version.String()),
		slog.Bool("active", task.Active))
	return nil
}

func insertTask(ctx context.Context, db store.DBTX, table string, task *domain.Task) error {
	query := `INSERT INTO ` + table + ` (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := db.ExecContext(ctx, query,
		task.EntityID,
		task.Version,
		task.PreviousVersion,
		task.Active,
		task.ChangedByID,
		task.ChangedOn,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.AssignedToID,
		nullUUID(task.OrganizationID),
		nullTime(task.DueDate),
	)
	if err != nil {
		return MapError(err)
	}
	return nil
}

// replaceCurrent overwrites the current row only while it still holds the
// revision task was derived from.
func replaceCurrent(ctx context.Context, db store.DBTX, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET version = $1, previous_version = $2, active = $3, changed_by_id = $4,
			changed_on = $5, title = $6, description = $7, status = $8,
			priority = $9, assigned_to_id = $10, organization_id = $11, due_date = $12
		WHERE entity_id = $13 AND version = $14
	`
	result, err := db.ExecContext(ctx, query,
		task.Version,
		task.PreviousVersion,
		task.Active,
		task.ChangedByID,
		task.ChangedOn,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.AssignedToID,
		nullUUID(task.OrganizationID),
		nullTime(task.DueDate),
		task.EntityID,
		task.PreviousVersion,
	)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tasks WHERE entity_id = $1)`, task.EntityID,
	).Scan(&exists); err != nil {
		return MapError(err)
	}
	if exists {
		return fmt.Errorf("%w: task %s is no longer at version %s",
			store.ErrVersionConflict, task.EntityID, task.PreviousVersion)
	}
	return store.ErrTaskNotFound
}

// GetOne implements store.TaskStore.GetOne.
func (s *PostgresTaskStore) GetOne(ctx context.Context, filter store.TaskFilter) (*domain.Task, error) {
	log := logger.ForComponent(ctx, s.logger, storeComponent)

	where, args := buildWhere(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where + ` LIMIT 1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found")
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get_one", "failed to get task", MapError(err))
	}
	return task, nil
}

// GetMany implements store.TaskStore.GetMany.
func (s *PostgresTaskStore) GetMany(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	where, args := buildWhere(filter)
	return s.queryTasks(ctx, "get_many", `SELECT `+taskColumns+` FROM tasks WHERE `+where+
		` ORDER BY changed_on DESC`, args...)
}

// GetManyTitleLike implements store.TitleSearcher with a case-insensitive
// substring match evaluated by the database.
func (s *PostgresTaskStore) GetManyTitleLike(
	ctx context.Context,
	filter store.TaskFilter,
	search string,
) ([]*domain.Task, error) {
	where, args := buildWhere(filter)
	args = append(args, search)
	where += fmt.Sprintf(" AND strpos(lower(title), lower($%d)) > 0", len(args))
	return s.queryTasks(ctx, "get_many_title_like", `SELECT `+taskColumns+` FROM tasks WHERE `+where+
		` ORDER BY changed_on DESC`, args...)
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, task *domain.Task, changedByID uuid.UUID) error {
	task.Active = false
	task.NextRevision(changedByID)
	return s.Save(ctx, task)
}

// Revisions implements store.TaskStore.Revisions.
func (s *PostgresTaskStore) Revisions(ctx context.Context, entityID uuid.UUID) ([]*domain.Task, error) {
	revs, err := s.queryTasks(ctx, "revisions", `SELECT `+taskColumns+` FROM tasks_audit
		WHERE entity_id = $1 ORDER BY changed_on ASC`, entityID)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, store.ErrTaskNotFound
	}
	return store.OrderRevisions(revs), nil
}

// queryTasks runs a multi-row query; failures are reported as a
// store.StoreError naming operation.
func (s *PostgresTaskStore) queryTasks(
	ctx context.Context,
	operation string,
	query string,
	args ...any,
) ([]*domain.Task, error) {
	log := logger.ForComponent(ctx, s.logger, storeComponent)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", operation, "failed to query tasks", MapError(err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("task", operation, "failed to scan task row", MapError(err))
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", operation, "error iterating task rows", MapError(err))
	}

	log.Debug("tasks retrieved", slog.Int("count", len(tasks)))
	return tasks, nil
}

// buildWhere renders filter as a conjunction over the current-row columns.
// Inactive rows are always excluded.
func buildWhere(filter store.TaskFilter) (string, []any) {
	clauses := []string{"active = TRUE"}
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.EntityID != nil {
		add("entity_id", *filter.EntityID)
	}
	if filter.AssignedToID != nil {
		add("assigned_to_id", *filter.AssignedToID)
	}
	if filter.Status != nil {
		add("status", string(*filter.Status))
	}
	if filter.Priority != nil {
		add("priority", string(*filter.Priority))
	}
	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task           domain.Task
		status         string
		priority       string
		organizationID uuid.NullUUID
		dueDate        sql.NullTime
	)
	err := row.Scan(
		&task.EntityID,
		&task.Version,
		&task.PreviousVersion,
		&task.Active,
		&task.ChangedByID,
		&task.ChangedOn,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.AssignedToID,
		&organizationID,
		&dueDate,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	task.ChangedOn = task.ChangedOn.UTC()
	if organizationID.Valid {
		id := organizationID.UUID
		task.OrganizationID = &id
	}
	if dueDate.Valid {
		due := dueDate.Time.UTC()
		task.DueDate = &due
	}
	return &task, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
