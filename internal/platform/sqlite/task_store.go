package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the SQLite database at dsn (":memory:" for a private
// in-memory database). Driver errors are translated so duplicate keys
// surface as gorm.ErrDuplicatedKey.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite connection pool: %w", err)
	}
	// SQLite has a single writer, and every ":memory:" connection is a
	// separate database.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

const storeComponent = "task_store"

// SQLiteTaskStore implements store.TaskStore using gorm on SQLite.
// Title search is not offered natively; callers filter titles themselves.
type SQLiteTaskStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewSQLiteTaskStore creates a task store on db.
// If logger is nil, a default logger will be used.
func NewSQLiteTaskStore(db *gorm.DB, logger *slog.Logger) *SQLiteTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", storeComponent)),
	}
}

var _ store.TaskStore = (*SQLiteTaskStore)(nil)

// Migrate creates or updates the task tables.
func (s *SQLiteTaskStore) Migrate() error {
	if err := s.db.AutoMigrate(&taskRecord{}, &auditRecord{}); err != nil {
		return fmt.Errorf("failed to migrate task tables: %w", err)
	}
	return nil
}

// Save implements store.TaskStore.Save.
func (s *SQLiteTaskStore) Save(ctx context.Context, task *domain.Task) error {
	log := logger.ForComponent(ctx, s.logger, storeComponent)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during save",
			slog.String("error", err.Error()),
			slog.String("entity_id", task.EntityID.String()))
		return err
	}

	entityID := task.EntityID.String()
	version := task.Version.String()
	cols := columnsFromTask(task)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if task.IsRoot() {
			rec := taskRecord{EntityID: entityID, Version: version, Columns: cols}
			if err := tx.Create(&rec).Error; err != nil {
				return mapError(err)
			}
		} else {
			res := tx.Model(&taskRecord{}).
				Where("entity_id = ? AND version = ?", entityID, cols.PreviousVersion).
				Updates(cols.updates(version))
			if res.Error != nil {
				return mapError(res.Error)
			}
			if res.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&taskRecord{}).Where("entity_id = ?", entityID).Count(&count).Error; err != nil {
					return mapError(err)
				}
				if count > 0 {
					return fmt.Errorf("%w: task %s is no longer at version %s",
						store.ErrVersionConflict, entityID, cols.PreviousVersion)
				}
				return store.ErrTaskNotFound
			}
		}

		audit := auditRecord{EntityID: entityID, Version: version, Columns: cols}
		if err := tx.Create(&audit).Error; err != nil {
			return mapError(err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) || errors.Is(err, store.ErrNotFound) {
			return err
		}
		log.Error("failed to save task revision",
			slog.String("error", err.Error()),
			slog.String("entity_id", entityID),
			slog.String("version", version))
		return store.NewStoreError("task", "save", "failed to save task revision", err)
	}

	log.Debug("task revision saved",
		slog.String("entity_id", entityID),
		slog.String("version", version),
		slog.Bool("active", task.Active))
	return nil
}

// GetOne implements store.TaskStore.GetOne.
func (s *SQLiteTaskStore) GetOne(ctx context.Context, filter store.TaskFilter) (*domain.Task, error) {
	log := logger.ForComponent(ctx, s.logger, storeComponent)

	var rec taskRecord
	err := s.scoped(ctx, filter).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debug("task not found")
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get_one", "failed to get task", mapError(err))
	}
	return rec.Columns.toTask(rec.EntityID, rec.Version)
}

// GetMany implements store.TaskStore.GetMany.
func (s *SQLiteTaskStore) GetMany(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	log := logger.ForComponent(ctx, s.logger, storeComponent)

	var recs []taskRecord
	if err := s.scoped(ctx, filter).Order("changed_on DESC").Find(&recs).Error; err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get_many", "failed to query tasks", mapError(err))
	}

	tasks := make([]*domain.Task, 0, len(recs))
	for _, rec := range recs {
		task, err := rec.Columns.toTask(rec.EntityID, rec.Version)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	log.Debug("tasks retrieved", slog.Int("count", len(tasks)))
	return tasks, nil
}

// Delete implements store.TaskStore.Delete.
func (s *SQLiteTaskStore) Delete(ctx context.Context, task *domain.Task, changedByID uuid.UUID) error {
	task.Active = false
	task.NextRevision(changedByID)
	return s.Save(ctx, task)
}

// Revisions implements store.TaskStore.Revisions.
func (s *SQLiteTaskStore) Revisions(ctx context.Context, entityID uuid.UUID) ([]*domain.Task, error) {
	var recs []auditRecord
	err := s.db.WithContext(ctx).
		Where("entity_id = ?", entityID.String()).
		Order("changed_on ASC").
		Find(&recs).Error
	if err != nil {
		return nil, store.NewStoreError("task", "revisions", "failed to query task revisions", mapError(err))
	}
	if len(recs) == 0 {
		return nil, store.ErrTaskNotFound
	}

	revs := make([]*domain.Task, 0, len(recs))
	for _, rec := range recs {
		rev, err := rec.Columns.toTask(rec.EntityID, rec.Version)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	return store.OrderRevisions(revs), nil
}

// scoped starts a query over active current rows narrowed by filter.
func (s *SQLiteTaskStore) scoped(ctx context.Context, filter store.TaskFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&taskRecord{}).Where("active = ?", true)
	if filter.EntityID != nil {
		q = q.Where("entity_id = ?", filter.EntityID.String())
	}
	if filter.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", filter.AssignedToID.String())
	}
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.Priority != nil {
		q = q.Where("priority = ?", string(*filter.Priority))
	}
	return q
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	default:
		return err
	}
}
