package sqlite_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/platform/sqlite"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *sqlite.SQLiteTaskStore {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	s := sqlite.NewSQLiteTaskStore(db, nil)
	require.NoError(t, s.Migrate())
	return s
}

func saveNewTask(t *testing.T, s store.TaskStore, owner uuid.UUID, title string, priority domain.TaskPriority) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(title, "", owner, priority, nil, nil)
	require.NoError(t, err)
	task.NextRevision(owner)
	require.NoError(t, s.Save(context.Background(), task))
	return task
}

func TestNewSQLiteTaskStorePanicsOnNilDB(t *testing.T) {
	assert.Panics(t, func() { sqlite.NewSQLiteTaskStore(nil, nil) })
}

func TestSaveAndGetOne(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	owner := uuid.New()
	org := uuid.New()
	due := time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)

	task, err := domain.NewTask("Write report", "Q3 numbers", owner, domain.TaskPriorityHigh, &org, &due)
	require.NoError(t, err)
	task.NextRevision(owner)
	require.NoError(t, s.Save(ctx, task))

	got, err := s.GetOne(ctx, store.OwnedBy(owner).WithEntityID(task.EntityID))
	require.NoError(t, err)
	assert.Equal(t, task.EntityID, got.EntityID)
	assert.Equal(t, task.Version, got.Version)
	assert.Equal(t, uuid.Nil, got.PreviousVersion)
	assert.True(t, got.Active)
	assert.Equal(t, owner, got.ChangedByID)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, "Q3 numbers", got.Description)
	assert.Equal(t, domain.TaskStatusIncomplete, got.Status)
	assert.Equal(t, domain.TaskPriorityHigh, got.Priority)
	require.NotNil(t, got.OrganizationID)
	assert.Equal(t, org, *got.OrganizationID)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	assert.WithinDuration(t, task.ChangedOn, got.ChangedOn, time.Millisecond)
}

func TestSaveDuplicateRoot(t *testing.T) {
	s := setupStore(t)
	owner := uuid.New()
	task := saveNewTask(t, s, owner, "once", domain.TaskPriorityLow)

	dup := *task
	dup.Version = uuid.New()
	err := s.Save(context.Background(), &dup)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "save", storeErr.Operation)
}

func TestClosedDatabaseErrorsNameTheOperation(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	s := sqlite.NewSQLiteTaskStore(db, nil)
	require.NoError(t, s.Migrate())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	ctx := context.Background()
	owner := uuid.New()

	_, getOneErr := s.GetOne(ctx, store.OwnedBy(owner))
	_, getManyErr := s.GetMany(ctx, store.OwnedBy(owner))
	_, revisionsErr := s.Revisions(ctx, uuid.New())

	tests := map[string]error{
		"get_one":   getOneErr,
		"get_many":  getManyErr,
		"revisions": revisionsErr,
	}
	for operation, err := range tests {
		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr, operation)
		assert.Equal(t, "task", storeErr.Entity)
		assert.Equal(t, operation, storeErr.Operation)
		assert.False(t, store.IsNotFoundError(err), operation)
	}
}

func TestGetOneIsScopedToOwner(t *testing.T) {
	s := setupStore(t)
	owner := uuid.New()
	task := saveNewTask(t, s, owner, "private", domain.TaskPriorityLow)

	_, err := s.GetOne(context.Background(), store.OwnedBy(uuid.New()).WithEntityID(task.EntityID))
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestSaveNextRevision(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	owner := uuid.New()
	task := saveNewTask(t, s, owner, "draft", domain.TaskPriorityMedium)
	first := task.Version

	task.Title = "final"
	task.DueDate = nil
	task.NextRevision(owner)
	require.NoError(t, s.Save(ctx, task))

	got, err := s.GetOne(ctx, store.OwnedBy(owner).WithEntityID(task.EntityID))
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, first, got.PreviousVersion)
	assert.Equal(t, task.Version, got.Version)
}

func TestSaveStaleRevisionConflicts(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	owner := uuid.New()
	task := saveNewTask(t, s, owner, "contended", domain.TaskPriorityMedium)

	a := *task
	b := *task
	a.Title = "writer a"
	a.NextRevision(owner)
	b.Title = "writer b"
	b.NextRevision(owner)

	require.NoError(t, s.Save(ctx, &a))
	assert.ErrorIs(t, s.Save(ctx, &b), store.ErrVersionConflict)

	got, err := s.GetOne(ctx, store.OwnedBy(owner).WithEntityID(task.EntityID))
	require.NoError(t, err)
	assert.Equal(t, "writer a", got.Title)

	revs, err := s.Revisions(ctx, task.EntityID)
	require.NoError(t, err)
	assert.Len(t, revs, 2, "the rejected revision must not reach the audit trail")
}

func TestSaveRevisionOfUnknownEntity(t *testing.T) {
	s := setupStore(t)
	owner := uuid.New()
	task, err := domain.NewTask("ghost", "", owner, "", nil, nil)
	require.NoError(t, err)
	task.NextRevision(owner)
	task.NextRevision(owner)

	assert.ErrorIs(t, s.Save(context.Background(), task), store.ErrTaskNotFound)
}

func TestGetManyFilters(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	high := saveNewTask(t, s, owner, "high one", domain.TaskPriorityHigh)
	low := saveNewTask(t, s, owner, "low one", domain.TaskPriorityLow)
	saveNewTask(t, s, other, "not mine", domain.TaskPriorityHigh)

	low.Status = domain.TaskStatusCompleted
	low.NextRevision(owner)
	require.NoError(t, s.Save(ctx, low))

	all, err := s.GetMany(ctx, store.OwnedBy(owner))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{high.EntityID, low.EntityID}, entityIDs(all))

	highOnly, err := s.GetMany(ctx, store.OwnedBy(owner).WithPriority(domain.TaskPriorityHigh))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{high.EntityID}, entityIDs(highOnly))

	completed, err := s.GetMany(ctx, store.OwnedBy(owner).WithStatus(domain.TaskStatusCompleted))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{low.EntityID}, entityIDs(completed))

	none, err := s.GetMany(ctx, store.OwnedBy(uuid.New()))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDeleteHidesTaskAndKeepsHistory(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	owner := uuid.New()
	task := saveNewTask(t, s, owner, "temporary", domain.TaskPriorityLow)
	root := task.Version

	require.NoError(t, s.Delete(ctx, task, owner))

	_, err := s.GetOne(ctx, store.OwnedBy(owner).WithEntityID(task.EntityID))
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	listed, err := s.GetMany(ctx, store.OwnedBy(owner))
	require.NoError(t, err)
	assert.Empty(t, listed)

	revs, err := s.Revisions(ctx, task.EntityID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, root, revs[0].Version)
	assert.True(t, revs[0].Active)
	assert.Equal(t, root, revs[1].PreviousVersion)
	assert.False(t, revs[1].Active)
}

func TestRevisionsUnknownEntity(t *testing.T) {
	s := setupStore(t)
	_, err := s.Revisions(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func entityIDs(tasks []*domain.Task) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.EntityID)
	}
	return ids
}

func TestRequestLogLinesNameTheStore(t *testing.T) {
	s := setupStore(t)

	var buf bytes.Buffer
	base, err := logger.New(&buf, "debug")
	require.NoError(t, err)
	ctx := logger.WithLogger(context.Background(), base.With("trace_id", "trace-0001"))

	owner := uuid.New()
	task, err := domain.NewTask("logged", "", owner, domain.TaskPriorityLow, nil, nil)
	require.NoError(t, err)
	task.NextRevision(owner)
	require.NoError(t, s.Save(ctx, task))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "task revision saved", entry["msg"])
	assert.Equal(t, "trace-0001", entry["trace_id"])
	assert.Equal(t, "task_store", entry["component"])
}
