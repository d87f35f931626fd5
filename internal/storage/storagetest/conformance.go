// Package storagetest holds the behavior every storage.Store must share.
// Each backend package runs Run against a fresh store.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"kanban/internal/apperrors"
	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type OpenFunc func(t *testing.T) storage.Store

func Run(t *testing.T, open OpenFunc) {
	t.Run("Create_AssignsIdentityAndTimestamps", func(t *testing.T) { testCreate(t, open(t)) })
	t.Run("FindByID_WhenMissing_ReturnsNil", func(t *testing.T) { testFindMissing(t, open(t)) })
	t.Run("Update_KeepsIdentity_RefreshesUpdatedAt", func(t *testing.T) { testUpdate(t, open(t)) })
	t.Run("Update_WhenMissing_ReturnsNil", func(t *testing.T) { testUpdateMissing(t, open(t)) })
	t.Run("Update_ClearFlags_NullOptionalFields", func(t *testing.T) { testClearFlags(t, open(t)) })
	t.Run("Delete_ReportsWhetherRemoved", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("Columns_SortedByPositionThenCreation", func(t *testing.T) { testColumnOrder(t, open(t)) })
	t.Run("Tasks_FilteredByParent", func(t *testing.T) { testTaskFinders(t, open(t)) })
	t.Run("Users_FindByEmail_IgnoresCase", func(t *testing.T) { testFindByEmail(t, open(t)) })
	t.Run("Users_DuplicateEmail_ReturnsConflict", func(t *testing.T) { testDuplicateEmail(t, open(t)) })
	t.Run("Members_DuplicatePair_ReturnsConflict", func(t *testing.T) { testDuplicateMember(t, open(t)) })
	t.Run("WithinTx_OnError_HonorsTransactionSupport", func(t *testing.T) { testWithinTx(t, open(t)) })
	t.Run("Ping_Succeeds", func(t *testing.T) { assert.NoError(t, open(t).Ping(context.Background())) })
}

func testCreate(t *testing.T, store storage.Store) {
	ctx := context.Background()
	before := time.Now().UTC().Add(-time.Second)

	project, err := store.Projects().Create(ctx, &models.Project{Name: "Roadmap", Color: models.DefaultProjectColor})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, project.ID)
	assert.True(t, project.CreatedAt.After(before))
	assert.Equal(t, project.CreatedAt, project.UpdatedAt)

	found, err := store.Projects().FindByID(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Roadmap", found.Name)
	assert.Equal(t, project.ID, found.ID)
}

func testFindMissing(t *testing.T, store storage.Store) {
	ctx := context.Background()

	board, err := store.Boards().FindByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, board)

	tasks, err := store.Tasks().FindByColumnID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Empty(t, tasks)
}

func testUpdate(t *testing.T, store storage.Store) {
	ctx := context.Background()

	board := CreateBoard(t, store, uuid.New(), "Sprint")
	time.Sleep(5 * time.Millisecond)

	updated, err := store.Boards().Update(ctx, board.ID, models.BoardPatch{Name: models.Ptr("Sprint 2")})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, board.ID, updated.ID)
	assert.Equal(t, "Sprint 2", updated.Name)
	assert.Equal(t, board.ProjectID, updated.ProjectID)
	assert.True(t, updated.CreatedAt.Equal(board.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(board.UpdatedAt))

	found, err := store.Boards().FindByID(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sprint 2", found.Name)
}

func testUpdateMissing(t *testing.T, store storage.Store) {
	updated, err := store.Columns().Update(context.Background(), uuid.New(), models.ColumnPatch{Name: models.Ptr("x")})
	assert.NoError(t, err)
	assert.Nil(t, updated)
}

func testClearFlags(t *testing.T, store storage.Store) {
	ctx := context.Background()

	column := CreateColumn(t, store, uuid.New(), "Todo", 0)
	assignee := uuid.New()
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	task, err := store.Tasks().Create(ctx, &models.Task{
		BoardID:    column.BoardID,
		ColumnID:   column.ID,
		Title:      "Write docs",
		Priority:   models.PriorityMedium,
		AssigneeID: &assignee,
		DueDate:    &due,
	})
	require.NoError(t, err)

	updated, err := store.Tasks().Update(ctx, task.ID, models.TaskPatch{ClearAssignee: true, ClearDueDate: true})
	require.NoError(t, err)
	require.NotNil(t, updated)

	found, err := store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, found.AssigneeID)
	assert.Nil(t, found.DueDate)
	assert.Equal(t, "Write docs", found.Title)
}

func testDelete(t *testing.T, store storage.Store) {
	ctx := context.Background()

	user := CreateUser(t, store, "delete@example.com")

	deleted, err := store.Users().Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Users().Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	found, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func testColumnOrder(t *testing.T, store storage.Store) {
	ctx := context.Background()
	boardID := uuid.New()

	third := CreateColumn(t, store, boardID, "Done", 2)
	first := CreateColumn(t, store, boardID, "Todo", 0)
	tieOlder := CreateColumn(t, store, boardID, "Doing", 1)
	time.Sleep(5 * time.Millisecond)
	tieNewer := CreateColumn(t, store, boardID, "Review", 1)
	CreateColumn(t, store, uuid.New(), "Other board", 0)

	columns, err := store.Columns().FindByBoardID(ctx, boardID)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{first.ID, tieOlder.ID, tieNewer.ID, third.ID}, columnIDs(columns))
}

func testTaskFinders(t *testing.T, store storage.Store) {
	ctx := context.Background()
	boardID := uuid.New()
	assignee := uuid.New()

	todo := CreateColumn(t, store, boardID, "Todo", 0)
	done := CreateColumn(t, store, boardID, "Done", 1)

	second := CreateTask(t, store, todo, "second", 1)
	first := CreateTask(t, store, todo, "first", 0)
	closed := CreateTask(t, store, done, "closed", 0)

	_, err := store.Tasks().Update(ctx, closed.ID, models.TaskPatch{AssigneeID: &assignee})
	require.NoError(t, err)

	inTodo, err := store.Tasks().FindByColumnID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, taskIDs(inTodo))

	onBoard, err := store.Tasks().FindByBoardID(ctx, boardID)
	require.NoError(t, err)
	assert.Len(t, onBoard, 3)

	assigned, err := store.Tasks().FindByAssigneeID(ctx, assignee)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{closed.ID}, taskIDs(assigned))
}

func testFindByEmail(t *testing.T, store storage.Store) {
	user := CreateUser(t, store, "mixed.case@example.com")

	found, err := store.Users().FindByEmail(context.Background(), "Mixed.Case@Example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	missing, err := store.Users().FindByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func testDuplicateEmail(t *testing.T, store storage.Store) {
	CreateUser(t, store, "taken@example.com")

	_, err := store.Users().Create(context.Background(), &models.User{Name: "Copy", Email: "taken@example.com"})
	assert.True(t, errors.Is(err, apperrors.ErrConflict), "expected conflict, got %v", err)
}

func testDuplicateMember(t *testing.T, store storage.Store) {
	ctx := context.Background()
	projectID, userID := uuid.New(), uuid.New()

	_, err := store.Members().Create(ctx, &models.ProjectMember{ProjectID: projectID, UserID: userID, Role: models.ProjectRoleMember})
	require.NoError(t, err)

	_, err = store.Members().Create(ctx, &models.ProjectMember{ProjectID: projectID, UserID: userID, Role: models.ProjectRoleAdmin})
	assert.True(t, errors.Is(err, apperrors.ErrConflict), "expected conflict, got %v", err)

	member, err := store.Members().FindByProjectAndUser(ctx, projectID, userID)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, models.ProjectRoleMember, member.Role)
}

func testWithinTx(t *testing.T, store storage.Store) {
	ctx := context.Background()
	failure := errors.New("boom")

	var createdID uuid.UUID
	err := store.WithinTx(ctx, func(tx storage.Store) error {
		project, err := tx.Projects().Create(ctx, &models.Project{Name: "Tx", Color: models.DefaultProjectColor})
		if err != nil {
			return err
		}

		createdID = project.ID
		return failure
	})
	assert.ErrorIs(t, err, failure)

	found, err := store.Projects().FindByID(ctx, createdID)
	require.NoError(t, err)

	if store.SupportsTransactions() {
		assert.Nil(t, found)
	} else {
		assert.NotNil(t, found)
	}
}

func columnIDs(columns []*models.Column) []uuid.UUID {
	ids := make([]uuid.UUID, len(columns))
	for i, column := range columns {
		ids[i] = column.ID
	}
	return ids
}

func taskIDs(tasks []*models.Task) []uuid.UUID {
	ids := make([]uuid.UUID, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}
