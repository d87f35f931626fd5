package storagetest

import (
	"context"
	"testing"

	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func CreateUser(t *testing.T, store storage.Store, email string) *models.User {
	t.Helper()

	user, err := store.Users().Create(context.Background(), &models.User{Name: "Test User", Email: email})
	require.NoError(t, err)
	return user
}

func CreateProject(t *testing.T, store storage.Store, name string) *models.Project {
	t.Helper()

	project, err := store.Projects().Create(context.Background(), &models.Project{
		Name:  name,
		Color: models.DefaultProjectColor,
	})
	require.NoError(t, err)
	return project
}

func CreateBoard(t *testing.T, store storage.Store, projectID uuid.UUID, name string) *models.Board {
	t.Helper()

	board, err := store.Boards().Create(context.Background(), &models.Board{ProjectID: projectID, Name: name})
	require.NoError(t, err)
	return board
}

func CreateColumn(t *testing.T, store storage.Store, boardID uuid.UUID, name string, position int) *models.Column {
	t.Helper()

	column, err := store.Columns().Create(context.Background(), &models.Column{
		BoardID:  boardID,
		Name:     name,
		Color:    models.DefaultColumnColor,
		Position: position,
	})
	require.NoError(t, err)
	return column
}

func CreateTask(t *testing.T, store storage.Store, column *models.Column, title string, position int) *models.Task {
	t.Helper()

	task, err := store.Tasks().Create(context.Background(), &models.Task{
		BoardID:  column.BoardID,
		ColumnID: column.ID,
		Title:    title,
		Priority: models.PriorityMedium,
		Position: position,
	})
	require.NoError(t, err)
	return task
}
