package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kanban/internal/apperrors"
	"kanban/internal/storage"
	"kanban/internal/storage/docstore"
	"kanban/internal/storage/storagetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FileStore_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		driver, err := NewDriver(t.TempDir())
		require.NoError(t, err)
		return docstore.NewStore(driver)
	})
}

func Test_LoadAll_WhenFileMissing_ReturnsEmpty(t *testing.T) {
	driver, err := NewDriver(t.TempDir())
	require.NoError(t, err)

	docs, err := driver.LoadAll(context.Background(), docstore.CollectionTasks)
	assert.NoError(t, err)
	assert.Empty(t, docs)
}

func Test_LoadAll_WhenFileCorrupted_ReturnsUnavailable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("{not json"), 0o644))

	driver, err := NewDriver(dir)
	require.NoError(t, err)

	_, err = driver.LoadAll(context.Background(), docstore.CollectionTasks)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func Test_Save_WritesCollectionAsJsonArray(t *testing.T) {
	dir := t.TempDir()
	driver, err := NewDriver(dir)
	require.NoError(t, err)

	store := docstore.NewStore(driver)
	storagetest.CreateProject(t, store, "Persisted")

	data, err := os.ReadFile(filepath.Join(dir, "projects.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Persisted"`)

	reopened, err := NewDriver(dir)
	require.NoError(t, err)

	projects, err := docstore.NewStore(reopened).Projects().FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Persisted", projects[0].Name)
}

func Test_Remove_WhenMissing_ReturnsFalse(t *testing.T) {
	driver, err := NewDriver(t.TempDir())
	require.NoError(t, err)

	removed, err := driver.Remove(context.Background(), docstore.CollectionBoards, uuid.New())
	assert.NoError(t, err)
	assert.False(t, removed)
}
