package boards

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"kanban/internal/config"
	"kanban/internal/features/cascade"
	"kanban/internal/features/events"
	"kanban/internal/models"
	"kanban/internal/storage"
	"kanban/internal/storage/memstore"
	"kanban/internal/storage/storagetest"
	"kanban/internal/util/logger"
	test_utils "kanban/internal/util/testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestService() (*BoardService, storage.Store) {
	store := memstore.New()
	coordinator := cascade.NewCoordinator(store, config.ColumnDeletePolicyBlock, logger.GetLogger())

	return NewBoardService(store, coordinator, events.Nop{}, logger.GetLogger()), store
}

func createTestRouter() (*gin.Engine, storage.Store) {
	service, store := createTestService()
	return test_utils.CreateTestRouter(NewBoardController(service)), store
}

func Test_CreateBoard_WithExistingProject_BoardCreated(t *testing.T) {
	router, store := createTestRouter()
	project := storagetest.CreateProject(t, store, "P")

	var board models.Board
	test_utils.MakePostRequestAndUnmarshal(t, router, "/api/v1/boards",
		CreateBoardRequest{ProjectID: project.ID, Name: " Sprint 1 "}, http.StatusCreated, &board)

	assert.Equal(t, "Sprint 1", board.Name)
	assert.Equal(t, project.ID, board.ProjectID)
}

func Test_CreateBoard_WithUnknownProject_ReturnsBadRequest(t *testing.T) {
	router, _ := createTestRouter()

	resp := test_utils.MakePostRequest(t, router, "/api/v1/boards",
		CreateBoardRequest{ProjectID: uuid.New(), Name: "B"}, http.StatusBadRequest)

	assert.Contains(t, string(resp.Body), "project not found")
}

func Test_GetProjectBoards_ReturnsOnlyProjectBoards(t *testing.T) {
	router, store := createTestRouter()
	project := storagetest.CreateProject(t, store, "P")
	other := storagetest.CreateProject(t, store, "Other")
	storagetest.CreateBoard(t, store, project.ID, "Mine")
	storagetest.CreateBoard(t, store, other.ID, "Theirs")

	var boards []models.Board
	test_utils.MakeGetRequestAndUnmarshal(t, router,
		"/api/v1/boards/project/"+project.ID.String(), http.StatusOK, &boards)

	require.Len(t, boards, 1)
	assert.Equal(t, "Mine", boards[0].Name)

	test_utils.MakeGetRequest(t, router, "/api/v1/boards/project/"+uuid.New().String(), http.StatusNotFound)
}

func Test_GetBoardSnapshot_ReturnsColumnsAndTasksByPosition(t *testing.T) {
	router, store := createTestRouter()
	project := storagetest.CreateProject(t, store, "P")
	board := storagetest.CreateBoard(t, store, project.ID, "B")
	done := storagetest.CreateColumn(t, store, board.ID, "Done", 1)
	todo := storagetest.CreateColumn(t, store, board.ID, "To Do", 0)
	storagetest.CreateTask(t, store, todo, "second", 1)
	storagetest.CreateTask(t, store, todo, "first", 0)
	storagetest.CreateTask(t, store, done, "shipped", 0)

	var snapshot BoardSnapshot
	test_utils.MakeGetRequestAndUnmarshal(t, router,
		"/api/v1/boards/"+board.ID.String()+"/full", http.StatusOK, &snapshot)

	require.NotNil(t, snapshot.Board)
	assert.Equal(t, board.ID, snapshot.Board.ID)
	require.Len(t, snapshot.Columns, 2)
	assert.Equal(t, "To Do", snapshot.Columns[0].Name)
	assert.Equal(t, "Done", snapshot.Columns[1].Name)

	require.Len(t, snapshot.Columns[0].Tasks, 2)
	assert.Equal(t, "first", snapshot.Columns[0].Tasks[0].Title)
	assert.Equal(t, "second", snapshot.Columns[0].Tasks[1].Title)
	require.Len(t, snapshot.Columns[1].Tasks, 1)
}

func Test_GetBoardSnapshot_WhenMissing_ReturnsNotFound(t *testing.T) {
	router, _ := createTestRouter()

	test_utils.MakeGetRequest(t, router, "/api/v1/boards/"+uuid.New().String()+"/full", http.StatusNotFound)
}

func Test_GetBoardSnapshot_WithCache_ServesCachedUntilInvalidated(t *testing.T) {
	service, store := createTestService()
	snapshotCache := newMapSnapshotCache()
	service.WithSnapshotCache(snapshotCache)
	ctx := context.Background()

	project := storagetest.CreateProject(t, store, "P")
	board := storagetest.CreateBoard(t, store, project.ID, "B")

	first, err := service.GetBoardSnapshot(ctx, board.ID)
	require.NoError(t, err)
	assert.Empty(t, first.Columns)

	storagetest.CreateColumn(t, store, board.ID, "Late", 0)

	cached, err := service.GetBoardSnapshot(ctx, board.ID)
	require.NoError(t, err)
	assert.Empty(t, cached.Columns)

	service.InvalidateSnapshot(ctx, board.ID)

	fresh, err := service.GetBoardSnapshot(ctx, board.ID)
	require.NoError(t, err)
	assert.Len(t, fresh.Columns, 1)
}

func Test_UpdateBoard_WithEmptyName_ReturnsBadRequest(t *testing.T) {
	router, store := createTestRouter()
	project := storagetest.CreateProject(t, store, "P")
	board := storagetest.CreateBoard(t, store, project.ID, "B")

	empty := " "
	test_utils.MakePutRequest(t, router, "/api/v1/boards/"+board.ID.String(),
		UpdateBoardRequest{Name: &empty}, http.StatusBadRequest)
}

func Test_DeleteBoard_RemovesColumnsAndTasksButKeepsProject(t *testing.T) {
	router, store := createTestRouter()
	ctx := context.Background()
	project := storagetest.CreateProject(t, store, "P")
	board := storagetest.CreateBoard(t, store, project.ID, "B")
	column := storagetest.CreateColumn(t, store, board.ID, "To Do", 0)
	storagetest.CreateTask(t, store, column, "A", 0)

	test_utils.MakeDeleteRequest(t, router, "/api/v1/boards/"+board.ID.String(), http.StatusNoContent)
	test_utils.MakeDeleteRequest(t, router, "/api/v1/boards/"+board.ID.String(), http.StatusNotFound)

	columns, err := store.Columns().FindByBoardID(ctx, board.ID)
	require.NoError(t, err)
	assert.Empty(t, columns)

	tasks, err := store.Tasks().FindByBoardID(ctx, board.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	stillThere, err := store.Projects().FindByID(ctx, project.ID)
	require.NoError(t, err)
	assert.NotNil(t, stillThere)
}

type mapSnapshotCache struct {
	mu    sync.Mutex
	items map[string]*BoardSnapshot
}

func newMapSnapshotCache() *mapSnapshotCache {
	return &mapSnapshotCache{items: make(map[string]*BoardSnapshot)}
}

func (c *mapSnapshotCache) Get(_ context.Context, key string) *BoardSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.items[key]
}

func (c *mapSnapshotCache) Set(_ context.Context, key string, snapshot *BoardSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = snapshot
}

func (c *mapSnapshotCache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// lateWriteStore runs afterTaskRead once, right after a board's tasks were
// read, so the write lands while a snapshot is being assembled.
type lateWriteStore struct {
	storage.Store
	afterTaskRead func()
}

func (s *lateWriteStore) Tasks() storage.TaskRepository {
	return &hookedTaskRepository{TaskRepository: s.Store.Tasks(), store: s}
}

type hookedTaskRepository struct {
	storage.TaskRepository
	store *lateWriteStore
}

func (r *hookedTaskRepository) FindByBoardID(ctx context.Context, boardID uuid.UUID) ([]*models.Task, error) {
	tasks, err := r.TaskRepository.FindByBoardID(ctx, boardID)

	if hook := r.store.afterTaskRead; hook != nil {
		r.store.afterTaskRead = nil
		hook()
	}

	return tasks, err
}

func Test_GetBoardSnapshot_WhenInvalidatedDuringLoad_DoesNotCacheStaleSnapshot(t *testing.T) {
	inner := memstore.New()
	store := &lateWriteStore{Store: inner}
	coordinator := cascade.NewCoordinator(inner, config.ColumnDeletePolicyBlock, logger.GetLogger())
	service := NewBoardService(store, coordinator, events.Nop{}, logger.GetLogger()).
		WithSnapshotCache(newMapSnapshotCache())
	ctx := context.Background()

	project := storagetest.CreateProject(t, inner, "P")
	board := storagetest.CreateBoard(t, inner, project.ID, "B")
	column := storagetest.CreateColumn(t, inner, board.ID, "To Do", 0)

	store.afterTaskRead = func() {
		storagetest.CreateTask(t, inner, column, "Created mid-load", 0)
		service.InvalidateSnapshot(ctx, board.ID)
	}

	first, err := service.GetBoardSnapshot(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, first.Columns, 1)
	assert.Empty(t, first.Columns[0].Tasks)

	next, err := service.GetBoardSnapshot(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, next.Columns, 1)
	require.Len(t, next.Columns[0].Tasks, 1)
	assert.Equal(t, "Created mid-load", next.Columns[0].Tasks[0].Title)
}
