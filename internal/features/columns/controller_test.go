package columns

import (
	"context"
	"net/http"
	"testing"

	"kanban/internal/config"
	"kanban/internal/features/cascade"
	"kanban/internal/features/events"
	"kanban/internal/features/ordering"
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

func createTestRouter(policy config.ColumnDeletePolicy) (*gin.Engine, storage.Store, *events.Bus) {
	store := memstore.New()
	log := logger.GetLogger()
	bus := events.NewBus(log)
	service := NewColumnService(
		store,
		ordering.NewEngine(store, log),
		cascade.NewCoordinator(store, policy, log),
		bus,
		log,
	)

	return test_utils.CreateTestRouter(NewColumnController(service)), store, bus
}

func createBoard(t *testing.T, store storage.Store) *models.Board {
	t.Helper()

	project := storagetest.CreateProject(t, store, "P")
	return storagetest.CreateBoard(t, store, project.ID, "B")
}

func Test_CreateColumn_WithoutPosition_AppendsInOrder(t *testing.T) {
	router, store, _ := createTestRouter(config.ColumnDeletePolicyBlock)
	board := createBoard(t, store)

	for i, name := range []string{"To Do", "Doing", "Done"} {
		var column models.Column
		test_utils.MakePostRequestAndUnmarshal(t, router, "/api/v1/columns",
			CreateColumnRequest{BoardID: board.ID, Name: name}, http.StatusCreated, &column)

		assert.Equal(t, i, column.Position)
		assert.Equal(t, models.DefaultColumnColor, column.Color)
	}

	var columns []models.Column
	test_utils.MakeGetRequestAndUnmarshal(t, router, "/api/v1/columns/board/"+board.ID.String(), http.StatusOK, &columns)

	require.Len(t, columns, 3)
	assert.Equal(t, "To Do", columns[0].Name)
	assert.Equal(t, "Done", columns[2].Name)
}

func Test_CreateColumn_AfterGap_UsesMaxPlusOne(t *testing.T) {
	router, store, _ := createTestRouter(config.ColumnDeletePolicyBlock)
	board := createBoard(t, store)
	storagetest.CreateColumn(t, store, board.ID, "A", 0)
	storagetest.CreateColumn(t, store, board.ID, "B", 7)

	var column models.Column
	test_utils.MakePostRequestAndUnmarshal(t, router, "/api/v1/columns",
		CreateColumnRequest{BoardID: board.ID, Name: "C"}, http.StatusCreated, &column)

	assert.Equal(t, 8, column.Position)
}

func Test_CreateColumn_WithInvalidInput_ReturnsBadRequest(t *testing.T) {
	router, store, _ := createTestRouter(config.ColumnDeletePolicyBlock)
	board := createBoard(t, store)
	badColor := "red"
	negative := -1

	requests := []CreateColumnRequest{
		{BoardID: board.ID, Name: ""},
		{BoardID: uuid.New(), Name: "Orphan"},
		{BoardID: board.ID, Name: "Color", Color: &badColor},
		{BoardID: board.ID, Name: "Negative", Position: &negative},
	}

	for _, request := range requests {
		test_utils.MakePostRequest(t, router, "/api/v1/columns", request, http.StatusBadRequest)
	}
}

func Test_ReorderColumns_WithValidIds_PositionsFollowIndex(t *testing.T) {
	router, store, bus := createTestRouter(config.ColumnDeletePolicyBlock)
	board := createBoard(t, store)
	a := storagetest.CreateColumn(t, store, board.ID, "A", 0)
	b := storagetest.CreateColumn(t, store, board.ID, "B", 1)
	c := storagetest.CreateColumn(t, store, board.ID, "C", 2)

	stream, cancel := bus.Subscribe(board.ID)
	defer cancel()

	resp := test_utils.MakePatchRequest(t, router, "/api/v1/columns/reorder",
		ReorderColumnsRequest{ColumnIDs: []uuid.UUID{c.ID, a.ID, b.ID}}, http.StatusOK)
	assert.JSONEq(t, `{"success":true}`, string(resp.Body))

	columns, err := store.Columns().FindByBoardID(context.Background(), board.ID)
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{columns[0].Name, columns[1].Name, columns[2].Name})
	assert.Equal(t, []int{0, 1, 2}, []int{columns[0].Position, columns[1].Position, columns[2].Position})

	select {
	case data := <-stream:
		assert.Contains(t, string(data), `"type":"reordered"`)
	default:
		t.Fatal("expected a reordered event")
	}
}

func Test_ReorderColumns_WithUnknownId_ReturnsBadRequestAndNothingChanges(t *testing.T) {
	router, store, _ := createTestRouter(config.ColumnDeletePolicyBlock)
	board := createBoard(t, store)
	a := storagetest.CreateColumn(t, store, board.ID, "A", 0)
	b := storagetest.CreateColumn(t, store, board.ID, "B", 1)

	test_utils.MakePatchRequest(t, router, "/api/v1/columns/reorder",
		ReorderColumnsRequest{ColumnIDs: []uuid.UUID{uuid.New(), b.ID, a.ID}}, http.StatusBadRequest)

	columns, err := store.Columns().FindByBoardID(context.Background(), board.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", columns[0].Name)
	assert.Equal(t, 0, columns[0].Position)
}

func Test_UpdateColumn_WithNewName_Renamed(t *testing.T) {
	router, store, _ := createTestRouter(config.ColumnDeletePolicyBlock)
	board := createBoard(t, store)
	column := storagetest.CreateColumn(t, store, board.ID, "A", 0)

	name := "Backlog"
	var updated models.Column
	test_utils.MakePutRequestAndUnmarshal(t, router, "/api/v1/columns/"+column.ID.String(),
		UpdateColumnRequest{Name: &name}, http.StatusOK, &updated)

	assert.Equal(t, "Backlog", updated.Name)
	assert.Equal(t, 0, updated.Position)

	test_utils.MakePutRequest(t, router, "/api/v1/columns/"+uuid.New().String(),
		UpdateColumnRequest{Name: &name}, http.StatusNotFound)
}

func Test_DeleteColumn_WithTasksUnderBlockPolicy_ReturnsBadRequest(t *testing.T) {
	router, store, _ := createTestRouter(config.ColumnDeletePolicyBlock)
	board := createBoard(t, store)
	column := storagetest.CreateColumn(t, store, board.ID, "A", 0)
	storagetest.CreateTask(t, store, column, "T", 0)

	resp := test_utils.MakeDeleteRequest(t, router, "/api/v1/columns/"+column.ID.String(), http.StatusBadRequest)
	assert.Contains(t, string(resp.Body), "cannot delete column")

	stillThere, err := store.Columns().FindByID(context.Background(), column.ID)
	require.NoError(t, err)
	assert.NotNil(t, stillThere)
}

func Test_DeleteColumn_WithTasksUnderCascadePolicy_DeletesTasks(t *testing.T) {
	router, store, _ := createTestRouter(config.ColumnDeletePolicyCascade)
	board := createBoard(t, store)
	column := storagetest.CreateColumn(t, store, board.ID, "A", 0)
	task := storagetest.CreateTask(t, store, column, "T", 0)

	test_utils.MakeDeleteRequest(t, router, "/api/v1/columns/"+column.ID.String(), http.StatusNoContent)

	gone, err := store.Tasks().FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func Test_ReorderColumns_WithoutIdList_ReturnsBadRequest(t *testing.T) {
	router, store, _ := createTestRouter(config.ColumnDeletePolicyBlock)
	board := createBoard(t, store)
	storagetest.CreateColumn(t, store, board.ID, "A", 3)

	test_utils.MakePatchRequest(t, router, "/api/v1/columns/reorder",
		map[string]any{}, http.StatusBadRequest)
	test_utils.MakePatchRequest(t, router, "/api/v1/columns/reorder",
		map[string]any{"columnIds": nil}, http.StatusBadRequest)
	test_utils.MakePatchRequest(t, router, "/api/v1/columns/reorder",
		map[string]any{"columnIds": "A"}, http.StatusBadRequest)

	columns, err := store.Columns().FindByBoardID(context.Background(), board.ID)
	require.NoError(t, err)
	require.Len(t, columns, 1)
	assert.Equal(t, 3, columns[0].Position)
}
