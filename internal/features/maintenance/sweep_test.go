package maintenance

import (
	"context"
	"testing"
	"time"

	"kanban/internal/features/events"
	"kanban/internal/features/ordering"
	"kanban/internal/models"
	"kanban/internal/storage"
	"kanban/internal/storage/memstore"
	"kanban/internal/storage/storagetest"
	"kanban/internal/util/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSweeper(store storage.Store, publisher events.Publisher) *SweeperBackgroundService {
	log := logger.GetLogger()
	return NewSweeperBackgroundService(store, ordering.NewEngine(store, log), publisher, time.Hour, log)
}

func Test_Sweep_WithOrphanedRows_RemovesThemParentFirst(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	user := storagetest.CreateUser(t, store, "u@example.com")
	project := storagetest.CreateProject(t, store, "P")
	board := storagetest.CreateBoard(t, store, project.ID, "B")
	column := storagetest.CreateColumn(t, store, board.ID, "To Do", 0)
	task := storagetest.CreateTask(t, store, column, "T", 0)
	_, err := store.Members().Create(ctx, &models.ProjectMember{
		ProjectID: project.ID, UserID: user.ID, Role: models.ProjectRoleOwner,
	})
	require.NoError(t, err)

	// the project row disappears while its descendants stay behind
	_, err = store.Projects().Delete(ctx, project.ID)
	require.NoError(t, err)

	report, err := createTestSweeper(store, events.Nop{}).ExecuteAllTasksForTest()
	require.NoError(t, err)

	assert.Equal(t, 1, report.Members)
	assert.Equal(t, 1, report.Boards)
	assert.Equal(t, 1, report.Columns)
	assert.Equal(t, 1, report.Tasks)

	gone, err := store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	stillThere, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stillThere)
}

func Test_Sweep_WithTaskOfMissingColumn_RemovesTaskAndRenumbersBoard(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	bus := events.NewBus(logger.GetLogger())

	project := storagetest.CreateProject(t, store, "P")
	board := storagetest.CreateBoard(t, store, project.ID, "B")
	todo := storagetest.CreateColumn(t, store, board.ID, "To Do", 0)
	storagetest.CreateTask(t, store, todo, "A", 0)
	storagetest.CreateTask(t, store, todo, "C", 4)

	orphan, err := store.Tasks().Create(ctx, &models.Task{
		BoardID:  board.ID,
		ColumnID: uuid.New(),
		Title:    "lost",
		Priority: models.PriorityLow,
	})
	require.NoError(t, err)

	stream, cancel := bus.Subscribe(board.ID)
	defer cancel()

	report, err := createTestSweeper(store, bus).ExecuteAllTasksForTest()
	require.NoError(t, err)

	assert.Equal(t, 1, report.Tasks)
	assert.Equal(t, 1, report.Renumbered)

	gone, err := store.Tasks().FindByID(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	tasks, err := store.Tasks().FindByColumnID(ctx, todo.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, 1, tasks[1].Position)

	select {
	case data := <-stream:
		assert.Contains(t, string(data), `"type":"updated"`)
	default:
		t.Fatal("expected a board updated event")
	}
}

func Test_Sweep_WithDanglingAssignee_ClearsAssignee(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	project := storagetest.CreateProject(t, store, "P")
	board := storagetest.CreateBoard(t, store, project.ID, "B")
	column := storagetest.CreateColumn(t, store, board.ID, "To Do", 0)

	ghost := uuid.New()
	task, err := store.Tasks().Create(ctx, &models.Task{
		BoardID:    board.ID,
		ColumnID:   column.ID,
		Title:      "T",
		Priority:   models.PriorityMedium,
		AssigneeID: &ghost,
	})
	require.NoError(t, err)

	report, err := createTestSweeper(store, events.Nop{}).ExecuteAllTasksForTest()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Unassigned)

	updated, err := store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Nil(t, updated.AssigneeID)
}

func Test_Sweep_WithConsistentData_ChangesNothing(t *testing.T) {
	store := memstore.New()

	project := storagetest.CreateProject(t, store, "P")
	board := storagetest.CreateBoard(t, store, project.ID, "B")
	column := storagetest.CreateColumn(t, store, board.ID, "To Do", 0)
	storagetest.CreateTask(t, store, column, "T", 3)

	report, err := createTestSweeper(store, events.Nop{}).ExecuteAllTasksForTest()
	require.NoError(t, err)

	assert.Zero(t, report.Total())
	assert.Zero(t, report.Renumbered)
}

func Test_Renumber_AllBoards_ClosesGaps(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	log := logger.GetLogger()

	project := storagetest.CreateProject(t, store, "P")
	first := storagetest.CreateBoard(t, store, project.ID, "First")
	second := storagetest.CreateBoard(t, store, project.ID, "Second")
	storagetest.CreateColumn(t, store, first.ID, "A", 3)
	column := storagetest.CreateColumn(t, store, second.ID, "B", 0)
	storagetest.CreateTask(t, store, column, "T", 9)

	changed, err := Renumber(ctx, store, ordering.NewEngine(store, log), nil, log)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	missing := uuid.New()
	_, err = Renumber(ctx, store, ordering.NewEngine(store, log), &missing, log)
	assert.Error(t, err)
}

// concurrentWriteStore runs beforeMembers once, right before the sweep reads
// memberships, after users and projects were already loaded.
type concurrentWriteStore struct {
	storage.Store
	beforeMembers func()
}

func (s *concurrentWriteStore) Members() storage.MemberRepository {
	return &hookedMemberRepository{MemberRepository: s.Store.Members(), store: s}
}

type hookedMemberRepository struct {
	storage.MemberRepository
	store *concurrentWriteStore
}

func (r *hookedMemberRepository) FindAll(ctx context.Context) ([]*models.ProjectMember, error) {
	if hook := r.store.beforeMembers; hook != nil {
		r.store.beforeMembers = nil
		hook()
	}

	return r.MemberRepository.FindAll(ctx)
}

func Test_Sweep_WhenRowsAreCreatedDuringSweep_KeepsThem(t *testing.T) {
	inner := memstore.New()
	ctx := context.Background()

	var (
		member *models.ProjectMember
		board  *models.Board
		column *models.Column
		task   *models.Task
	)

	store := &concurrentWriteStore{Store: inner}
	store.beforeMembers = func() {
		user := storagetest.CreateUser(t, inner, "late@example.com")
		project := storagetest.CreateProject(t, inner, "Late")

		var err error
		member, err = inner.Members().Create(ctx, &models.ProjectMember{
			ProjectID: project.ID, UserID: user.ID, Role: models.ProjectRoleOwner,
		})
		require.NoError(t, err)

		board = storagetest.CreateBoard(t, inner, project.ID, "B")
		column = storagetest.CreateColumn(t, inner, board.ID, "To Do", 0)
		task, err = inner.Tasks().Create(ctx, &models.Task{
			BoardID:    board.ID,
			ColumnID:   column.ID,
			Title:      "T",
			Priority:   models.PriorityMedium,
			AssigneeID: &user.ID,
		})
		require.NoError(t, err)
	}

	report, err := createTestSweeper(store, events.Nop{}).ExecuteAllTasksForTest()
	require.NoError(t, err)
	assert.Zero(t, report.Total())

	foundMember, err := inner.Members().FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.NotNil(t, foundMember)

	foundBoard, err := inner.Boards().FindByID(ctx, board.ID)
	require.NoError(t, err)
	assert.NotNil(t, foundBoard)

	foundColumn, err := inner.Columns().FindByID(ctx, column.ID)
	require.NoError(t, err)
	assert.NotNil(t, foundColumn)

	foundTask, err := inner.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, foundTask)
	assert.NotNil(t, foundTask.AssigneeID)
}
