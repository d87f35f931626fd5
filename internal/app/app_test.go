package app

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"kanban/internal/config"
	"kanban/internal/features/boards"
	"kanban/internal/features/columns"
	"kanban/internal/features/members"
	"kanban/internal/features/projects"
	"kanban/internal/features/tasks"
	"kanban/internal/models"
	"kanban/internal/storage"
	"kanban/internal/storage/docstore"
	"kanban/internal/storage/filestore"
	"kanban/internal/storage/gormstore"
	"kanban/internal/storage/memstore"
	"kanban/internal/util/logger"
	test_utils "kanban/internal/util/testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendCase struct {
	name string
	open func(t *testing.T) storage.Store
}

var backendCases = []backendCase{
	{
		name: "memory",
		open: func(t *testing.T) storage.Store {
			return memstore.New()
		},
	},
	{
		name: "file",
		open: func(t *testing.T) storage.Store {
			driver, err := filestore.NewDriver(t.TempDir())
			require.NoError(t, err)
			return docstore.NewStore(driver)
		},
	},
	{
		name: "sqlite",
		open: func(t *testing.T) storage.Store {
			store, err := gormstore.Open(context.Background(), gormstore.DialectSqlite,
				filepath.Join(t.TempDir(), "kanban.db"))
			require.NoError(t, err)
			require.NoError(t, store.Migrate(context.Background(), logger.GetLogger()))
			return store
		},
	},
}

func testEnv() config.EnvVariables {
	return config.EnvVariables{
		IsTesting:          true,
		StorageBackend:     config.StorageBackendMemory,
		ColumnDeletePolicy: config.ColumnDeletePolicyBlock,
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		SweepInterval:      time.Hour,
	}
}

func createTestRouter(t *testing.T, store storage.Store) (*gin.Engine, *App) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	application := New(context.Background(), testEnv(), store, nil, logger.GetLogger())
	t.Cleanup(func() { _ = application.Close() })

	router := gin.New()
	application.RegisterRoutes(router.Group("/api/v1"))

	return router, application
}

func Test_BoardLifecycle_OnEveryBackend_KeepsPositionsAndCascades(t *testing.T) {
	for _, backend := range backendCases {
		t.Run(backend.name, func(t *testing.T) {
			router, _ := createTestRouter(t, backend.open(t))

			var project models.Project
			test_utils.MakePostRequestAndUnmarshal(t, router, "/api/v1/projects",
				projects.CreateProjectRequest{Name: "P"}, http.StatusCreated, &project)

			var board models.Board
			test_utils.MakePostRequestAndUnmarshal(t, router, "/api/v1/boards",
				boards.CreateBoardRequest{ProjectID: project.ID, Name: "B"}, http.StatusCreated, &board)

			columnsByName := make(map[string]models.Column)
			for i, name := range []string{"To Do", "Doing", "Done"} {
				var column models.Column
				test_utils.MakePostRequestAndUnmarshal(t, router, "/api/v1/columns",
					columns.CreateColumnRequest{BoardID: board.ID, Name: name}, http.StatusCreated, &column)
				assert.Equal(t, i, column.Position)
				columnsByName[name] = column
			}

			todo := columnsByName["To Do"]
			doing := columnsByName["Doing"]

			tasksByTitle := make(map[string]models.Task)
			for i, title := range []string{"A", "B", "C"} {
				var task models.Task
				test_utils.MakePostRequestAndUnmarshal(t, router, "/api/v1/tasks",
					tasks.CreateTaskRequest{BoardID: board.ID, ColumnID: todo.ID, Title: title},
					http.StatusCreated, &task)
				assert.Equal(t, i, task.Position)
				tasksByTitle[title] = task
			}

			test_utils.MakePatchRequest(t, router, "/api/v1/tasks/"+tasksByTitle["B"].ID.String()+"/move",
				tasks.MoveTaskRequest{ColumnID: doing.ID}, http.StatusOK)

			var doingTasks []models.Task
			test_utils.MakeGetRequestAndUnmarshal(t, router,
				"/api/v1/tasks/column/"+doing.ID.String(), http.StatusOK, &doingTasks)
			require.Len(t, doingTasks, 1)
			assert.Equal(t, "B", doingTasks[0].Title)
			assert.Equal(t, 0, doingTasks[0].Position)

			var todoTasks []models.Task
			test_utils.MakeGetRequestAndUnmarshal(t, router,
				"/api/v1/tasks/column/"+todo.ID.String(), http.StatusOK, &todoTasks)
			require.Len(t, todoTasks, 2)
			assert.Equal(t, "A", todoTasks[0].Title)
			assert.Equal(t, 0, todoTasks[0].Position)
			assert.Equal(t, "C", todoTasks[1].Title)
			assert.Equal(t, 2, todoTasks[1].Position)

			var snapshot boards.BoardSnapshot
			test_utils.MakeGetRequestAndUnmarshal(t, router,
				"/api/v1/boards/"+board.ID.String()+"/full", http.StatusOK, &snapshot)
			require.Len(t, snapshot.Columns, 3)
			assert.Len(t, snapshot.Columns[1].Tasks, 1)

			test_utils.MakeDeleteRequest(t, router, "/api/v1/boards/"+board.ID.String(), http.StatusNoContent)

			test_utils.MakeGetRequest(t, router, "/api/v1/projects/"+project.ID.String(), http.StatusOK)
			test_utils.MakeGetRequest(t, router, "/api/v1/boards/"+board.ID.String(), http.StatusNotFound)

			var remainingBoards []models.Board
			test_utils.MakeGetRequestAndUnmarshal(t, router,
				"/api/v1/boards/project/"+project.ID.String(), http.StatusOK, &remainingBoards)
			assert.Empty(t, remainingBoards)

			test_utils.MakeGetRequest(t, router, "/api/v1/columns/board/"+board.ID.String(), http.StatusNotFound)
			test_utils.MakeGetRequest(t, router, "/api/v1/tasks/column/"+todo.ID.String(), http.StatusNotFound)
		})
	}
}

func Test_AddMember_OnEveryBackend_SecondAddConflicts(t *testing.T) {
	for _, backend := range backendCases {
		t.Run(backend.name, func(t *testing.T) {
			router, application := createTestRouter(t, backend.open(t))
			ctx := context.Background()

			user, err := application.Store.Users().Create(ctx, &models.User{Name: "U", Email: "u@example.com"})
			require.NoError(t, err)
			project, err := application.Store.Projects().Create(ctx, &models.Project{
				Name:  "P",
				Color: models.DefaultProjectColor,
			})
			require.NoError(t, err)

			url := "/api/v1/members/project/" + project.ID.String()
			test_utils.MakePostRequest(t, router, url, members.AddMemberRequest{UserID: user.ID}, http.StatusCreated)
			test_utils.MakePostRequest(t, router, url, members.AddMemberRequest{UserID: user.ID}, http.StatusBadRequest)

			var listed []members.MemberResponse
			test_utils.MakeGetRequestAndUnmarshal(t, router, url, http.StatusOK, &listed)
			assert.Len(t, listed, 1)
		})
	}
}

func Test_DeleteUser_OnEveryBackend_TasksSurviveUnassigned(t *testing.T) {
	for _, backend := range backendCases {
		t.Run(backend.name, func(t *testing.T) {
			router, application := createTestRouter(t, backend.open(t))
			ctx := context.Background()
			store := application.Store

			user, err := store.Users().Create(ctx, &models.User{Name: "U", Email: "u@example.com"})
			require.NoError(t, err)
			project, err := store.Projects().Create(ctx, &models.Project{Name: "P", Color: models.DefaultProjectColor})
			require.NoError(t, err)
			board, err := store.Boards().Create(ctx, &models.Board{ProjectID: project.ID, Name: "B"})
			require.NoError(t, err)
			column, err := store.Columns().Create(ctx, &models.Column{
				BoardID: board.ID, Name: "C", Color: models.DefaultColumnColor,
			})
			require.NoError(t, err)
			task, err := store.Tasks().Create(ctx, &models.Task{
				BoardID:    board.ID,
				ColumnID:   column.ID,
				Title:      "T",
				Priority:   models.PriorityHigh,
				AssigneeID: &user.ID,
			})
			require.NoError(t, err)

			test_utils.MakeDeleteRequest(t, router, "/api/v1/users/"+user.ID.String(), http.StatusNoContent)

			var survived models.Task
			test_utils.MakeGetRequestAndUnmarshal(t, router, "/api/v1/tasks/"+task.ID.String(), http.StatusOK, &survived)
			assert.Nil(t, survived.AssigneeID)
			assert.Equal(t, models.PriorityHigh, survived.Priority)
		})
	}
}

func Test_RegisterRoutes_WhenRateLimitExceeded_ReturnsTooManyRequests(t *testing.T) {
	env := testEnv()
	env.RateLimitRPS = 0.001
	env.RateLimitBurst = 1

	gin.SetMode(gin.TestMode)
	application := New(context.Background(), env, memstore.New(), nil, logger.GetLogger())
	defer func() { _ = application.Close() }()

	router := gin.New()
	application.RegisterRoutes(router.Group("/api/v1"))

	body := projects.CreateProjectRequest{Name: "P"}
	test_utils.MakePostRequest(t, router, "/api/v1/projects", body, http.StatusCreated)
	test_utils.MakePostRequest(t, router, "/api/v1/projects", body, http.StatusTooManyRequests)
	test_utils.MakeGetRequest(t, router, "/api/v1/projects", http.StatusOK)
	test_utils.MakeGetRequest(t, router, "/api/v1/tasks/"+uuid.New().String(), http.StatusNotFound)
}
