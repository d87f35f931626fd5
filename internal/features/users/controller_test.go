package users

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"kanban/internal/config"
	"kanban/internal/features/cascade"
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

func createTestRouter() (*gin.Engine, storage.Store) {
	store := memstore.New()
	coordinator := cascade.NewCoordinator(store, config.ColumnDeletePolicyBlock, logger.GetLogger())
	service := NewUserService(store, coordinator, logger.GetLogger())

	return test_utils.CreateTestRouter(NewUserController(service)), store
}

func Test_CreateUser_WithValidData_UserCreated(t *testing.T) {
	router, _ := createTestRouter()

	var user models.User
	test_utils.MakePostRequestAndUnmarshal(t, router, "/api/v1/users",
		CreateUserRequest{Name: "Ada", Email: "  Ada@Example.com "}, http.StatusCreated, &user)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Nil(t, user.Avatar)
}

func Test_CreateUser_WithDuplicateEmailDifferentCase_ReturnsBadRequest(t *testing.T) {
	router, store := createTestRouter()
	storagetest.CreateUser(t, store, "taken@example.com")

	resp := test_utils.MakePostRequest(t, router, "/api/v1/users",
		CreateUserRequest{Name: "Copy", Email: "TAKEN@example.com"}, http.StatusBadRequest)

	assert.Contains(t, string(resp.Body), "already exists")
}

func Test_CreateUser_WithInvalidInput_ReturnsBadRequest(t *testing.T) {
	router, _ := createTestRouter()

	requests := []CreateUserRequest{
		{Name: "", Email: "a@example.com"},
		{Name: "No email", Email: ""},
		{Name: "Bad email", Email: "not-an-email"},
	}

	for _, request := range requests {
		test_utils.MakePostRequest(t, router, "/api/v1/users", request, http.StatusBadRequest)
	}
}

func Test_UpdateUser_WithEmptyAvatar_ClearsAvatar(t *testing.T) {
	router, store := createTestRouter()

	avatar := "https://example.com/a.png"
	user, err := store.Users().Create(context.Background(), &models.User{Name: "A", Email: "a@example.com", Avatar: &avatar})
	require.NoError(t, err)

	empty := ""
	var updated models.User
	test_utils.MakePutRequestAndUnmarshal(t, router, "/api/v1/users/"+user.ID.String(),
		UpdateUserRequest{Avatar: &empty}, http.StatusOK, &updated)

	assert.Nil(t, updated.Avatar)
	assert.Equal(t, "A", updated.Name)
}

func Test_UpdateUser_WhenMissing_ReturnsNotFound(t *testing.T) {
	router, _ := createTestRouter()

	name := "Ghost"
	test_utils.MakePutRequest(t, router, "/api/v1/users/"+uuid.New().String(),
		UpdateUserRequest{Name: &name}, http.StatusNotFound)
}

func Test_GetUser_WithMalformedID_ReturnsBadRequest(t *testing.T) {
	router, _ := createTestRouter()

	resp := test_utils.MakeGetRequest(t, router, "/api/v1/users/not-a-uuid", http.StatusBadRequest)
	assert.Contains(t, string(resp.Body), "Invalid user ID")
}

func Test_DeleteUser_WithAssignedTasks_TasksKeptAndUnassigned(t *testing.T) {
	router, store := createTestRouter()
	ctx := context.Background()

	user := storagetest.CreateUser(t, store, "gone@example.com")
	column := storagetest.CreateColumn(t, store, uuid.New(), "Todo", 0)
	task := storagetest.CreateTask(t, store, column, "assigned", 0)
	_, err := store.Tasks().Update(ctx, task.ID, models.TaskPatch{AssigneeID: &user.ID})
	require.NoError(t, err)

	test_utils.MakeDeleteRequest(t, router, fmt.Sprintf("/api/v1/users/%s", user.ID), http.StatusNoContent)

	found, err := store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Nil(t, found.AssigneeID)

	test_utils.MakeGetRequest(t, router, "/api/v1/users/"+user.ID.String(), http.StatusNotFound)
}

func Test_GetUsers_ReturnsCreatedUsers(t *testing.T) {
	router, store := createTestRouter()
	storagetest.CreateUser(t, store, "one@example.com")
	storagetest.CreateUser(t, store, "two@example.com")

	var users []models.User
	test_utils.MakeGetRequestAndUnmarshal(t, router, "/api/v1/users", http.StatusOK, &users)
	assert.Len(t, users, 2)
}
