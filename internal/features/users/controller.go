package users

import (
	"net/http"

	http_utils "kanban/internal/util/http"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	userService *UserService
}

func NewUserController(userService *UserService) *UserController {
	return &UserController{userService: userService}
}

func (c *UserController) RegisterRoutes(router *gin.RouterGroup) {
	userRoutes := router.Group("/users")

	userRoutes.GET("", c.GetUsers)
	userRoutes.POST("", c.CreateUser)
	userRoutes.GET("/:id", c.GetUser)
	userRoutes.PUT("/:id", c.UpdateUser)
	userRoutes.DELETE("/:id", c.DeleteUser)
}

// GetUsers
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Failure 500 {object} map[string]string
// @Router /users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	users, err := c.userService.ListUsers(ctx.Request.Context())
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// CreateUser
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string
// @Router /users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var request CreateUserRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	user, err := c.userService.CreateUser(ctx.Request.Context(), &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to create user")
		return
	}

	ctx.JSON(http.StatusCreated, user)
}

// GetUser
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "user")
	if !ok {
		return
	}

	user, err := c.userService.GetUser(ctx.Request.Context(), id)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve user")
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// UpdateUser
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "user")
	if !ok {
		return
	}

	var request UpdateUserRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	user, err := c.userService.UpdateUser(ctx.Request.Context(), id, &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to update user")
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// DeleteUser
// @Summary Delete a user
// @Description Unassigns the user's tasks and removes their memberships
// @Tags users
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "user")
	if !ok {
		return
	}

	if _, err := c.userService.DeleteUser(ctx.Request.Context(), id); err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}
