package tasks

import (
	"net/http"

	http_utils "kanban/internal/util/http"

	"github.com/gin-gonic/gin"
)

type TaskController struct {
	taskService *TaskService
}

func NewTaskController(taskService *TaskService) *TaskController {
	return &TaskController{taskService: taskService}
}

func (c *TaskController) RegisterRoutes(router *gin.RouterGroup) {
	taskRoutes := router.Group("/tasks")

	taskRoutes.GET("/board/:boardId", c.GetBoardTasks)
	taskRoutes.GET("/column/:columnId", c.GetColumnTasks)
	taskRoutes.PATCH("/column/:columnId/reorder", c.ReorderTasks)
	taskRoutes.POST("", c.CreateTask)
	taskRoutes.GET("/:id", c.GetTask)
	taskRoutes.PUT("/:id", c.UpdateTask)
	taskRoutes.PATCH("/:id/move", c.MoveTask)
	taskRoutes.DELETE("/:id", c.DeleteTask)
}

// GetBoardTasks
// @Summary List board tasks
// @Tags tasks
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {array} models.Task
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tasks/board/{boardId} [get]
func (c *TaskController) GetBoardTasks(ctx *gin.Context) {
	boardID, ok := http_utils.ParseIDParam(ctx, "boardId", "board")
	if !ok {
		return
	}

	tasks, err := c.taskService.ListBoardTasks(ctx.Request.Context(), boardID)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve tasks")
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

// GetColumnTasks
// @Summary List column tasks
// @Description Tasks ordered by position
// @Tags tasks
// @Produce json
// @Param columnId path string true "Column ID"
// @Success 200 {array} models.Task
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tasks/column/{columnId} [get]
func (c *TaskController) GetColumnTasks(ctx *gin.Context) {
	columnID, ok := http_utils.ParseIDParam(ctx, "columnId", "column")
	if !ok {
		return
	}

	tasks, err := c.taskService.ListColumnTasks(ctx.Request.Context(), columnID)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve tasks")
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

// ReorderTasks
// @Summary Reorder tasks in a column
// @Description Sets each task's position to its index in taskIds
// @Tags tasks
// @Accept json
// @Produce json
// @Param columnId path string true "Column ID"
// @Param request body ReorderTasksRequest true "Task ids in the new order"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tasks/column/{columnId}/reorder [patch]
func (c *TaskController) ReorderTasks(ctx *gin.Context) {
	columnID, ok := http_utils.ParseIDParam(ctx, "columnId", "column")
	if !ok {
		return
	}

	var request ReorderTasksRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := c.taskService.ReorderTasks(ctx.Request.Context(), columnID, request.TaskIDs); err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to reorder tasks")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateTask
// @Summary Create a new task
// @Description Appends the task to its column unless position is given
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body CreateTaskRequest true "Task creation data"
// @Success 201 {object} models.Task
// @Failure 400 {object} map[string]string
// @Router /tasks [post]
func (c *TaskController) CreateTask(ctx *gin.Context) {
	var request CreateTaskRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	task, err := c.taskService.CreateTask(ctx.Request.Context(), &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to create task")
		return
	}

	ctx.JSON(http.StatusCreated, task)
}

// GetTask
// @Summary Get task details
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} models.Task
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tasks/{id} [get]
func (c *TaskController) GetTask(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "task")
	if !ok {
		return
	}

	task, err := c.taskService.GetTask(ctx.Request.Context(), id)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve task")
		return
	}

	ctx.JSON(http.StatusOK, task)
}

// UpdateTask
// @Summary Update task
// @Description Partial update, empty strings clear description, assignee and due date
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to change"
// @Success 200 {object} models.Task
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tasks/{id} [put]
func (c *TaskController) UpdateTask(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "task")
	if !ok {
		return
	}

	var request UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	task, err := c.taskService.UpdateTask(ctx.Request.Context(), id, &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to update task")
		return
	}

	ctx.JSON(http.StatusOK, task)
}

// MoveTask
// @Summary Move task to a column
// @Description Appends to the column, or inserts at position and renumbers the column
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body MoveTaskRequest true "Destination"
// @Success 200 {object} models.Task
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tasks/{id}/move [patch]
func (c *TaskController) MoveTask(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "task")
	if !ok {
		return
	}

	var request MoveTaskRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	task, err := c.taskService.MoveTask(ctx.Request.Context(), id, &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to move task")
		return
	}

	ctx.JSON(http.StatusOK, task)
}

// DeleteTask
// @Summary Delete task
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tasks/{id} [delete]
func (c *TaskController) DeleteTask(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "task")
	if !ok {
		return
	}

	if err := c.taskService.DeleteTask(ctx.Request.Context(), id); err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to delete task")
		return
	}

	ctx.Status(http.StatusNoContent)
}
