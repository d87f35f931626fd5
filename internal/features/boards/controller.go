package boards

import (
	"net/http"

	http_utils "kanban/internal/util/http"

	"github.com/gin-gonic/gin"
)

type BoardController struct {
	boardService *BoardService
}

func NewBoardController(boardService *BoardService) *BoardController {
	return &BoardController{boardService: boardService}
}

func (c *BoardController) RegisterRoutes(router *gin.RouterGroup) {
	boardRoutes := router.Group("/boards")

	boardRoutes.GET("/project/:projectId", c.GetProjectBoards)
	boardRoutes.POST("", c.CreateBoard)
	boardRoutes.GET("/:id", c.GetBoard)
	boardRoutes.GET("/:id/full", c.GetBoardSnapshot)
	boardRoutes.PUT("/:id", c.UpdateBoard)
	boardRoutes.DELETE("/:id", c.DeleteBoard)
}

// GetProjectBoards
// @Summary List boards of a project
// @Tags boards
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} models.Board
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /boards/project/{projectId} [get]
func (c *BoardController) GetProjectBoards(ctx *gin.Context) {
	projectID, ok := http_utils.ParseIDParam(ctx, "projectId", "project")
	if !ok {
		return
	}

	boards, err := c.boardService.ListProjectBoards(ctx.Request.Context(), projectID)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve boards")
		return
	}

	ctx.JSON(http.StatusOK, boards)
}

// CreateBoard
// @Summary Create a new board
// @Tags boards
// @Accept json
// @Produce json
// @Param request body CreateBoardRequest true "Board creation data"
// @Success 201 {object} models.Board
// @Failure 400 {object} map[string]string
// @Router /boards [post]
func (c *BoardController) CreateBoard(ctx *gin.Context) {
	var request CreateBoardRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	board, err := c.boardService.CreateBoard(ctx.Request.Context(), &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to create board")
		return
	}

	ctx.JSON(http.StatusCreated, board)
}

// GetBoard
// @Summary Get board details
// @Tags boards
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {object} models.Board
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /boards/{id} [get]
func (c *BoardController) GetBoard(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "board")
	if !ok {
		return
	}

	board, err := c.boardService.GetBoard(ctx.Request.Context(), id)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve board")
		return
	}

	ctx.JSON(http.StatusOK, board)
}

// GetBoardSnapshot
// @Summary Get board with columns and tasks
// @Description Columns and their tasks are ordered by position
// @Tags boards
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {object} BoardSnapshot
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /boards/{id}/full [get]
func (c *BoardController) GetBoardSnapshot(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "board")
	if !ok {
		return
	}

	snapshot, err := c.boardService.GetBoardSnapshot(ctx.Request.Context(), id)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve board")
		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

// UpdateBoard
// @Summary Update board
// @Description Partial update, an empty description clears it
// @Tags boards
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param request body UpdateBoardRequest true "Fields to change"
// @Success 200 {object} models.Board
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /boards/{id} [put]
func (c *BoardController) UpdateBoard(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "board")
	if !ok {
		return
	}

	var request UpdateBoardRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	board, err := c.boardService.UpdateBoard(ctx.Request.Context(), id, &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to update board")
		return
	}

	ctx.JSON(http.StatusOK, board)
}

// DeleteBoard
// @Summary Delete board
// @Description Deletes the board with its columns and tasks
// @Tags boards
// @Param id path string true "Board ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /boards/{id} [delete]
func (c *BoardController) DeleteBoard(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "board")
	if !ok {
		return
	}

	if _, err := c.boardService.DeleteBoard(ctx.Request.Context(), id); err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to delete board")
		return
	}

	ctx.Status(http.StatusNoContent)
}
