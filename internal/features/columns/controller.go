package columns

import (
	"net/http"

	http_utils "kanban/internal/util/http"

	"github.com/gin-gonic/gin"
)

type ColumnController struct {
	columnService *ColumnService
}

func NewColumnController(columnService *ColumnService) *ColumnController {
	return &ColumnController{columnService: columnService}
}

func (c *ColumnController) RegisterRoutes(router *gin.RouterGroup) {
	columnRoutes := router.Group("/columns")

	columnRoutes.GET("/board/:boardId", c.GetBoardColumns)
	columnRoutes.POST("", c.CreateColumn)
	columnRoutes.PATCH("/reorder", c.ReorderColumns)
	columnRoutes.PUT("/:id", c.UpdateColumn)
	columnRoutes.DELETE("/:id", c.DeleteColumn)
}

// GetBoardColumns
// @Summary List board columns
// @Description Columns ordered by position
// @Tags columns
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {array} models.Column
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /columns/board/{boardId} [get]
func (c *ColumnController) GetBoardColumns(ctx *gin.Context) {
	boardID, ok := http_utils.ParseIDParam(ctx, "boardId", "board")
	if !ok {
		return
	}

	columns, err := c.columnService.ListBoardColumns(ctx.Request.Context(), boardID)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to retrieve columns")
		return
	}

	ctx.JSON(http.StatusOK, columns)
}

// CreateColumn
// @Summary Create a new column
// @Description Appends the column to the board unless position is given
// @Tags columns
// @Accept json
// @Produce json
// @Param request body CreateColumnRequest true "Column creation data"
// @Success 201 {object} models.Column
// @Failure 400 {object} map[string]string
// @Router /columns [post]
func (c *ColumnController) CreateColumn(ctx *gin.Context) {
	var request CreateColumnRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	column, err := c.columnService.CreateColumn(ctx.Request.Context(), &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to create column")
		return
	}

	ctx.JSON(http.StatusCreated, column)
}

// ReorderColumns
// @Summary Reorder columns
// @Description Sets each column's position to its index in columnIds
// @Tags columns
// @Accept json
// @Produce json
// @Param request body ReorderColumnsRequest true "Column ids in the new order"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Router /columns/reorder [patch]
func (c *ColumnController) ReorderColumns(ctx *gin.Context) {
	var request ReorderColumnsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := c.columnService.ReorderColumns(ctx.Request.Context(), request.ColumnIDs); err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to reorder columns")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateColumn
// @Summary Update column
// @Tags columns
// @Accept json
// @Produce json
// @Param id path string true "Column ID"
// @Param request body UpdateColumnRequest true "Fields to change"
// @Success 200 {object} models.Column
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /columns/{id} [put]
func (c *ColumnController) UpdateColumn(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "column")
	if !ok {
		return
	}

	var request UpdateColumnRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	column, err := c.columnService.UpdateColumn(ctx.Request.Context(), id, &request)
	if err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to update column")
		return
	}

	ctx.JSON(http.StatusOK, column)
}

// DeleteColumn
// @Summary Delete column
// @Description Fails while the column has tasks unless the cascade policy is configured
// @Tags columns
// @Param id path string true "Column ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /columns/{id} [delete]
func (c *ColumnController) DeleteColumn(ctx *gin.Context) {
	id, ok := http_utils.ParseIDParam(ctx, "id", "column")
	if !ok {
		return
	}

	if _, err := c.columnService.DeleteColumn(ctx.Request.Context(), id); err != nil {
		http_utils.RespondWithError(ctx, err, "Failed to delete column")
		return
	}

	ctx.Status(http.StatusNoContent)
}
