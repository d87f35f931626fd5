package events

import (
	"net/http"
	"time"

	"kanban/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const heartbeatInterval = 25 * time.Second

type EventsController struct {
	bus    *Bus
	boards storage.BoardRepository
}

func NewEventsController(bus *Bus, boards storage.BoardRepository) *EventsController {
	return &EventsController{bus: bus, boards: boards}
}

func (c *EventsController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/boards/:id/events", c.StreamBoardEvents)
}

// StreamBoardEvents
// @Summary Stream board changes
// @Description Server-Sent Events stream of column and task changes on one board
// @Tags boards
// @Produce text/event-stream
// @Param id path string true "Board ID"
// @Success 200 {string} string "event stream"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /boards/{id}/events [get]
func (c *EventsController) StreamBoardEvents(ctx *gin.Context) {
	boardID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID"})
		return
	}

	board, err := c.boards.FindByID(ctx.Request.Context(), boardID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load board"})
		return
	}

	if board == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		return
	}

	flusher, ok := ctx.Writer.(http.Flusher)
	if !ok {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming is not supported"})
		return
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Status(http.StatusOK)

	messages, cancel := c.bus.Subscribe(boardID)
	defer cancel()

	_, _ = ctx.Writer.WriteString(": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Request.Context().Done():
			return
		case <-ticker.C:
			_, _ = ctx.Writer.WriteString(": ping\n\n")
			flusher.Flush()
		case msg, ok := <-messages:
			if !ok {
				return
			}

			_, _ = ctx.Writer.WriteString("data: ")
			_, _ = ctx.Writer.Write(msg)
			_, _ = ctx.Writer.WriteString("\n\n")
			flusher.Flush()
		}
	}
}
