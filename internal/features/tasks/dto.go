package tasks

import (
	"kanban/internal/models"

	"github.com/google/uuid"
)

// CreateTaskRequest appends the task to its column when Position is omitted.
// An empty assignee_id means unassigned.
type CreateTaskRequest struct {
	BoardID     uuid.UUID       `json:"board_id"`
	ColumnID    uuid.UUID       `json:"column_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Priority    models.Priority `json:"priority"`
	AssigneeID  string          `json:"assignee_id"`
	DueDate     string          `json:"due_date"`
	Position    *int            `json:"position"`
}

// UpdateTaskRequest is a partial update. Empty strings clear description,
// assignee and due date.
type UpdateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *models.Priority `json:"priority"`
	AssigneeID  *string          `json:"assignee_id"`
	DueDate     *string          `json:"due_date"`
}

type MoveTaskRequest struct {
	ColumnID uuid.UUID `json:"column_id"`
	Position *int      `json:"position"`
}

type ReorderTasksRequest struct {
	TaskIDs []uuid.UUID `json:"taskIds" binding:"required"`
}

type MovedPayload struct {
	Task         *models.Task `json:"task"`
	FromColumnID uuid.UUID    `json:"from_column_id"`
}
