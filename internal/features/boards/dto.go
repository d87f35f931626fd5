package boards

import (
	"kanban/internal/models"

	"github.com/google/uuid"
)

type CreateBoardRequest struct {
	ProjectID   uuid.UUID `json:"project_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
}

// UpdateBoardRequest is a partial update. An empty description clears it.
type UpdateBoardRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// BoardSnapshot is a board with its columns and their tasks, all ordered by
// position.
type BoardSnapshot struct {
	Board   *models.Board     `json:"board"`
	Columns []*ColumnSnapshot `json:"columns"`
}

type ColumnSnapshot struct {
	models.Column
	Tasks []*models.Task `json:"tasks"`
}
