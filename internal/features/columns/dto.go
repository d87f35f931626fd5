package columns

import (
	"github.com/google/uuid"
)

// CreateColumnRequest appends the column when Position is omitted.
type CreateColumnRequest struct {
	BoardID  uuid.UUID `json:"board_id"`
	Name     string    `json:"name"`
	Color    *string   `json:"color"`
	Position *int      `json:"position"`
}

type UpdateColumnRequest struct {
	Name     *string `json:"name"`
	Color    *string `json:"color"`
	Position *int    `json:"position"`
}

type ReorderColumnsRequest struct {
	ColumnIDs []uuid.UUID `json:"columnIds" binding:"required"`
}
