package projects

import (
	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Color       *string    `json:"color"`
	OwnerID     *uuid.UUID `json:"owner_id"`
}

// UpdateProjectRequest is a partial update. An empty description clears it.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}
