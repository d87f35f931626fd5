package members

import (
	"kanban/internal/models"

	"github.com/google/uuid"
)

type AddMemberRequest struct {
	UserID uuid.UUID          `json:"user_id"`
	Role   models.ProjectRole `json:"role"`
}

type UpdateMemberRoleRequest struct {
	Role models.ProjectRole `json:"role"`
}

// MemberResponse is a membership joined with its user for display. User is
// nil when the user row is gone and the sweeper has not caught up yet.
type MemberResponse struct {
	models.ProjectMember
	User *models.User `json:"user,omitempty"`
}

type UserProjectResponse struct {
	models.ProjectMember
	Project *models.Project `json:"project,omitempty"`
}
