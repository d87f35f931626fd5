package members

import (
	"context"
	"fmt"
	"log/slog"

	"kanban/internal/apperrors"
	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
)

type MemberService struct {
	store  storage.Store
	logger *slog.Logger
}

func NewMemberService(store storage.Store, logger *slog.Logger) *MemberService {
	return &MemberService{store: store, logger: logger}
}

func (s *MemberService) ListProjectMembers(ctx context.Context, projectID uuid.UUID) ([]*MemberResponse, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}

	members, err := s.store.Members().FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}

	responses := make([]*MemberResponse, 0, len(members))
	for _, member := range members {
		user, err := s.store.Users().FindByID(ctx, member.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load member user: %w", err)
		}

		responses = append(responses, &MemberResponse{ProjectMember: *member, User: user})
	}

	return responses, nil
}

// AddMember fails with a conflict when the user is already a member. The role
// defaults to member.
func (s *MemberService) AddMember(
	ctx context.Context,
	projectID uuid.UUID,
	request *AddMemberRequest,
) (*MemberResponse, error) {
	role := request.Role
	if role == "" {
		role = models.ProjectRoleMember
	}

	if !role.IsValid() {
		return nil, apperrors.Validation("role", "invalid role %q", role)
	}

	if request.UserID == uuid.Nil {
		return nil, apperrors.Validation("user_id", "user_id is required")
	}

	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}

	user, err := s.store.Users().FindByID(ctx, request.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	existing, err := s.store.Members().FindByProjectAndUser(ctx, projectID, request.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	if existing != nil {
		return nil, apperrors.Conflict("user is already a member of this project")
	}

	member, err := s.store.Members().Create(ctx, &models.ProjectMember{
		ProjectID: projectID,
		UserID:    request.UserID,
		Role:      role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.logger.Info("Project member added",
		slog.String("projectId", projectID.String()),
		slog.String("userId", request.UserID.String()),
		slog.String("role", string(role)))

	return &MemberResponse{ProjectMember: *member, User: user}, nil
}

func (s *MemberService) UpdateMemberRole(
	ctx context.Context,
	projectID uuid.UUID,
	userID uuid.UUID,
	request *UpdateMemberRoleRequest,
) (*models.ProjectMember, error) {
	if !request.Role.IsValid() {
		return nil, apperrors.Validation("role", "invalid role %q", request.Role)
	}

	member, err := s.findMembership(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Members().Update(ctx, member.ID, models.ProjectMemberPatch{Role: &request.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	if updated == nil {
		return nil, apperrors.NotFound("membership not found")
	}

	return updated, nil
}

// RemoveMember resolves the membership by its (project, user) pair first.
func (s *MemberService) RemoveMember(ctx context.Context, projectID uuid.UUID, userID uuid.UUID) error {
	member, err := s.findMembership(ctx, projectID, userID)
	if err != nil {
		return err
	}

	deleted, err := s.store.Members().Delete(ctx, member.ID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if !deleted {
		return apperrors.NotFound("membership not found")
	}

	s.logger.Info("Project member removed",
		slog.String("projectId", projectID.String()),
		slog.String("userId", userID.String()))

	return nil
}

func (s *MemberService) ListUserProjects(ctx context.Context, userID uuid.UUID) ([]*UserProjectResponse, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	members, err := s.store.Members().FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user projects: %w", err)
	}

	responses := make([]*UserProjectResponse, 0, len(members))
	for _, member := range members {
		project, err := s.store.Projects().FindByID(ctx, member.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to load project: %w", err)
		}

		if project == nil {
			continue
		}

		responses = append(responses, &UserProjectResponse{ProjectMember: *member, Project: project})
	}

	return responses, nil
}

// ListAssignableUsers returns the users that may be picked as task assignee.
// Viewers are excluded.
func (s *MemberService) ListAssignableUsers(ctx context.Context, projectID uuid.UUID) ([]*models.User, error) {
	members, err := s.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(members))
	for _, member := range members {
		if member.User == nil || !member.Role.CanBeAssigned() {
			continue
		}

		users = append(users, member.User)
	}

	return users, nil
}

func (s *MemberService) ensureProject(ctx context.Context, projectID uuid.UUID) error {
	project, err := s.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	if project == nil {
		return apperrors.NotFound("project not found")
	}

	return nil
}

func (s *MemberService) findMembership(
	ctx context.Context,
	projectID uuid.UUID,
	userID uuid.UUID,
) (*models.ProjectMember, error) {
	member, err := s.store.Members().FindByProjectAndUser(ctx, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	if member == nil {
		return nil, apperrors.NotFound("membership not found")
	}

	return member, nil
}
