package projects

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"kanban/internal/apperrors"
	"kanban/internal/features/cascade"
	"kanban/internal/features/events"
	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type ProjectService struct {
	store     storage.Store
	cascade   *cascade.Coordinator
	publisher events.Publisher
	logger    *slog.Logger
}

func NewProjectService(
	store storage.Store,
	coordinator *cascade.Coordinator,
	publisher events.Publisher,
	logger *slog.Logger,
) *ProjectService {
	return &ProjectService{
		store:     store,
		cascade:   coordinator,
		publisher: publisher,
		logger:    logger,
	}
}

// ListProjects returns every project, newest first.
func (s *ProjectService) ListProjects(ctx context.Context) ([]*models.Project, error) {
	projects, err := s.store.Projects().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.store.Projects().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if project == nil {
		return nil, apperrors.NotFound("project not found")
	}

	return project, nil
}

// CreateProject stores the project and, when an owner is given, an owner
// membership. A failed membership removes the project again.
func (s *ProjectService) CreateProject(ctx context.Context, request *CreateProjectRequest) (*models.Project, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, apperrors.Validation("name", "name is required")
	}

	color := models.DefaultProjectColor
	if request.Color != nil && *request.Color != "" {
		if !colorPattern.MatchString(*request.Color) {
			return nil, apperrors.Validation("color", "color must be a hex value like #3b82f6")
		}
		color = *request.Color
	}

	if request.OwnerID != nil {
		owner, err := s.store.Users().FindByID(ctx, *request.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load owner: %w", err)
		}

		if owner == nil {
			return nil, apperrors.Validation("owner_id", "owner user not found")
		}
	}

	project := &models.Project{Name: name, Color: color}
	if request.Description != nil && *request.Description != "" {
		project.Description = request.Description
	}

	created, err := s.store.Projects().Create(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if request.OwnerID != nil {
		_, err := s.store.Members().Create(ctx, &models.ProjectMember{
			ProjectID: created.ID,
			UserID:    *request.OwnerID,
			Role:      models.ProjectRoleOwner,
		})
		if err != nil {
			if _, deleteErr := s.store.Projects().Delete(ctx, created.ID); deleteErr != nil {
				s.logger.Error("failed to remove project after owner membership failure",
					slog.String("projectId", created.ID.String()),
					slog.String("error", deleteErr.Error()))
			}

			return nil, fmt.Errorf("failed to add project owner: %w", err)
		}
	}

	s.logger.Info("Project created", slog.String("projectId", created.ID.String()))
	return created, nil
}

func (s *ProjectService) UpdateProject(
	ctx context.Context,
	id uuid.UUID,
	request *UpdateProjectRequest,
) (*models.Project, error) {
	patch := models.ProjectPatch{}

	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		if name == "" {
			return nil, apperrors.Validation("name", "name cannot be empty")
		}
		patch.Name = &name
	}

	if request.Description != nil {
		if *request.Description == "" {
			patch.ClearDescription = true
		} else {
			patch.Description = request.Description
		}
	}

	if request.Color != nil {
		if !colorPattern.MatchString(*request.Color) {
			return nil, apperrors.Validation("color", "color must be a hex value like #3b82f6")
		}
		patch.Color = request.Color
	}

	project, err := s.store.Projects().Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	if project == nil {
		return nil, apperrors.NotFound("project not found")
	}

	return project, nil
}

// DeleteProject removes memberships, boards with their columns and tasks, and
// the project. Live board subscribers are told their board is gone.
func (s *ProjectService) DeleteProject(ctx context.Context, id uuid.UUID) (*cascade.Report, error) {
	boards, err := s.store.Boards().FindByProjectID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load project boards: %w", err)
	}

	report, err := s.cascade.DeleteProject(ctx, id)
	if err != nil {
		return report, err
	}

	for _, board := range boards {
		s.publisher.Publish(ctx, events.Event{Type: events.TypeDeleted, Entity: "board", BoardID: board.ID})
	}

	s.logger.Info("Project deleted",
		slog.String("projectId", id.String()),
		slog.Int("boards", report.Deleted[cascade.EntityBoard]),
		slog.Int("failures", len(report.Failures)))

	return report, nil
}
