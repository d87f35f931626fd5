package columns

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"kanban/internal/apperrors"
	"kanban/internal/features/cascade"
	"kanban/internal/features/events"
	"kanban/internal/features/ordering"
	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
)

const entityColumn = "column"

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type ColumnService struct {
	store     storage.Store
	engine    *ordering.Engine
	cascade   *cascade.Coordinator
	publisher events.Publisher
	logger    *slog.Logger
}

func NewColumnService(
	store storage.Store,
	engine *ordering.Engine,
	coordinator *cascade.Coordinator,
	publisher events.Publisher,
	logger *slog.Logger,
) *ColumnService {
	return &ColumnService{
		store:     store,
		engine:    engine,
		cascade:   coordinator,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *ColumnService) ListBoardColumns(ctx context.Context, boardID uuid.UUID) ([]*models.Column, error) {
	board, err := s.store.Boards().FindByID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	if board == nil {
		return nil, apperrors.NotFound("board not found")
	}

	columns, err := s.store.Columns().FindByBoardID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}

	return columns, nil
}

func (s *ColumnService) CreateColumn(ctx context.Context, request *CreateColumnRequest) (*models.Column, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, apperrors.Validation("name", "name is required")
	}

	color, err := resolveColor(request.Color, models.DefaultColumnColor)
	if err != nil {
		return nil, err
	}

	if request.Position != nil && *request.Position < 0 {
		return nil, apperrors.Validation("position", "position cannot be negative")
	}

	if request.BoardID == uuid.Nil {
		return nil, apperrors.Validation("board_id", "board_id is required")
	}

	board, err := s.store.Boards().FindByID(ctx, request.BoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	if board == nil {
		return nil, apperrors.Validation("board_id", "board not found")
	}

	position := 0
	if request.Position != nil {
		position = *request.Position
	} else {
		position, err = s.engine.NextColumnPosition(ctx, board.ID)
		if err != nil {
			return nil, err
		}
	}

	column, err := s.store.Columns().Create(ctx, &models.Column{
		BoardID:  board.ID,
		Name:     name,
		Color:    color,
		Position: position,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create column: %w", err)
	}

	s.publish(ctx, events.TypeCreated, column, column)
	return column, nil
}

func (s *ColumnService) UpdateColumn(
	ctx context.Context,
	id uuid.UUID,
	request *UpdateColumnRequest,
) (*models.Column, error) {
	patch := models.ColumnPatch{}

	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		if name == "" {
			return nil, apperrors.Validation("name", "name cannot be empty")
		}
		patch.Name = &name
	}

	if request.Color != nil {
		color, err := resolveColor(request.Color, models.DefaultColumnColor)
		if err != nil {
			return nil, err
		}
		patch.Color = &color
	}

	if request.Position != nil {
		if *request.Position < 0 {
			return nil, apperrors.Validation("position", "position cannot be negative")
		}
		patch.Position = request.Position
	}

	column, err := s.store.Columns().Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update column: %w", err)
	}

	if column == nil {
		return nil, apperrors.NotFound("column not found")
	}

	s.publish(ctx, events.TypeUpdated, column, column)
	return column, nil
}

// ReorderColumns sets each listed column's position to its index in ids.
func (s *ColumnService) ReorderColumns(ctx context.Context, ids []uuid.UUID) error {
	boardID, err := s.engine.ReorderColumns(ctx, ids)
	if err != nil {
		return err
	}

	if boardID == uuid.Nil {
		return nil
	}

	s.publisher.Publish(ctx, events.Event{
		Type:    events.TypeReordered,
		Entity:  entityColumn,
		BoardID: boardID,
		Payload: ids,
	})

	return nil
}

// DeleteColumn follows the configured column delete policy.
func (s *ColumnService) DeleteColumn(ctx context.Context, id uuid.UUID) (*cascade.Report, error) {
	column, err := s.store.Columns().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load column: %w", err)
	}

	if column == nil {
		return nil, apperrors.NotFound("column not found")
	}

	report, err := s.cascade.DeleteColumn(ctx, id)
	if err != nil {
		return report, err
	}

	s.publish(ctx, events.TypeDeleted, column, nil)

	s.logger.Info("Column deleted",
		slog.String("columnId", id.String()),
		slog.Int("tasks", report.Deleted[cascade.EntityTask]))

	return report, nil
}

func (s *ColumnService) publish(ctx context.Context, eventType events.Type, column *models.Column, payload any) {
	columnID := column.ID
	s.publisher.Publish(ctx, events.Event{
		Type:     eventType,
		Entity:   entityColumn,
		BoardID:  column.BoardID,
		ColumnID: &columnID,
		Payload:  payload,
	})
}

func resolveColor(color *string, fallback string) (string, error) {
	if color == nil || *color == "" {
		return fallback, nil
	}

	if !colorPattern.MatchString(*color) {
		return "", apperrors.Validation("color", "color must be a hex value like #6b7280")
	}

	return *color, nil
}
