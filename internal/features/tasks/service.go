package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kanban/internal/apperrors"
	"kanban/internal/features/events"
	"kanban/internal/features/ordering"
	"kanban/internal/models"
	"kanban/internal/storage"
	time_parser "kanban/internal/util/time"

	"github.com/google/uuid"
)

const entityTask = "task"

type TaskService struct {
	store     storage.Store
	engine    *ordering.Engine
	publisher events.Publisher
	logger    *slog.Logger
}

func NewTaskService(
	store storage.Store,
	engine *ordering.Engine,
	publisher events.Publisher,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		store:     store,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *TaskService) ListBoardTasks(ctx context.Context, boardID uuid.UUID) ([]*models.Task, error) {
	board, err := s.store.Boards().FindByID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	if board == nil {
		return nil, apperrors.NotFound("board not found")
	}

	tasks, err := s.store.Tasks().FindByBoardID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

func (s *TaskService) ListColumnTasks(ctx context.Context, columnID uuid.UUID) ([]*models.Task, error) {
	column, err := s.store.Columns().FindByID(ctx, columnID)
	if err != nil {
		return nil, fmt.Errorf("failed to load column: %w", err)
	}

	if column == nil {
		return nil, apperrors.NotFound("column not found")
	}

	tasks, err := s.store.Tasks().FindByColumnID(ctx, columnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if task == nil {
		return nil, apperrors.NotFound("task not found")
	}

	return task, nil
}

func (s *TaskService) CreateTask(ctx context.Context, request *CreateTaskRequest) (*models.Task, error) {
	title := strings.TrimSpace(request.Title)
	if title == "" {
		return nil, apperrors.Validation("title", "title is required")
	}

	priority := request.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	if !priority.IsValid() {
		return nil, apperrors.Validation("priority", "invalid priority %q", priority)
	}

	if request.Position != nil && *request.Position < 0 {
		return nil, apperrors.Validation("position", "position cannot be negative")
	}

	dueDate, err := parseDueDate(request.DueDate)
	if err != nil {
		return nil, err
	}

	if request.BoardID == uuid.Nil {
		return nil, apperrors.Validation("board_id", "board_id is required")
	}

	if request.ColumnID == uuid.Nil {
		return nil, apperrors.Validation("column_id", "column_id is required")
	}

	column, err := s.store.Columns().FindByID(ctx, request.ColumnID)
	if err != nil {
		return nil, fmt.Errorf("failed to load column: %w", err)
	}

	if column == nil {
		return nil, apperrors.Validation("column_id", "column not found")
	}

	if request.BoardID != column.BoardID {
		return nil, apperrors.Validation("column_id", "column does not belong to board %s", request.BoardID)
	}

	assigneeID, err := s.resolveAssignee(ctx, request.AssigneeID)
	if err != nil {
		return nil, err
	}

	position := 0
	if request.Position != nil {
		position = *request.Position
	} else {
		position, err = s.engine.NextTaskPosition(ctx, column.ID)
		if err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		BoardID:    column.BoardID,
		ColumnID:   column.ID,
		Title:      title,
		Priority:   priority,
		AssigneeID: assigneeID,
		Position:   position,
		DueDate:    dueDate,
	}
	if request.Description != nil && *request.Description != "" {
		task.Description = request.Description
	}

	created, err := s.store.Tasks().Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.publish(ctx, events.TypeCreated, created.BoardID, created.ColumnID, created)
	return created, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, request *UpdateTaskRequest) (*models.Task, error) {
	patch := models.TaskPatch{}

	if request.Title != nil {
		title := strings.TrimSpace(*request.Title)
		if title == "" {
			return nil, apperrors.Validation("title", "title cannot be empty")
		}
		patch.Title = &title
	}

	if request.Description != nil {
		if *request.Description == "" {
			patch.ClearDescription = true
		} else {
			patch.Description = request.Description
		}
	}

	if request.Priority != nil {
		if !request.Priority.IsValid() {
			return nil, apperrors.Validation("priority", "invalid priority %q", *request.Priority)
		}
		patch.Priority = request.Priority
	}

	if request.AssigneeID != nil {
		assigneeID, err := s.resolveAssignee(ctx, *request.AssigneeID)
		if err != nil {
			return nil, err
		}

		if assigneeID == nil {
			patch.ClearAssignee = true
		} else {
			patch.AssigneeID = assigneeID
		}
	}

	if request.DueDate != nil {
		dueDate, err := parseDueDate(*request.DueDate)
		if err != nil {
			return nil, err
		}

		if dueDate == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = dueDate
		}
	}

	task, err := s.store.Tasks().Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if task == nil {
		return nil, apperrors.NotFound("task not found")
	}

	s.publish(ctx, events.TypeUpdated, task.BoardID, task.ColumnID, task)
	return task, nil
}

// MoveTask moves a task into a column, appending it unless a position is
// given. Subscribers of the source board are told too when the move crosses
// boards.
func (s *TaskService) MoveTask(ctx context.Context, id uuid.UUID, request *MoveTaskRequest) (*models.Task, error) {
	if request.ColumnID == uuid.Nil {
		return nil, apperrors.Validation("column_id", "column_id is required")
	}

	result, err := s.engine.MoveTask(ctx, id, request.ColumnID, request.Position)
	if err != nil {
		return nil, err
	}

	payload := &MovedPayload{Task: result.Task, FromColumnID: result.FromColumnID}

	s.publish(ctx, events.TypeMoved, result.Task.BoardID, result.Task.ColumnID, payload)
	if result.FromBoardID != result.Task.BoardID {
		s.publish(ctx, events.TypeMoved, result.FromBoardID, result.FromColumnID, payload)
	}

	return result.Task, nil
}

func (s *TaskService) ReorderTasks(ctx context.Context, columnID uuid.UUID, ids []uuid.UUID) error {
	column, err := s.engine.ReorderTasks(ctx, columnID, ids)
	if err != nil {
		return err
	}

	s.publish(ctx, events.TypeReordered, column.BoardID, column.ID, ids)
	return nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.store.Tasks().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if !deleted {
		return apperrors.NotFound("task not found")
	}

	s.publish(ctx, events.TypeDeleted, task.BoardID, task.ColumnID, map[string]uuid.UUID{"id": task.ID})
	return nil
}

// resolveAssignee turns the raw assignee field into an id. Empty means none.
func (s *TaskService) resolveAssignee(ctx context.Context, raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.Validation("assignee_id", "assignee_id is not a valid id")
	}

	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignee: %w", err)
	}

	if user == nil {
		return nil, apperrors.Validation("assignee_id", "assignee not found")
	}

	return &id, nil
}

func (s *TaskService) publish(ctx context.Context, eventType events.Type, boardID, columnID uuid.UUID, payload any) {
	s.publisher.Publish(ctx, events.Event{
		Type:     eventType,
		Entity:   entityTask,
		BoardID:  boardID,
		ColumnID: &columnID,
		Payload:  payload,
	})
}

func parseDueDate(raw string) (*time.Time, error) {
	dueDate, err := time_parser.ParseDueDate(raw)
	if err != nil {
		return nil, apperrors.Validation("due_date", "due_date must be RFC3339 or YYYY-MM-DD")
	}

	return dueDate, nil
}
