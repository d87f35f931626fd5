// Package ordering assigns and maintains the position of columns within a
// board and of tasks within a column.
//
// New siblings are appended at max(position)+1, or 0 for an empty parent.
// Batch reorders and moves run inside Store.WithinTx: relational backends
// apply them atomically, document backends keep whatever was written before a
// failure. Gaps and duplicate positions are tolerated; readers sort by
// position and fall back to creation order.
package ordering

import (
	"context"
	"fmt"
	"log/slog"

	"kanban/internal/apperrors"
	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
)

type Engine struct {
	store  storage.Store
	logger *slog.Logger
}

func NewEngine(store storage.Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

func (e *Engine) NextColumnPosition(ctx context.Context, boardID uuid.UUID) (int, error) {
	columns, err := e.store.Columns().FindByBoardID(ctx, boardID)
	if err != nil {
		return 0, fmt.Errorf("failed to load columns: %w", err)
	}

	return nextPosition(columns), nil
}

func (e *Engine) NextTaskPosition(ctx context.Context, columnID uuid.UUID) (int, error) {
	tasks, err := e.store.Tasks().FindByColumnID(ctx, columnID)
	if err != nil {
		return 0, fmt.Errorf("failed to load tasks: %w", err)
	}

	return nextPosition(tasks), nil
}

// ReorderColumns gives every listed column position = its index. All ids must
// exist and belong to one board. The affected board id is returned.
func (e *Engine) ReorderColumns(ctx context.Context, columnIDs []uuid.UUID) (uuid.UUID, error) {
	if err := checkDistinct("columnIds", columnIDs); err != nil {
		return uuid.Nil, err
	}

	if len(columnIDs) == 0 {
		return uuid.Nil, nil
	}

	var boardID uuid.UUID

	err := e.store.WithinTx(ctx, func(tx storage.Store) error {
		columns := make([]*models.Column, len(columnIDs))

		for i, id := range columnIDs {
			column, err := tx.Columns().FindByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load column: %w", err)
			}

			if column == nil {
				return apperrors.Validation("columnIds", "column %s not found", id)
			}

			if i == 0 {
				boardID = column.BoardID
			} else if column.BoardID != boardID {
				return apperrors.Validation("columnIds", "columns must belong to the same board")
			}

			columns[i] = column
		}

		for index, column := range columns {
			if column.Position == index {
				continue
			}

			if _, err := tx.Columns().Update(ctx, column.ID, models.ColumnPatch{Position: &index}); err != nil {
				return fmt.Errorf("failed to reposition column %s: %w", column.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return boardID, nil
}

// ReorderTasks gives every listed task of the column position = its index.
func (e *Engine) ReorderTasks(ctx context.Context, columnID uuid.UUID, taskIDs []uuid.UUID) (*models.Column, error) {
	if err := checkDistinct("taskIds", taskIDs); err != nil {
		return nil, err
	}

	column, err := e.store.Columns().FindByID(ctx, columnID)
	if err != nil {
		return nil, fmt.Errorf("failed to load column: %w", err)
	}

	if column == nil {
		return nil, apperrors.NotFound("column not found")
	}

	err = e.store.WithinTx(ctx, func(tx storage.Store) error {
		tasks := make([]*models.Task, len(taskIDs))

		for i, id := range taskIDs {
			task, err := tx.Tasks().FindByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load task: %w", err)
			}

			if task == nil || task.ColumnID != columnID {
				return apperrors.Validation("taskIds", "task %s is not in column %s", id, columnID)
			}

			tasks[i] = task
		}

		for index, task := range tasks {
			if task.Position == index {
				continue
			}

			if _, err := tx.Tasks().Update(ctx, task.ID, models.TaskPatch{Position: &index}); err != nil {
				return fmt.Errorf("failed to reposition task %s: %w", task.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return column, nil
}

type MoveResult struct {
	Task         *models.Task
	FromColumnID uuid.UUID
	FromBoardID  uuid.UUID
}

// MoveTask places a task in columnID. Without a position the task is appended
// and nothing else changes. With a position the task is inserted at that
// index (clamped to the column length) and the destination is renumbered
// densely. The source column keeps its gap.
func (e *Engine) MoveTask(
	ctx context.Context,
	taskID uuid.UUID,
	columnID uuid.UUID,
	position *int,
) (*MoveResult, error) {
	result := &MoveResult{}

	err := e.store.WithinTx(ctx, func(tx storage.Store) error {
		task, err := tx.Tasks().FindByID(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}

		if task == nil {
			return apperrors.NotFound("task not found")
		}

		column, err := tx.Columns().FindByID(ctx, columnID)
		if err != nil {
			return fmt.Errorf("failed to load column: %w", err)
		}

		if column == nil {
			return apperrors.NotFound("column not found")
		}

		result.FromColumnID = task.ColumnID
		result.FromBoardID = task.BoardID

		siblings, err := tx.Tasks().FindByColumnID(ctx, columnID)
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}

		if position == nil {
			if task.ColumnID == columnID {
				result.Task = task
				return nil
			}

			next := nextPosition(siblings)
			moved, err := tx.Tasks().Update(ctx, task.ID, models.TaskPatch{
				ColumnID: &column.ID,
				BoardID:  &column.BoardID,
				Position: &next,
			})
			if err != nil {
				return fmt.Errorf("failed to move task: %w", err)
			}

			result.Task = moved
			return nil
		}

		ordered := insertAt(siblings, task, *position)

		for index, sibling := range ordered {
			if sibling.ID == task.ID {
				moved, err := tx.Tasks().Update(ctx, task.ID, models.TaskPatch{
					ColumnID: &column.ID,
					BoardID:  &column.BoardID,
					Position: &index,
				})
				if err != nil {
					return fmt.Errorf("failed to move task: %w", err)
				}

				result.Task = moved
				continue
			}

			if sibling.Position == index {
				continue
			}

			if _, err := tx.Tasks().Update(ctx, sibling.ID, models.TaskPatch{Position: &index}); err != nil {
				return fmt.Errorf("failed to reposition task %s: %w", sibling.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Task == nil {
		return nil, apperrors.NotFound("task not found")
	}

	return result, nil
}

// Normalize renumbers the board's columns and each column's tasks to 0..n-1
// in their current order. It returns how many records changed.
func (e *Engine) Normalize(ctx context.Context, boardID uuid.UUID) (int, error) {
	changed := 0

	err := e.store.WithinTx(ctx, func(tx storage.Store) error {
		columns, err := tx.Columns().FindByBoardID(ctx, boardID)
		if err != nil {
			return fmt.Errorf("failed to load columns: %w", err)
		}

		for index, column := range columns {
			if column.Position != index {
				if _, err := tx.Columns().Update(ctx, column.ID, models.ColumnPatch{Position: &index}); err != nil {
					return fmt.Errorf("failed to renumber column %s: %w", column.ID, err)
				}
				changed++
			}

			tasks, err := tx.Tasks().FindByColumnID(ctx, column.ID)
			if err != nil {
				return fmt.Errorf("failed to load tasks: %w", err)
			}

			for taskIndex, task := range tasks {
				if task.Position == taskIndex {
					continue
				}

				if _, err := tx.Tasks().Update(ctx, task.ID, models.TaskPatch{Position: &taskIndex}); err != nil {
					return fmt.Errorf("failed to renumber task %s: %w", task.ID, err)
				}
				changed++
			}
		}

		return nil
	})
	if err != nil {
		return changed, err
	}

	if changed > 0 {
		e.logger.Info("Positions normalized",
			slog.String("boardId", boardID.String()),
			slog.Int("changed", changed))
	}

	return changed, nil
}

func nextPosition[T models.Positioned](siblings []T) int {
	if len(siblings) == 0 {
		return 0
	}

	highest := siblings[0].GetPosition()
	for _, sibling := range siblings[1:] {
		highest = max(highest, sibling.GetPosition())
	}

	return highest + 1
}

// insertAt returns siblings without task, with task inserted at index.
func insertAt(siblings []*models.Task, task *models.Task, index int) []*models.Task {
	ordered := make([]*models.Task, 0, len(siblings)+1)
	for _, sibling := range siblings {
		if sibling.ID != task.ID {
			ordered = append(ordered, sibling)
		}
	}

	index = min(max(index, 0), len(ordered))

	ordered = append(ordered, nil)
	copy(ordered[index+1:], ordered[index:])
	ordered[index] = task

	return ordered
}

func checkDistinct(field string, ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return apperrors.Validation(field, "%s contains %s more than once", field, id)
		}
		seen[id] = struct{}{}
	}

	return nil
}
