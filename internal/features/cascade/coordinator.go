// Package cascade removes a parent record together with everything that
// depends on it. Backends never cascade on their own, so children are removed
// (or detached) here before the parent.
//
// Cascades are best effort. A child that fails to delete is logged and
// recorded in the Report, the remaining children are still processed and the
// parent is still removed. Leftovers are picked up by the orphan sweeper.
package cascade

import (
	"context"
	"fmt"
	"log/slog"

	"kanban/internal/apperrors"
	"kanban/internal/config"
	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
)

type Coordinator struct {
	store  storage.Store
	policy config.ColumnDeletePolicy
	logger *slog.Logger
}

func NewCoordinator(store storage.Store, policy config.ColumnDeletePolicy, logger *slog.Logger) *Coordinator {
	return &Coordinator{store: store, policy: policy, logger: logger}
}

func (c *Coordinator) Policy() config.ColumnDeletePolicy {
	return c.policy
}

// DeleteBoard removes the board's tasks, then its columns, then the board.
func (c *Coordinator) DeleteBoard(ctx context.Context, boardID uuid.UUID) (*Report, error) {
	board, err := c.store.Boards().FindByID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	if board == nil {
		return nil, apperrors.NotFound("board not found")
	}

	report := newReport()
	if err := c.deleteBoard(ctx, boardID, report); err != nil {
		return report, err
	}

	return report, nil
}

// DeleteColumn applies the configured policy: block refuses while the column
// owns tasks, cascade deletes them first.
func (c *Coordinator) DeleteColumn(ctx context.Context, columnID uuid.UUID) (*Report, error) {
	column, err := c.store.Columns().FindByID(ctx, columnID)
	if err != nil {
		return nil, fmt.Errorf("failed to load column: %w", err)
	}

	if column == nil {
		return nil, apperrors.NotFound("column not found")
	}

	tasks, err := c.store.Tasks().FindByColumnID(ctx, columnID)
	if err != nil {
		return nil, fmt.Errorf("failed to load column tasks: %w", err)
	}

	if len(tasks) > 0 && c.policy == config.ColumnDeletePolicyBlock {
		return nil, apperrors.HasDependents(
			"cannot delete column with %d task(s), move or delete them first", len(tasks))
	}

	report := newReport()
	for _, task := range tasks {
		c.deleteOne(ctx, report, EntityTask, task.ID, c.store.Tasks().Delete)
	}

	if err := c.deleteParent(ctx, report, EntityColumn, columnID, c.store.Columns().Delete); err != nil {
		return report, err
	}

	return report, nil
}

// DeleteProject removes memberships, then every board with its own cascade,
// then the project.
func (c *Coordinator) DeleteProject(ctx context.Context, projectID uuid.UUID) (*Report, error) {
	project, err := c.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if project == nil {
		return nil, apperrors.NotFound("project not found")
	}

	members, err := c.store.Members().FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project members: %w", err)
	}

	boards, err := c.store.Boards().FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project boards: %w", err)
	}

	report := newReport()

	for _, member := range members {
		c.deleteOne(ctx, report, EntityMember, member.ID, c.store.Members().Delete)
	}

	for _, board := range boards {
		if err := c.deleteBoard(ctx, board.ID, report); err != nil {
			report.fail(EntityBoard, board.ID, err)
			c.logFailure(EntityBoard, board.ID, err)
		}
	}

	if err := c.deleteParent(ctx, report, EntityProject, projectID, c.store.Projects().Delete); err != nil {
		return report, err
	}

	return report, nil
}

// DeleteUser detaches the user from assigned tasks, removes memberships and
// deletes the user. Tasks are never deleted.
func (c *Coordinator) DeleteUser(ctx context.Context, userID uuid.UUID) (*Report, error) {
	user, err := c.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	tasks, err := c.store.Tasks().FindByAssigneeID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned tasks: %w", err)
	}

	members, err := c.store.Members().FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	report := newReport()

	for _, task := range tasks {
		if _, err := c.store.Tasks().Update(ctx, task.ID, models.TaskPatch{ClearAssignee: true}); err != nil {
			report.fail(EntityTask, task.ID, err)
			c.logFailure(EntityTask, task.ID, err)
			continue
		}
		report.Unassigned = append(report.Unassigned, task.ID)
	}

	for _, member := range members {
		c.deleteOne(ctx, report, EntityMember, member.ID, c.store.Members().Delete)
	}

	if err := c.deleteParent(ctx, report, EntityUser, userID, c.store.Users().Delete); err != nil {
		return report, err
	}

	return report, nil
}

func (c *Coordinator) deleteBoard(ctx context.Context, boardID uuid.UUID, report *Report) error {
	tasks, err := c.store.Tasks().FindByBoardID(ctx, boardID)
	if err != nil {
		return fmt.Errorf("failed to load board tasks: %w", err)
	}

	columns, err := c.store.Columns().FindByBoardID(ctx, boardID)
	if err != nil {
		return fmt.Errorf("failed to load board columns: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(tasks))
	for _, task := range tasks {
		seen[task.ID] = struct{}{}
		c.deleteOne(ctx, report, EntityTask, task.ID, c.store.Tasks().Delete)
	}

	// tasks still pointing at one of the board's columns under another board id
	for _, column := range columns {
		stragglers, err := c.store.Tasks().FindByColumnID(ctx, column.ID)
		if err != nil {
			report.fail(EntityColumn, column.ID, err)
			c.logFailure(EntityColumn, column.ID, err)
			continue
		}

		for _, task := range stragglers {
			if _, ok := seen[task.ID]; ok {
				continue
			}
			c.deleteOne(ctx, report, EntityTask, task.ID, c.store.Tasks().Delete)
		}
	}

	for _, column := range columns {
		c.deleteOne(ctx, report, EntityColumn, column.ID, c.store.Columns().Delete)
	}

	return c.deleteParent(ctx, report, EntityBoard, boardID, c.store.Boards().Delete)
}

func (c *Coordinator) deleteOne(
	ctx context.Context,
	report *Report,
	entity Entity,
	id uuid.UUID,
	remove func(context.Context, uuid.UUID) (bool, error),
) {
	removed, err := remove(ctx, id)
	if err != nil {
		report.fail(entity, id, err)
		c.logFailure(entity, id, err)
		return
	}

	if removed {
		report.Deleted[entity]++
	}
}

func (c *Coordinator) deleteParent(
	ctx context.Context,
	report *Report,
	entity Entity,
	id uuid.UUID,
	remove func(context.Context, uuid.UUID) (bool, error),
) error {
	removed, err := remove(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", entity, err)
	}

	if !removed {
		return apperrors.NotFound("%s not found", entity)
	}

	report.Deleted[entity]++

	if report.HasFailures() {
		c.logger.Warn("Cascade finished with failures",
			slog.String("entity", string(entity)),
			slog.String("id", id.String()),
			slog.Int("failures", len(report.Failures)))
	}

	return nil
}

func (c *Coordinator) logFailure(entity Entity, id uuid.UUID, err error) {
	c.logger.Error("Cascade step failed",
		slog.String("entity", string(entity)),
		slog.String("id", id.String()),
		slog.String("error", err.Error()))
}
