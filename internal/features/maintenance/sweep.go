package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"kanban/internal/features/events"
	"kanban/internal/models"

	"github.com/google/uuid"
)

type SweepReport struct {
	Members    int `json:"members"`
	Boards     int `json:"boards"`
	Columns    int `json:"columns"`
	Tasks      int `json:"tasks"`
	Unassigned int `json:"unassigned"`
	Renumbered int `json:"renumbered"`
	Failures   int `json:"failures"`
}

func (r *SweepReport) Total() int {
	return r.Members + r.Boards + r.Columns + r.Tasks + r.Unassigned
}

// Sweep runs one reconciliation pass. Parents are processed before children
// so one pass also removes descendants of rows it just deleted. Per-row
// failures are logged and counted, they never stop the pass.
func (s *SweeperBackgroundService) Sweep(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}

	users, err := s.store.Users().FindAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load users: %w", err)
	}

	projects, err := s.store.Projects().FindAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load projects: %w", err)
	}

	liveUsers := idSet(users)
	liveProjects := idSet(projects)

	members, err := s.store.Members().FindAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load members: %w", err)
	}

	for _, member := range members {
		projectAlive, err := exists(ctx, liveProjects, member.ProjectID, s.store.Projects().FindByID)
		if err != nil {
			s.skip("member", member.ID, err, report)
			continue
		}

		userAlive, err := exists(ctx, liveUsers, member.UserID, s.store.Users().FindByID)
		if err != nil {
			s.skip("member", member.ID, err, report)
			continue
		}

		if projectAlive && userAlive {
			continue
		}

		s.remove(ctx, "member", member.ID, s.store.Members().Delete, &report.Members, report)
	}

	boards, err := s.store.Boards().FindAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load boards: %w", err)
	}

	liveBoards := make(map[uuid.UUID]bool, len(boards))
	for _, board := range boards {
		projectAlive, err := exists(ctx, liveProjects, board.ProjectID, s.store.Projects().FindByID)
		if err != nil {
			s.skip("board", board.ID, err, report)
			continue
		}

		if projectAlive {
			liveBoards[board.ID] = true
			continue
		}

		s.remove(ctx, "board", board.ID, s.store.Boards().Delete, &report.Boards, report)
	}

	columns, err := s.store.Columns().FindAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load columns: %w", err)
	}

	liveColumns := make(map[uuid.UUID]bool, len(columns))
	for _, column := range columns {
		boardAlive, err := exists(ctx, liveBoards, column.BoardID, s.store.Boards().FindByID)
		if err != nil {
			s.skip("column", column.ID, err, report)
			continue
		}

		if boardAlive {
			liveColumns[column.ID] = true
			continue
		}

		s.remove(ctx, "column", column.ID, s.store.Columns().Delete, &report.Columns, report)
	}

	tasks, err := s.store.Tasks().FindAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load tasks: %w", err)
	}

	touchedBoards := make(map[uuid.UUID]bool)
	for _, task := range tasks {
		columnAlive, err := exists(ctx, liveColumns, task.ColumnID, s.store.Columns().FindByID)
		if err != nil {
			s.skip("task", task.ID, err, report)
			continue
		}

		boardAlive, err := exists(ctx, liveBoards, task.BoardID, s.store.Boards().FindByID)
		if err != nil {
			s.skip("task", task.ID, err, report)
			continue
		}

		if !columnAlive || !boardAlive {
			if s.remove(ctx, "task", task.ID, s.store.Tasks().Delete, &report.Tasks, report) && boardAlive {
				touchedBoards[task.BoardID] = true
			}
			continue
		}

		if task.AssigneeID == nil {
			continue
		}

		assigneeAlive, err := exists(ctx, liveUsers, *task.AssigneeID, s.store.Users().FindByID)
		if err != nil {
			s.skip("task", task.ID, err, report)
			continue
		}

		if !assigneeAlive {
			if _, err := s.store.Tasks().Update(ctx, task.ID, models.TaskPatch{ClearAssignee: true}); err != nil {
				s.logFailure("task", task.ID, err)
				report.Failures++
				continue
			}

			report.Unassigned++
			touchedBoards[task.BoardID] = true
		}
	}

	for boardID := range touchedBoards {
		changed, err := s.engine.Normalize(ctx, boardID)
		if err != nil {
			s.logFailure("board", boardID, err)
			report.Failures++
			continue
		}

		report.Renumbered += changed
		s.publisher.Publish(ctx, events.Event{Type: events.TypeUpdated, Entity: "board", BoardID: boardID})
	}

	if report.Total() > 0 || report.Failures > 0 {
		s.logger.Info("Orphan sweep completed",
			slog.Int("members", report.Members),
			slog.Int("boards", report.Boards),
			slog.Int("columns", report.Columns),
			slog.Int("tasks", report.Tasks),
			slog.Int("unassigned", report.Unassigned),
			slog.Int("renumbered", report.Renumbered),
			slog.Int("failures", report.Failures))
	}

	if report.Failures > 0 {
		return report, fmt.Errorf("orphan sweep failed for %d rows", report.Failures)
	}

	return report, nil
}

func (s *SweeperBackgroundService) remove(
	ctx context.Context,
	entity string,
	id uuid.UUID,
	deleteFn func(context.Context, uuid.UUID) (bool, error),
	counter *int,
	report *SweepReport,
) bool {
	deleted, err := deleteFn(ctx, id)
	if err != nil {
		s.logFailure(entity, id, err)
		report.Failures++
		return false
	}

	if deleted {
		*counter++
	}

	return deleted
}

func (s *SweeperBackgroundService) skip(entity string, id uuid.UUID, err error, report *SweepReport) {
	s.logFailure(entity, id, err)
	report.Failures++
}

func (s *SweeperBackgroundService) logFailure(entity string, id uuid.UUID, err error) {
	s.logger.Error("Orphan sweep step failed",
		slog.String("entity", entity),
		slog.String("id", id.String()),
		slog.String("error", err.Error()))
}

// exists reports whether a parent is alive. A parent missing from the sweep's
// earlier snapshot is read again, since it may have been created after that
// snapshot together with the child being examined.
func exists[E any](
	ctx context.Context,
	live map[uuid.UUID]bool,
	id uuid.UUID,
	find func(context.Context, uuid.UUID) (*E, error),
) (bool, error) {
	if live[id] {
		return true, nil
	}

	entity, err := find(ctx, id)
	if err != nil {
		return false, err
	}

	if entity == nil {
		return false, nil
	}

	live[id] = true
	return true, nil
}

func idSet[T models.Entity](entities []T) map[uuid.UUID]bool {
	ids := make(map[uuid.UUID]bool, len(entities))
	for _, entity := range entities {
		ids[entity.GetBase().ID] = true
	}

	return ids
}
