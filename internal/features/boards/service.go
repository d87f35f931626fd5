package boards

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"kanban/internal/apperrors"
	"kanban/internal/features/cascade"
	"kanban/internal/features/events"
	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// SnapshotCache keeps recently built snapshots. Implementations treat every
// failure as a miss.
type SnapshotCache interface {
	Get(ctx context.Context, key string) *BoardSnapshot
	Set(ctx context.Context, key string, snapshot *BoardSnapshot)
	Invalidate(ctx context.Context, key string)
}

type BoardService struct {
	store     storage.Store
	cascade   *cascade.Coordinator
	publisher events.Publisher
	logger    *slog.Logger

	snapshotCache SnapshotCache
	singleflight  singleflight.Group

	// generations counts invalidations per board. A load only caches its
	// result when no invalidation happened while it was reading.
	generationsMu sync.Mutex
	generations   map[uuid.UUID]uint64
}

func NewBoardService(
	store storage.Store,
	coordinator *cascade.Coordinator,
	publisher events.Publisher,
	logger *slog.Logger,
) *BoardService {
	return &BoardService{
		store:     store,
		cascade:   coordinator,
		publisher: publisher,
		logger:    logger,

		generations: make(map[uuid.UUID]uint64),
	}
}

func (s *BoardService) WithSnapshotCache(snapshotCache SnapshotCache) *BoardService {
	s.snapshotCache = snapshotCache
	return s
}

func (s *BoardService) ListProjectBoards(ctx context.Context, projectID uuid.UUID) ([]*models.Board, error) {
	project, err := s.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if project == nil {
		return nil, apperrors.NotFound("project not found")
	}

	boards, err := s.store.Boards().FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	return boards, nil
}

func (s *BoardService) GetBoard(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	board, err := s.store.Boards().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	if board == nil {
		return nil, apperrors.NotFound("board not found")
	}

	return board, nil
}

func (s *BoardService) CreateBoard(ctx context.Context, request *CreateBoardRequest) (*models.Board, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, apperrors.Validation("name", "name is required")
	}

	if request.ProjectID == uuid.Nil {
		return nil, apperrors.Validation("project_id", "project_id is required")
	}

	project, err := s.store.Projects().FindByID(ctx, request.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if project == nil {
		return nil, apperrors.Validation("project_id", "project not found")
	}

	board := &models.Board{ProjectID: project.ID, Name: name}
	if request.Description != nil && *request.Description != "" {
		board.Description = request.Description
	}

	created, err := s.store.Boards().Create(ctx, board)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	s.logger.Info("Board created",
		slog.String("boardId", created.ID.String()),
		slog.String("projectId", project.ID.String()))

	return created, nil
}

func (s *BoardService) UpdateBoard(ctx context.Context, id uuid.UUID, request *UpdateBoardRequest) (*models.Board, error) {
	patch := models.BoardPatch{}

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

	board, err := s.store.Boards().Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}

	if board == nil {
		return nil, apperrors.NotFound("board not found")
	}

	s.publisher.Publish(ctx, events.Event{
		Type:    events.TypeUpdated,
		Entity:  "board",
		BoardID: board.ID,
		Payload: board,
	})

	return board, nil
}

// DeleteBoard removes the board's tasks and columns before the board itself.
func (s *BoardService) DeleteBoard(ctx context.Context, id uuid.UUID) (*cascade.Report, error) {
	report, err := s.cascade.DeleteBoard(ctx, id)
	if err != nil {
		return report, err
	}

	s.publisher.Publish(ctx, events.Event{Type: events.TypeDeleted, Entity: "board", BoardID: id})

	s.logger.Info("Board deleted",
		slog.String("boardId", id.String()),
		slog.Int("columns", report.Deleted[cascade.EntityColumn]),
		slog.Int("tasks", report.Deleted[cascade.EntityTask]),
		slog.Int("failures", len(report.Failures)))

	return report, nil
}

// GetBoardSnapshot loads the board with ordered columns and tasks. Concurrent
// loads of one board share a single read.
func (s *BoardService) GetBoardSnapshot(ctx context.Context, id uuid.UUID) (*BoardSnapshot, error) {
	key := id.String()

	if s.snapshotCache != nil {
		if cached := s.snapshotCache.Get(ctx, key); cached != nil {
			return cached, nil
		}
	}

	result, err, _ := s.singleflight.Do(key, func() (any, error) {
		generation := s.generation(id)

		snapshot, err := s.loadSnapshot(ctx, id)
		if err != nil {
			return nil, err
		}

		s.cacheSnapshot(ctx, id, generation, snapshot)

		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}

	snapshot, ok := result.(*BoardSnapshot)
	if !ok {
		return nil, fmt.Errorf("failed to cast result to BoardSnapshot")
	}

	return snapshot, nil
}

// InvalidateSnapshot drops the cached snapshot of a board, if any. Loads
// already in flight are detached so later callers read again.
func (s *BoardService) InvalidateSnapshot(ctx context.Context, boardID uuid.UUID) {
	s.generationsMu.Lock()
	s.generations[boardID]++
	s.generationsMu.Unlock()

	s.singleflight.Forget(boardID.String())

	if s.snapshotCache == nil {
		return
	}

	s.snapshotCache.Invalidate(ctx, boardID.String())
}

func (s *BoardService) generation(boardID uuid.UUID) uint64 {
	s.generationsMu.Lock()
	defer s.generationsMu.Unlock()

	return s.generations[boardID]
}

// cacheSnapshot stores a snapshot read at generation. An invalidation that
// lands between the check and the write is caught by the second check.
func (s *BoardService) cacheSnapshot(ctx context.Context, boardID uuid.UUID, generation uint64, snapshot *BoardSnapshot) {
	if s.snapshotCache == nil || s.generation(boardID) != generation {
		return
	}

	key := boardID.String()
	s.snapshotCache.Set(ctx, key, snapshot)

	if s.generation(boardID) != generation {
		s.snapshotCache.Invalidate(ctx, key)
	}
}

func (s *BoardService) loadSnapshot(ctx context.Context, id uuid.UUID) (*BoardSnapshot, error) {
	board, err := s.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	columns, err := s.store.Columns().FindByBoardID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load columns: %w", err)
	}

	tasks, err := s.store.Tasks().FindByBoardID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	snapshot := &BoardSnapshot{Board: board, Columns: make([]*ColumnSnapshot, 0, len(columns))}
	byColumn := make(map[uuid.UUID]*ColumnSnapshot, len(columns))

	for _, column := range columns {
		columnSnapshot := &ColumnSnapshot{Column: *column, Tasks: []*models.Task{}}
		snapshot.Columns = append(snapshot.Columns, columnSnapshot)
		byColumn[column.ID] = columnSnapshot
	}

	// tasks pointing at a missing column are orphans left for the sweeper
	for _, task := range tasks {
		if columnSnapshot, ok := byColumn[task.ColumnID]; ok {
			columnSnapshot.Tasks = append(columnSnapshot.Tasks, task)
		}
	}

	for _, columnSnapshot := range snapshot.Columns {
		models.SortByPosition(columnSnapshot.Tasks)
	}

	return snapshot, nil
}
