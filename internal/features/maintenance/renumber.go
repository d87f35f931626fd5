package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"kanban/internal/apperrors"
	"kanban/internal/features/ordering"
	"kanban/internal/storage"

	"github.com/google/uuid"
)

// Renumber densely renumbers one board, or every board when boardID is nil.
// It returns how many records changed.
func Renumber(
	ctx context.Context,
	store storage.Store,
	engine *ordering.Engine,
	boardID *uuid.UUID,
	logger *slog.Logger,
) (int, error) {
	var boardIDs []uuid.UUID

	if boardID != nil {
		board, err := store.Boards().FindByID(ctx, *boardID)
		if err != nil {
			return 0, fmt.Errorf("failed to load board: %w", err)
		}

		if board == nil {
			return 0, apperrors.NotFound("board not found")
		}

		boardIDs = append(boardIDs, board.ID)
	} else {
		boards, err := store.Boards().FindAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to load boards: %w", err)
		}

		for _, board := range boards {
			boardIDs = append(boardIDs, board.ID)
		}
	}

	total := 0
	for _, id := range boardIDs {
		changed, err := engine.Normalize(ctx, id)
		total += changed
		if err != nil {
			return total, fmt.Errorf("failed to renumber board %s: %w", id, err)
		}
	}

	logger.Info("Renumbering completed",
		slog.Int("boards", len(boardIDs)),
		slog.Int("changed", total))

	return total, nil
}
