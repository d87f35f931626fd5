package gormstore

import (
	"context"
	"fmt"
	"log/slog"

	"kanban/internal/apperrors"
	"kanban/internal/models"
)

// Migrate creates or updates the schema. When the position column is added to
// an existing board_columns or tasks table, existing rows get dense positions
// in creation order so sorting stays meaningful.
func (s *Store) Migrate(ctx context.Context, log *slog.Logger) error {
	db := s.db.WithContext(ctx)
	migrator := db.Migrator()

	backfills := make([]string, 0, 2)
	if migrator.HasTable(&models.Column{}) && !migrator.HasColumn(&models.Column{}, "position") {
		backfills = append(backfills, backfillColumnPositions)
	}
	if migrator.HasTable(&models.Task{}) && !migrator.HasColumn(&models.Task{}, "position") {
		backfills = append(backfills, backfillTaskPositions)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Board{},
		&models.Column{},
		&models.Task{},
	)
	if err != nil {
		return apperrors.Unavailable("auto migrate", err)
	}

	for _, statement := range backfills {
		result := db.Exec(statement)
		if result.Error != nil {
			return apperrors.Unavailable("backfill positions", result.Error)
		}

		log.Info("Backfilled positions", slog.Int64("rows", result.RowsAffected))
	}

	log.Info(fmt.Sprintf("Database schema is up to date (%s)", s.dialect))
	return nil
}

const backfillColumnPositions = `
UPDATE board_columns SET position = (
	SELECT COUNT(*) FROM board_columns c2
	WHERE c2.board_id = board_columns.board_id
	  AND (c2.created_at < board_columns.created_at
	       OR (c2.created_at = board_columns.created_at AND c2.id < board_columns.id))
)`

const backfillTaskPositions = `
UPDATE tasks SET position = (
	SELECT COUNT(*) FROM tasks t2
	WHERE t2.column_id = tasks.column_id
	  AND (t2.created_at < tasks.created_at
	       OR (t2.created_at = tasks.created_at AND t2.id < tasks.id))
)`
