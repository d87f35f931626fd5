// Package storage defines the persistence contract every backend honors:
// relational (gorm), flat JSON files and object storage.
//
// Contract shared by all implementations:
//   - Create assigns a fresh id and created_at = updated_at = now (UTC).
//   - Update merges an explicit patch, refreshes updated_at and never touches id
//     or created_at. A missing id yields (nil, nil).
//   - FindByID yields (nil, nil) for a missing id.
//   - Delete reports whether a record was removed; a missing id is (false, nil).
//   - Column and task finders by parent are sorted ascending by position, ties
//     broken by creation order.
//   - Unique violations surface as apperrors.ErrConflict, medium failures as
//     apperrors.ErrUnavailable.
//
// Backends never cascade. Dependent rows are removed by the cascade coordinator.
package storage

import (
	"context"

	"kanban/internal/models"

	"github.com/google/uuid"
)

type Repository[E any, P models.Patch[E]] interface {
	FindAll(ctx context.Context) ([]*E, error)
	FindByID(ctx context.Context, id uuid.UUID) (*E, error)
	Create(ctx context.Context, entity *E) (*E, error)
	Update(ctx context.Context, id uuid.UUID, patch P) (*E, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type UserRepository interface {
	Repository[models.User, models.UserPatch]
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type ProjectRepository interface {
	Repository[models.Project, models.ProjectPatch]
}

type MemberRepository interface {
	Repository[models.ProjectMember, models.ProjectMemberPatch]
	FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ProjectMember, error)
	FindByProjectAndUser(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error)
}

type BoardRepository interface {
	Repository[models.Board, models.BoardPatch]
	FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.Board, error)
}

type ColumnRepository interface {
	Repository[models.Column, models.ColumnPatch]
	FindByBoardID(ctx context.Context, boardID uuid.UUID) ([]*models.Column, error)
}

type TaskRepository interface {
	Repository[models.Task, models.TaskPatch]
	FindByColumnID(ctx context.Context, columnID uuid.UUID) ([]*models.Task, error)
	FindByBoardID(ctx context.Context, boardID uuid.UUID) ([]*models.Task, error)
	FindByAssigneeID(ctx context.Context, userID uuid.UUID) ([]*models.Task, error)
}

// Store is the single entry point to persisted state. All implementations
// must be safe for concurrent access.
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	Members() MemberRepository
	Boards() BoardRepository
	Columns() ColumnRepository
	Tasks() TaskRepository

	// WithinTx runs fn against a transactional view when the backend supports
	// it; fn's error rolls everything back. Backends without transactions run
	// fn directly and keep whatever fn already wrote.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	SupportsTransactions() bool

	// Ping checks that the medium is reachable.
	Ping(ctx context.Context) error
	Name() string
	Close() error
}
