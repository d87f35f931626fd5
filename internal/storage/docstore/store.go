package docstore

import (
	"context"
	"strings"

	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
)

type Store struct {
	driver Driver

	users    *userRepository
	projects *projectRepository
	members  *memberRepository
	boards   *boardRepository
	columns  *columnRepository
	tasks    *taskRepository
}

func NewStore(driver Driver) *Store {
	return &Store{
		driver: driver,
		users: &userRepository{
			NewCollection[models.User, *models.User, models.UserPatch](driver, CollectionUsers).
				WithUniqueKey(func(u *models.User) string { return strings.ToLower(u.Email) }).
				WithSort(sortByCreation[models.User, *models.User]),
		},
		projects: &projectRepository{
			NewCollection[models.Project, *models.Project, models.ProjectPatch](driver, CollectionProjects).
				WithSort(sortByCreationDesc[models.Project, *models.Project]),
		},
		members: &memberRepository{
			NewCollection[models.ProjectMember, *models.ProjectMember, models.ProjectMemberPatch](driver, CollectionMembers).
				WithUniqueKey(func(m *models.ProjectMember) string { return m.ProjectID.String() + "/" + m.UserID.String() }).
				WithSort(sortByCreation[models.ProjectMember, *models.ProjectMember]),
		},
		boards: &boardRepository{
			NewCollection[models.Board, *models.Board, models.BoardPatch](driver, CollectionBoards).
				WithSort(sortByCreation[models.Board, *models.Board]),
		},
		columns: &columnRepository{
			NewCollection[models.Column, *models.Column, models.ColumnPatch](driver, CollectionColumns).
				WithSort(models.SortByPosition[*models.Column]),
		},
		tasks: &taskRepository{
			NewCollection[models.Task, *models.Task, models.TaskPatch](driver, CollectionTasks).
				WithSort(models.SortByPosition[*models.Task]),
		},
	}
}

func (s *Store) Users() storage.UserRepository       { return s.users }
func (s *Store) Projects() storage.ProjectRepository { return s.projects }
func (s *Store) Members() storage.MemberRepository   { return s.members }
func (s *Store) Boards() storage.BoardRepository     { return s.boards }
func (s *Store) Columns() storage.ColumnRepository   { return s.columns }
func (s *Store) Tasks() storage.TaskRepository       { return s.tasks }

// WithinTx runs fn directly. Writes made before an error are kept.
func (s *Store) WithinTx(_ context.Context, fn func(tx storage.Store) error) error {
	return fn(s)
}

func (s *Store) SupportsTransactions() bool {
	return false
}

func (s *Store) Ping(ctx context.Context) error {
	return s.driver.Ping(ctx)
}

func (s *Store) Name() string {
	return s.driver.Name()
}

func (s *Store) Close() error {
	return s.driver.Close()
}

type userRepository struct {
	*Collection[models.User, *models.User, models.UserPatch]
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.FindOne(ctx, func(u *models.User) bool {
		return strings.EqualFold(u.Email, email)
	})
}

type projectRepository struct {
	*Collection[models.Project, *models.Project, models.ProjectPatch]
}

type memberRepository struct {
	*Collection[models.ProjectMember, *models.ProjectMember, models.ProjectMemberPatch]
}

func (r *memberRepository) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error) {
	return r.Filter(ctx, func(m *models.ProjectMember) bool { return m.ProjectID == projectID })
}

func (r *memberRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ProjectMember, error) {
	return r.Filter(ctx, func(m *models.ProjectMember) bool { return m.UserID == userID })
}

func (r *memberRepository) FindByProjectAndUser(
	ctx context.Context,
	projectID, userID uuid.UUID,
) (*models.ProjectMember, error) {
	return r.FindOne(ctx, func(m *models.ProjectMember) bool {
		return m.ProjectID == projectID && m.UserID == userID
	})
}

type boardRepository struct {
	*Collection[models.Board, *models.Board, models.BoardPatch]
}

func (r *boardRepository) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.Board, error) {
	return r.Filter(ctx, func(b *models.Board) bool { return b.ProjectID == projectID })
}

type columnRepository struct {
	*Collection[models.Column, *models.Column, models.ColumnPatch]
}

func (r *columnRepository) FindByBoardID(ctx context.Context, boardID uuid.UUID) ([]*models.Column, error) {
	return r.Filter(ctx, func(c *models.Column) bool { return c.BoardID == boardID })
}

type taskRepository struct {
	*Collection[models.Task, *models.Task, models.TaskPatch]
}

func (r *taskRepository) FindByColumnID(ctx context.Context, columnID uuid.UUID) ([]*models.Task, error) {
	return r.Filter(ctx, func(t *models.Task) bool { return t.ColumnID == columnID })
}

func (r *taskRepository) FindByBoardID(ctx context.Context, boardID uuid.UUID) ([]*models.Task, error) {
	return r.Filter(ctx, func(t *models.Task) bool { return t.BoardID == boardID })
}

func (r *taskRepository) FindByAssigneeID(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	return r.Filter(ctx, func(t *models.Task) bool {
		return t.AssigneeID != nil && *t.AssigneeID == userID
	})
}
