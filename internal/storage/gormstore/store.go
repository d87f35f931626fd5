// Package gormstore is the relational backend. It runs on PostgreSQL in
// production and on SQLite for local development and tests.
package gormstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kanban/internal/apperrors"
	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSqlite   Dialect = "sqlite"
)

type Store struct {
	db      *gorm.DB
	dialect Dialect
	inTx    bool

	users    *userRepository
	projects *projectRepository
	members  *memberRepository
	boards   *boardRepository
	columns  *columnRepository
	tasks    *taskRepository
}

// Open connects to the database. dsn is a connection string for postgres and
// a file path for sqlite.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	var dialector gorm.Dialector

	switch dialect {
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	case DialectSqlite:
		if !strings.Contains(dsn, "?") {
			dsn += "?_busy_timeout=5000&_journal_mode=WAL"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        models.Now,
		Logger:         gorm_logger.Default.LogMode(gorm_logger.Warn),
	})
	if err != nil {
		return nil, apperrors.Unavailable("open database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.Unavailable("open database", err)
	}

	if dialect == DialectSqlite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	store := newStore(db, dialect, false)
	if err := store.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return store, nil
}

func newStore(db *gorm.DB, dialect Dialect, inTx bool) *Store {
	return &Store{
		db:       db,
		dialect:  dialect,
		inTx:     inTx,
		users:    &userRepository{newRepository[models.User, *models.User, models.UserPatch](db, "created_at ASC")},
		projects: &projectRepository{newRepository[models.Project, *models.Project, models.ProjectPatch](db, "created_at DESC")},
		members:  &memberRepository{newRepository[models.ProjectMember, *models.ProjectMember, models.ProjectMemberPatch](db, "created_at ASC")},
		boards:   &boardRepository{newRepository[models.Board, *models.Board, models.BoardPatch](db, "created_at ASC")},
		columns:  &columnRepository{newRepository[models.Column, *models.Column, models.ColumnPatch](db, positionOrder)},
		tasks:    &taskRepository{newRepository[models.Task, *models.Task, models.TaskPatch](db, positionOrder)},
	}
}

func (s *Store) Users() storage.UserRepository       { return s.users }
func (s *Store) Projects() storage.ProjectRepository { return s.projects }
func (s *Store) Members() storage.MemberRepository   { return s.members }
func (s *Store) Boards() storage.BoardRepository     { return s.boards }
func (s *Store) Columns() storage.ColumnRepository   { return s.columns }
func (s *Store) Tasks() storage.TaskRepository       { return s.tasks }

func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(tx, s.dialect, true))
	})
}

func (s *Store) SupportsTransactions() bool {
	return true
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return apperrors.Unavailable("database check failed", err)
	}

	return nil
}

func (s *Store) Name() string {
	return string(s.dialect)
}

func (s *Store) Close() error {
	if s.inTx {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

type userRepository struct {
	repository[models.User, *models.User, models.UserPatch]
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER(?)", email)
}

type projectRepository struct {
	repository[models.Project, *models.Project, models.ProjectPatch]
}

type memberRepository struct {
	repository[models.ProjectMember, *models.ProjectMember, models.ProjectMemberPatch]
}

func (r *memberRepository) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error) {
	return r.findWhere(ctx, "project_id = ?", projectID)
}

func (r *memberRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ProjectMember, error) {
	return r.findWhere(ctx, "user_id = ?", userID)
}

func (r *memberRepository) FindByProjectAndUser(
	ctx context.Context,
	projectID, userID uuid.UUID,
) (*models.ProjectMember, error) {
	return r.findOne(ctx, "project_id = ? AND user_id = ?", projectID, userID)
}

type boardRepository struct {
	repository[models.Board, *models.Board, models.BoardPatch]
}

func (r *boardRepository) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.Board, error) {
	return r.findWhere(ctx, "project_id = ?", projectID)
}

type columnRepository struct {
	repository[models.Column, *models.Column, models.ColumnPatch]
}

func (r *columnRepository) FindByBoardID(ctx context.Context, boardID uuid.UUID) ([]*models.Column, error) {
	return r.findWhere(ctx, "board_id = ?", boardID)
}

type taskRepository struct {
	repository[models.Task, *models.Task, models.TaskPatch]
}

func (r *taskRepository) FindByColumnID(ctx context.Context, columnID uuid.UUID) ([]*models.Task, error) {
	return r.findWhere(ctx, "column_id = ?", columnID)
}

func (r *taskRepository) FindByBoardID(ctx context.Context, boardID uuid.UUID) ([]*models.Task, error) {
	return r.findWhere(ctx, "board_id = ?", boardID)
}

func (r *taskRepository) FindByAssigneeID(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	return r.findWhere(ctx, "assignee_id = ?", userID)
}
