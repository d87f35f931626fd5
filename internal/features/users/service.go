package users

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"kanban/internal/apperrors"
	"kanban/internal/features/cascade"
	"kanban/internal/models"
	"kanban/internal/storage"

	"github.com/google/uuid"
)

type UserService struct {
	store   storage.Store
	cascade *cascade.Coordinator
	logger  *slog.Logger
}

func NewUserService(store storage.Store, coordinator *cascade.Coordinator, logger *slog.Logger) *UserService {
	return &UserService{store: store, cascade: coordinator, logger: logger}
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.Users().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	return user, nil
}

func (s *UserService) CreateUser(ctx context.Context, request *CreateUserRequest) (*models.User, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, apperrors.Validation("name", "name is required")
	}

	email, err := normalizeEmail(request.Email)
	if err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, email, uuid.Nil); err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email}
	if request.Avatar != nil && *request.Avatar != "" {
		user.Avatar = request.Avatar
	}

	created, err := s.store.Users().Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", slog.String("userId", created.ID.String()))
	return created, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, request *UpdateUserRequest) (*models.User, error) {
	patch := models.UserPatch{}

	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		if name == "" {
			return nil, apperrors.Validation("name", "name cannot be empty")
		}
		patch.Name = &name
	}

	if request.Email != nil {
		email, err := normalizeEmail(*request.Email)
		if err != nil {
			return nil, err
		}

		if err := s.ensureEmailFree(ctx, email, id); err != nil {
			return nil, err
		}
		patch.Email = &email
	}

	if request.Avatar != nil {
		if *request.Avatar == "" {
			patch.ClearAvatar = true
		} else {
			patch.Avatar = request.Avatar
		}
	}

	user, err := s.store.Users().Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	return user, nil
}

// DeleteUser unassigns the user's tasks and removes their memberships first.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) (*cascade.Report, error) {
	report, err := s.cascade.DeleteUser(ctx, id)
	if err != nil {
		return report, err
	}

	s.logger.Info("User deleted",
		slog.String("userId", id.String()),
		slog.Int("unassignedTasks", len(report.Unassigned)))

	return report, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, selfID uuid.UUID) error {
	existing, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}

	if existing != nil && existing.ID != selfID {
		return apperrors.Conflict("user with email %s already exists", email)
	}

	return nil
}

// normalizeEmail lowercases so uniqueness holds on every backend.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperrors.Validation("email", "email is required")
	}

	address, err := mail.ParseAddress(email)
	if err != nil || address.Address != email {
		return "", apperrors.Validation("email", "email is invalid")
	}

	return email, nil
}
