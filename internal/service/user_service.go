package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/repository"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

// UserService lets administrators manage accounts.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// UserListFilters define listing parameters.
type UserListFilters struct {
	Role   *domain.Role
	Active *bool
	Page   int
	Limit  int
}

// UserPage is one page of users.
type UserPage struct {
	Users []domain.User
	Total int
	Page  int
	Limit int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func requireAdmin(actor *domain.User) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden()
	}
	return nil
}

// ListUsers pages through accounts, newest first.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, filters UserListFilters) (*UserPage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if filters.Role != nil && !filters.Role.Valid() {
		return nil, apperrors.NewFieldError("role", "must be one of student, staff, admin")
	}
	page, limit := normalizePage(filters.Page, filters.Limit)
	users, total, err := s.users.List(ctx, repository.UserFilter{
		Role:   filters.Role,
		Active: filters.Active,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return &UserPage{Users: users, Total: total, Page: page, Limit: limit}, nil
}

// ChangeRole promotes or demotes an account. Admins cannot change their own role.
func (s *UserService) ChangeRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewFieldError("role", "must be one of student, staff, admin")
	}
	if userID == actor.ID {
		return nil, apperrors.NewValidationError("cannot change your own role", nil)
	}
	if err := checkID("user", userID); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "user", userID)
	}
	if user.Role == role {
		return user, nil
	}
	previous := user.Role
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoErr(err, "user", userID)
	}
	s.logger.Info("user role changed",
		zap.String("user_id", user.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(role)),
		zap.String("actor_id", actor.ID),
	)
	return user, nil
}

// Deactivate disables an account. Existing tokens stop working on the next request.
func (s *UserService) Deactivate(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if userID == actor.ID {
		return nil, apperrors.NewValidationError("cannot deactivate your own account", nil)
	}
	if err := checkID("user", userID); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "user", userID)
	}
	if !user.Active {
		return user, nil
	}
	user.Active = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoErr(err, "user", userID)
	}
	s.logger.Info("user deactivated", zap.String("user_id", user.ID), zap.String("actor_id", actor.ID))
	return user, nil
}
