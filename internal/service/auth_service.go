package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/auth"
	"github.com/myhostelpal/complaint-service/internal/config"
	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/repository"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
	"github.com/myhostelpal/complaint-service/pkg/util/validation"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Logger   *zap.Logger
}

// RegisterInput is the self-service sign-up payload. New accounts are students.
type RegisterInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=50"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6,max=72"`
	RoomNumber  string  `json:"roomNumber" validate:"required,max=20"`
	HostelBlock string  `json:"hostelBlock" validate:"required,max=20"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,min=7,max=20"`
}

// LoginInput carries credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     deps.Logger,
	}
}

// Register creates a student account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	in.HostelBlock = strings.TrimSpace(in.HostelBlock)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleStudent,
		RoomNumber:   in.RoomNumber,
		HostelBlock:  in.HostelBlock,
		PhoneNumber:  in.PhoneNumber,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": in.Email})
		}
		return nil, apperrors.MapError(err)
	}
	return s.issue(user)
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, in.Password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account is deactivated")
	}
	return s.issue(user)
}

// UpdatePushToken stores the device token used by the push channel. An empty
// token unregisters the device.
func (s *AuthService) UpdatePushToken(ctx context.Context, user *domain.User, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if len(token) > 512 {
		return nil, apperrors.NewFieldError("pushToken", "must be at most 512 characters")
	}
	current, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, mapRepoErr(err, "user", user.ID)
	}
	if token == "" {
		current.PushToken = nil
	} else {
		current.PushToken = &token
	}
	if err := s.users.Update(ctx, current); err != nil {
		return nil, mapRepoErr(err, "user", user.ID)
	}
	return current, nil
}

// EnsureAdmin bootstraps an administrator account. It is a no-op when email is
// empty and promotes an existing account with that email.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == domain.RoleAdmin && existing.Active {
			return nil
		}
		existing.Role = domain.RoleAdmin
		existing.Active = true
		if err := s.users.Update(ctx, existing); err != nil {
			return err
		}
		s.logger.Info("promoted bootstrap admin", zap.String("user_id", existing.ID))
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	if len(password) < 6 {
		return errors.New("bootstrap admin password must be at least 6 characters")
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Active:       true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("created bootstrap admin", zap.String("user_id", admin.ID))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}
