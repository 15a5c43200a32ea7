package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/config"
	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/repository/memstore"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}}
	return NewAuthService(cfg, AuthDependencies{UserRepo: store.Users(), Logger: zap.NewNop()}), store
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:        "Asha Rao",
		Email:       " Asha@Hostel.test ",
		Password:    "secret123",
		RoomNumber:  "B-204",
		HostelBlock: "B",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, registered.User.Role)
	assert.Equal(t, "asha@hostel.test", registered.User.Email)
	assert.NotEmpty(t, registered.Token)

	claims, err := svc.TokenManager().ParseToken(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)

	loggedIn, err := svc.Login(ctx, LoginInput{Email: "ASHA@hostel.test", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "asha@hostel.test", Password: "wrong"})
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	_, err = svc.Login(ctx, LoginInput{Email: "nobody@hostel.test", Password: "secret123"})
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestRegister_RejectsDuplicatesAndBadInput(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	_, err = svc.Register(ctx, validRegistration())
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	in := validRegistration()
	in.Email = "not-an-email"
	in.Password = "123"
	_, err = svc.Register(ctx, in)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()
	res, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	res.User.Active = false
	require.NoError(t, store.Users().Update(ctx, res.User))

	_, err = svc.Login(ctx, LoginInput{Email: "asha@hostel.test", Password: "secret123"})
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestEnsureAdmin(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "", ""))
	require.NoError(t, svc.EnsureAdmin(ctx, "warden@hostel.test", "changeme"))
	admin, err := store.Users().GetByEmail(ctx, "warden@hostel.test")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	require.NoError(t, svc.EnsureAdmin(ctx, "warden@hostel.test", "changeme"))

	res, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	require.NoError(t, svc.EnsureAdmin(ctx, res.User.Email, ""))
	promoted, err := store.Users().GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)
}

func TestUpdatePushToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	res, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	user, err := svc.UpdatePushToken(ctx, res.User, " device-token ")
	require.NoError(t, err)
	require.NotNil(t, user.PushToken)
	assert.Equal(t, "device-token", *user.PushToken)

	user, err = svc.UpdatePushToken(ctx, res.User, "")
	require.NoError(t, err)
	assert.Nil(t, user.PushToken)
}
