package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/repository"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

type mapLoader map[string]*domain.User

func (m mapLoader) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken("u1", domain.RoleStaff)
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleStaff, claims.Role)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "hunter22"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrPasswordMismatch)
	assert.ErrorIs(t, ComparePassword("", "hunter22"), ErrPasswordMismatch)
}

func newTestApp(users mapLoader, tm *TokenManager, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm, users).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		user, _ := PrincipalFromContext(c)
		return c.SendString(user.ID)
	})
	app.Get("/", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	users := mapLoader{
		"student": {ID: "student", Role: domain.RoleStudent, Active: true},
		"staff":   {ID: "staff", Role: domain.RoleStaff, Active: true},
		"gone":    {ID: "gone", Role: domain.RoleStaff, Active: false},
	}
	tokenFor := func(id string) string {
		token, _, err := tm.GenerateToken(id, users[id].Role)
		require.NoError(t, err)
		return "Bearer " + token
	}
	ghost, _, err := tm.GenerateToken("ghost", domain.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		guards []fiber.Handler
		want   int
	}{
		{name: "missing header", header: "", want: fiber.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", want: fiber.StatusUnauthorized},
		{name: "bad token", header: "Bearer abc", want: fiber.StatusUnauthorized},
		{name: "unknown user", header: "Bearer " + ghost, want: fiber.StatusUnauthorized},
		{name: "inactive user", header: tokenFor("gone"), want: fiber.StatusUnauthorized},
		{name: "student ok", header: tokenFor("student"), want: fiber.StatusOK},
		{name: "student blocked by staff guard", header: tokenFor("student"), guards: []fiber.Handler{RequireStaff()}, want: fiber.StatusForbidden},
		{name: "staff passes staff guard", header: tokenFor("staff"), guards: []fiber.Handler{RequireStaff()}, want: fiber.StatusOK},
		{name: "staff blocked by admin guard", header: tokenFor("staff"), guards: []fiber.Handler{RequireAdmin()}, want: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(users, tm, tt.guards...)
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
