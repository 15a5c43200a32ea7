package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/myhostelpal/complaint-service/internal/auth"
	"github.com/myhostelpal/complaint-service/internal/domain"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

func principal(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return user, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func queryEnum[T ~string](c *fiber.Ctx, key string) *T {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" || raw == "all" {
		return nil
	}
	v := T(raw)
	return &v
}

func queryString(c *fiber.Ctx, key string) *string {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	return &raw
}
