package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/myhostelpal/complaint-service/internal/domain"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden()
		}
		return c.Next()
	}
}

// RequireStaff admits staff and administrators.
func RequireStaff() fiber.Handler {
	return RequireRole(domain.RoleStaff, domain.RoleAdmin)
}

// RequireAdmin admits administrators only.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
