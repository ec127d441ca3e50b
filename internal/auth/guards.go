package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/policy"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// RequireAuthenticated ensures a principal is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireStaff ensures the principal carries the staff flag.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, ok := PrincipalFromContext(c)
		if !ok || !account.IsStaff {
			return apperrors.NewForbidden("not permitted")
		}
		return c.Next()
	}
}

// RequireCapability ensures the principal resolves the capability.
func RequireCapability(evaluator *policy.Evaluator, capability policy.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, ok := PrincipalFromContext(c)
		if !ok || !evaluator.Resolve(account).Has(capability) {
			return apperrors.NewForbidden("not permitted")
		}
		return c.Next()
	}
}
