package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/production-booking/internal/domain"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

// RequireCapability ensures the actor holds one of the allowed capabilities.
func RequireCapability(allowed ...domain.Capability) fiber.Handler {
	allowedSet := make(map[domain.Capability]struct{}, len(allowed))
	for _, capability := range allowed {
		allowedSet[capability] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[actor.Capability]; !exists {
			return apperrors.NewForbidden("insufficient capability")
		}
		return c.Next()
	}
}
