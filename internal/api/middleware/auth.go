package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/querypilot/querypilot-backend/internal/auth"
)

const identityKey = "identity"

// RequireAuth validates the bearer access token and stores the caller's
// identity in the request locals. When jwtService is nil (auth disabled),
// requests pass through anonymously.
func RequireAuth(jwtService *auth.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if jwtService == nil {
			return c.Next()
		}

		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer "), "access")
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals(identityKey, auth.Identity{
			Subject: claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
		})
		return c.Next()
	}
}

// GetIdentity returns the authenticated identity, or nil for anonymous
// requests (auth disabled).
func GetIdentity(c *fiber.Ctx) *auth.Identity {
	if identity, ok := c.Locals(identityKey).(auth.Identity); ok {
		return &identity
	}
	return nil
}
