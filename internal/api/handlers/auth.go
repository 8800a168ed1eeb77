package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/querypilot/querypilot-backend/internal/api/middleware"
	"github.com/querypilot/querypilot-backend/internal/auth"
)

// AuthHandlers handles session endpoints
type AuthHandlers struct {
	auth *auth.Service
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *auth.Service) *AuthHandlers {
	return &AuthHandlers{auth: authService}
}

// Login handles POST /api/auth/login: exchanges an identity-provider
// token for a session token pair.
func (h *AuthHandlers) Login(c *fiber.Ctx) error {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := c.BodyParser(&req); err != nil || req.IDToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id_token is required",
		})
	}

	identity, tokens, err := h.auth.Login(c.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrIdentityRejected) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"subject":      identity.Subject,
			"email":        identity.Email,
			"display_name": identity.DisplayName(),
		},
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

// Me handles GET /api/auth/me: the identity behind the presented
// access token.
func (h *AuthHandlers) Me(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}

	return c.JSON(fiber.Map{
		"subject":      identity.Subject,
		"email":        identity.Email,
		"display_name": identity.DisplayName(),
	})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandlers) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "refresh_token is required",
		})
	}

	tokens, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(tokens)
}
