package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot-backend/internal/auth"
)

func whoAmI(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	if identity == nil {
		return c.JSON(fiber.Map{"subject": ""})
	}
	return c.JSON(fiber.Map{"subject": identity.Subject, "email": identity.Email})
}

func TestRequireAuthValidToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", "querypilot")
	access, _, err := jwtService.GenerateTokenPair(auth.Identity{
		Subject: "user-1",
		Email:   "dev@example.com",
	})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", RequireAuth(jwtService), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "user-1", body["subject"])
	assert.Equal(t, "dev@example.com", body["email"])
}

func TestRequireAuthRejections(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", "querypilot")
	_, refresh, err := jwtService.GenerateTokenPair(auth.Identity{Subject: "user-1"})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", RequireAuth(jwtService), whoAmI)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
		{"refresh token rejected as access", "Bearer " + refresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRequireAuthDisabledPassesThroughAnonymously(t *testing.T) {
	app := fiber.New()
	app.Get("/me", RequireAuth(nil), whoAmI)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body["subject"])
}
