package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPairRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "querypilot")

	access, refresh, err := svc.GenerateTokenPair(Identity{
		Subject: "user-1",
		Email:   "dev@example.com",
		Name:    "Dev",
	})
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := svc.ValidateToken(access, "access")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "querypilot", claims.Issuer)

	claims, err = svc.ValidateToken(refresh, "refresh")
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.TokenType)
}

func TestValidateRejectsWrongType(t *testing.T) {
	svc := NewJWTService("test-secret", "querypilot")

	access, refresh, err := svc.GenerateTokenPair(Identity{Subject: "user-1"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(access, "refresh")
	assert.ErrorIs(t, err, ErrInvalidClaims)

	_, err = svc.ValidateToken(refresh, "access")
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", "querypilot")
	verifier := NewJWTService("secret-b", "querypilot")

	access, _, err := issuer.GenerateTokenPair(Identity{Subject: "user-1"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(access, "access")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", "querypilot")

	_, err := svc.ValidateToken("not.a.token", "access")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", Identity{Name: "Ada", Email: "ada@example.com"}.DisplayName())
	assert.Equal(t, "ada", Identity{Email: "ada@example.com"}.DisplayName())
	assert.Equal(t, "User", Identity{}.DisplayName())
}
