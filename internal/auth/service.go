// Package auth exchanges externally-issued identity tokens for
// first-party session tokens. The identity provider is an opaque
// collaborator: we post the token to it and trust the identity it
// returns. No passwords and no credential storage live here.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrIdentityRejected is returned when the identity provider does not
// accept the presented token.
var ErrIdentityRejected = errors.New("identity token rejected")

// Identity is the display identity the provider vouches for.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

// DisplayName picks a human-readable name: the provider's display name,
// else the local part of the email, else a generic label.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Email != "" {
		for idx, r := range i.Email {
			if r == '@' {
				return i.Email[:idx]
			}
		}
		return i.Email
	}
	return "User"
}

// TokenPair is the session issued after a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service verifies identity tokens and issues sessions.
type Service struct {
	identityURL string
	jwt         *JWTService
	client      *http.Client
	log         *logrus.Logger
}

// NewService creates the auth service. identityURL is the verification
// endpoint of the external provider.
func NewService(identityURL, jwtSecret string, log *logrus.Logger) *Service {
	return &Service{
		identityURL: identityURL,
		jwt:         NewJWTService(jwtSecret, "querypilot"),
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

// JWT exposes the token service for middleware validation.
func (s *Service) JWT() *JWTService { return s.jwt }

// Login verifies the identity token with the provider and issues a
// session token pair.
func (s *Service) Login(ctx context.Context, identityToken string) (*Identity, *TokenPair, error) {
	identity, err := s.verify(ctx, identityToken)
	if err != nil {
		return nil, nil, err
	}

	access, refresh, err := s.jwt.GenerateTokenPair(*identity)
	if err != nil {
		return nil, nil, err
	}

	s.log.WithField("subject", identity.Subject).Info("Session issued")
	return identity, &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}

	access, refresh, err := s.jwt.GenerateTokenPair(Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) verify(ctx context.Context, identityToken string) (*Identity, error) {
	body, err := json.Marshal(map[string]string{"id_token": identityToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.identityURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		s.log.WithField("status", resp.StatusCode).Warn("Identity verification rejected")
		return nil, ErrIdentityRejected
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if identity.Subject == "" {
		return nil, ErrIdentityRejected
	}
	return &identity, nil
}
