// internal/auth/service.auth.go
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const TokenTypeBearer = "bearer"

type Service struct {
	verifier TokenVerifier
	users    UserStore
	logger   *slog.Logger
}

func NewService(verifier TokenVerifier, users UserStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{verifier: verifier, users: users, logger: logger}
}

// Authenticate verifies a Google ID token and resolves it to an active local
// user, creating the user on first sight.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*User, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	claims, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindOrCreate(ctx, &User{
		Username: strings.ToLower(claims.Email),
		Name:     claims.Name,
		Picture:  claims.Picture,
		Active:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("find or create user %s: %w", claims.Email, err)
	}
	if !u.Active {
		return nil, ErrUserInactive
	}
	return u, nil
}

// Login exchanges a Google ID token for an API bearer token. The verified
// Google token itself is the bearer credential.
func (s *Service) Login(ctx context.Context, googleJWT string) (*Token, *User, error) {
	u, err := s.Authenticate(ctx, googleJWT)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("user logged in", "user_id", u.ID, "username", u.Username)
	return &Token{AccessToken: strings.TrimSpace(googleJWT), TokenType: TokenTypeBearer}, u, nil
}
