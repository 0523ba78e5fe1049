// internal/auth/models.auth.go
package auth

import (
	"context"
	"errors"
)

var (
	// ErrUnauthorized covers every token problem: missing, malformed, bad
	// signature, wrong audience, expired.
	ErrUnauthorized = errors.New("unauthorized")
	ErrUserInactive = errors.New("user is inactive")
	ErrUserNotFound = errors.New("user not found")
)

// User is a person known through their Google identity. Username is the
// verified email address.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"nombre"`
	Picture  string `json:"foto"`
	Active   bool   `json:"activo"`
}

// Claims are the identity claims extracted from a verified ID token.
type Claims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// TokenVerifier checks a raw ID token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// UserStore persists users.
type UserStore interface {
	// FindOrCreate returns the user with u.Username, inserting u when absent.
	// Concurrent first logins for one username converge on a single row.
	FindOrCreate(ctx context.Context, u *User) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
