// internal/auth/google_verifier.auth.go
package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const GoogleIssuer = "https://accounts.google.com"

// GoogleVerifier validates Google ID tokens: signature against the issuer's
// published keys, issuer, audience and expiry.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ TokenVerifier = (*GoogleVerifier)(nil)

// NewGoogleVerifier discovers the issuer's configuration. The key set is
// fetched lazily and cached by go-oidc.
func NewGoogleVerifier(ctx context.Context, issuer, clientID string) (*GoogleVerifier, error) {
	if issuer == "" {
		issuer = GoogleIssuer
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc issuer %s: %w", issuer, err)
	}
	return NewGoogleVerifierWith(provider.Verifier(&oidc.Config{ClientID: clientID})), nil
}

// NewGoogleVerifierWith wraps a preconfigured verifier.
func NewGoogleVerifierWith(v *oidc.IDTokenVerifier) *GoogleVerifier {
	return &GoogleVerifier{verifier: v}
}

func (g *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	tok, err := g.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	var c struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := tok.Claims(&c); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %v", ErrUnauthorized, err)
	}
	if c.Email == "" {
		return nil, fmt.Errorf("%w: token has no email claim", ErrUnauthorized)
	}
	if c.EmailVerified != nil && !*c.EmailVerified {
		return nil, fmt.Errorf("%w: email %s is not verified", ErrUnauthorized, c.Email)
	}
	return &Claims{
		Subject: tok.Subject,
		Email:   c.Email,
		Name:    c.Name,
		Picture: c.Picture,
	}, nil
}
