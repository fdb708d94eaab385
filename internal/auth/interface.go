package auth

import (
	"context"
	"time"

	"sitetrack/internal/domain/models"
)

// JWTVerifier validates access tokens.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or
	// has an invalid signature.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier
	Close() error
}

// Identity is the result of a successful sign-in or sign-up
type Identity struct {
	UID         string
	Email       string
	Name        string
	AccessToken string
	ExpiresAt   time.Time
}

// IdentityProvider performs credential operations against an auth backend.
// Credential failures are reported as *domain.AuthError.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignUp(ctx context.Context, name, email, password string) (*Identity, error)

	// SignOut revokes the session at the backend. Revoking an already
	// revoked token is not an error.
	SignOut(ctx context.Context, accessToken string) error
}

// AttemptLimiter throttles failed logins per key (normalized email)
type AttemptLimiter interface {
	// Allowed reports whether another attempt may be made
	Allowed(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// TokenDenyList holds revoked tokens until they expire
type TokenDenyList interface {
	Revoke(ctx context.Context, token string, until time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
