package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
)

// LocalProvider keeps bcrypt credentials in PostgreSQL and mints HS256
// tokens in the same claim shape as Supabase, for development and tests.
type LocalProvider struct {
	creds  repositories.CredentialRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLocalProvider creates a local identity provider
func NewLocalProvider(creds repositories.CredentialRepository, secret string, ttl time.Duration) *LocalProvider {
	return &LocalProvider{
		creds:  creds,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// SignIn checks the password against the stored hash
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	cred, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewAuthError(domain.AuthInvalidCredentials)
		}
		return nil, err
	}

	if !CheckPassword(cred.PasswordHash, password) {
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials)
	}
	if cred.Disabled {
		return nil, domain.NewAuthError(domain.AuthAccountDisabled)
	}

	return p.issue(cred.UserID, cred.Email, "")
}

// SignUp creates a credential with a fresh uid
func (p *LocalProvider) SignUp(ctx context.Context, name, email, password string) (*Identity, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewAuthError(domain.AuthInvalidEmail)
	}
	if err := ValidatePasswordPolicy(password); err != nil {
		return nil, &domain.AuthError{Code: domain.AuthWeakPassword, Message: err.Error()}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cred := &models.Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    p.now(),
	}
	if err := p.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewAuthError(domain.AuthEmailInUse)
		}
		return nil, err
	}

	return p.issue(cred.UserID, cred.Email, name)
}

// SignOut is a no-op; revocation is handled by the token deny-list
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	return nil
}

func (p *LocalProvider) issue(uid, email, name string) (*Identity, error) {
	now := p.now()
	expires := now.Add(p.ttl)

	claims := &models.SupabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uid,
			Issuer:    "sitetrack",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: strings.ToLower(email),
		Role:  "authenticated",
	}
	if name != "" {
		claims.UserMetadata = map[string]interface{}{"name": name}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Identity{
		UID:         uid,
		Email:       claims.Email,
		Name:        name,
		AccessToken: signed,
		ExpiresAt:   expires,
	}, nil
}

// EnsureUser returns the uid for email, creating the credential when none
// exists. It mirrors AdminClient.EnsureUser for seeding.
func (p *LocalProvider) EnsureUser(ctx context.Context, name, email, password string) (string, error) {
	cred, err := p.creds.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		return cred.UserID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	identity, err := p.SignUp(ctx, name, email, password)
	if err != nil {
		return "", err
	}
	return identity.UID, nil
}
