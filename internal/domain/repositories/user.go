package repositories

import (
	"context"

	"sitetrack/internal/domain/models"
)

// UserRepository stores application profiles keyed by identity uid
type UserRepository interface {
	// Create inserts a profile. Returns a ConflictError if one exists.
	Create(ctx context.Context, profile *models.UserProfile) error

	GetByID(ctx context.Context, id string) (*models.UserProfile, error)

	// GetByIDs returns the profiles that exist among ids, in no particular order
	GetByIDs(ctx context.Context, ids []string) ([]models.UserProfile, error)

	// Update writes name, photo_url, phone and updated_at
	Update(ctx context.Context, profile *models.UserProfile) error

	// List returns all profiles ordered by name
	List(ctx context.Context) ([]models.UserProfile, error)
}

// CredentialRepository backs the local identity provider
type CredentialRepository interface {
	Create(ctx context.Context, cred *models.Credential) error
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
}
