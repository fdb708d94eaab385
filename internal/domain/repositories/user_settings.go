package repositories

import (
	"context"

	"sitetrack/internal/domain/models"
)

// UserSettingsRepository defines data access for user settings
type UserSettingsRepository interface {
	// GetByUserID returns nil, nil when no settings are stored
	GetByUserID(ctx context.Context, userID string) (*models.UserSettings, error)

	// Upsert writes the whole record
	Upsert(ctx context.Context, settings *models.UserSettings) error
}
