package services

import (
	"context"

	"sitetrack/internal/domain/models"
)

// UserSettingsService reads and merges per-user settings
type UserSettingsService interface {
	// GetSettings returns defaults when nothing is stored
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID string, req *models.UpdateSettingsRequest) (*models.UserSettings, error)
}
