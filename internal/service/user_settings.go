package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/domain/services"
)

// userSettingsService implements the UserSettingsService interface
type userSettingsService struct {
	repo   repositories.UserSettingsRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewUserSettingsService creates a new user settings service
func NewUserSettingsService(repo repositories.UserSettingsRepository, logger *slog.Logger) services.UserSettingsService {
	return &userSettingsService{repo: repo, logger: logger, now: time.Now}
}

// GetSettings returns stored settings or the defaults
func (s *userSettingsService) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	settings, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return models.DefaultUserSettings(userID), nil
	}
	return settings, nil
}

// UpdateSettings merges the partial update into the stored settings and
// writes the whole record
func (s *userSettingsService) UpdateSettings(ctx context.Context, userID string, req *models.UpdateSettingsRequest) (*models.UserSettings, error) {
	if req.Language != nil {
		tag, err := language.Parse(*req.Language)
		if err != nil {
			return nil, fmt.Errorf("%w: language: %q is not a valid BCP 47 tag", domain.ErrValidation, *req.Language)
		}
		canonical := tag.String()
		req.Language = &canonical
	}
	if req.Timezone != nil {
		if *req.Timezone == "" {
			return nil, fmt.Errorf("%w: timezone: cannot be empty", domain.ErrValidation)
		}
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, fmt.Errorf("%w: timezone: %q is not a known IANA zone", domain.ErrValidation, *req.Timezone)
		}
	}

	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	req.Apply(settings)
	settings.UpdatedAt = s.now().UTC()

	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.Info("user settings updated",
		"user_id", userID,
		"language", settings.Language,
		"timezone", settings.Timezone,
	)

	return settings, nil
}
