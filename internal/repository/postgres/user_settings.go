package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
)

// PostgresUserSettingsRepository implements the UserSettingsRepository interface
type PostgresUserSettingsRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUserSettingsRepository creates a new PostgresUserSettingsRepository
func NewUserSettingsRepository(config *RepositoryConfig) repositories.UserSettingsRepository {
	return &PostgresUserSettingsRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByUserID retrieves settings for a specific user
func (r *PostgresUserSettingsRepository) GetByUserID(ctx context.Context, userID string) (*models.UserSettings, error) {
	query := fmt.Sprintf(`
		SELECT user_id, notifications_enabled, dark_mode_enabled, language, timezone, updated_at
		FROM %s
		WHERE user_id = $1
	`, r.tables.UserSettings)

	var s models.UserSettings
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.NotificationsEnabled,
		&s.DarkModeEnabled,
		&s.Language,
		&s.Timezone,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			// Nothing stored yet - caller applies defaults
			return nil, nil
		}
		return nil, fmt.Errorf("get user settings: %w", err)
	}

	return &s, nil
}

// Upsert creates or replaces user settings
func (r *PostgresUserSettingsRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, notifications_enabled, dark_mode_enabled, language, timezone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			notifications_enabled = EXCLUDED.notifications_enabled,
			dark_mode_enabled = EXCLUDED.dark_mode_enabled,
			language = EXCLUDED.language,
			timezone = EXCLUDED.timezone,
			updated_at = EXCLUDED.updated_at
	`, r.tables.UserSettings)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		s.UserID,
		s.NotificationsEnabled,
		s.DarkModeEnabled,
		s.Language,
		s.Timezone,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}

	r.logger.Debug("user settings upserted", "user_id", s.UserID)
	return nil
}
