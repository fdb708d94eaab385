package models

import "time"

// UserSettings holds per-user application preferences.
// A single row per user, read and written as a whole.
type UserSettings struct {
	UserID               string    `json:"user_id" db:"user_id"`
	NotificationsEnabled bool      `json:"notifications_enabled" db:"notifications_enabled"`
	DarkModeEnabled      bool      `json:"dark_mode_enabled" db:"dark_mode_enabled"`
	Language             string    `json:"language" db:"language"`
	Timezone             string    `json:"timezone" db:"timezone"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultUserSettings returns the settings used when none are stored.
func DefaultUserSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:               userID,
		NotificationsEnabled: true,
		DarkModeEnabled:      false,
		Language:             "en",
		Timezone:             "UTC",
	}
}

// UpdateSettingsRequest is a partial update. Nil fields are left unchanged.
type UpdateSettingsRequest struct {
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	DarkModeEnabled      *bool   `json:"dark_mode_enabled"`
	Language             *string `json:"language"`
	Timezone             *string `json:"timezone"`
}

// Apply merges the request into s
func (r *UpdateSettingsRequest) Apply(s *UserSettings) {
	if r.NotificationsEnabled != nil {
		s.NotificationsEnabled = *r.NotificationsEnabled
	}
	if r.DarkModeEnabled != nil {
		s.DarkModeEnabled = *r.DarkModeEnabled
	}
	if r.Language != nil {
		s.Language = *r.Language
	}
	if r.Timezone != nil {
		s.Timezone = *r.Timezone
	}
}
