package models

import "time"

// ProgressUpdate is a dated site report on a project.
type ProgressUpdate struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	Description string    `json:"description" db:"description"`
	Progress    int       `json:"progress" db:"progress"`
	Images      []string  `json:"images" db:"images"`
	AudioNotes  []string  `json:"audio_notes" db:"audio_notes"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
