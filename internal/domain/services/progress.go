package services

import (
	"context"

	"sitetrack/internal/domain/models"
)

type CreateProgressRequest struct {
	UserID      string   `json:"-"`
	ProjectID   string   `json:"-"`
	Description string   `json:"description"`
	Progress    int      `json:"progress"`
	Images      []string `json:"images"`
	AudioNotes  []string `json:"audio_notes"`
}

type UpdateProgressRequest struct {
	Description *string  `json:"description"`
	Progress    *int     `json:"progress"`
	Images      []string `json:"images"`
	AudioNotes  []string `json:"audio_notes"`
}

// ProgressService manages site progress reports and their attachments
type ProgressService interface {
	ListProgress(ctx context.Context, projectID, userID string) ([]models.ProgressUpdate, error)
	ListMyProgress(ctx context.Context, userID string) ([]models.ProgressUpdate, error)
	CreateProgressUpdate(ctx context.Context, req *CreateProgressRequest) (*models.ProgressUpdate, error)
	UpdateProgressUpdate(ctx context.Context, id, userID string, req *UpdateProgressRequest) (*models.ProgressUpdate, error)
	DeleteProgressUpdate(ctx context.Context, id, userID string) error

	AttachProgressPhoto(ctx context.Context, id, userID string, image []byte, source models.ImageSource) (*models.ProgressUpdate, error)
	AttachProgressAudio(ctx context.Context, id, userID string, audio []byte) (*models.ProgressUpdate, error)
}
