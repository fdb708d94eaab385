package repositories

import (
	"context"

	"sitetrack/internal/domain/models"
)

// ProgressRepository defines data access operations for progress updates
type ProgressRepository interface {
	Create(ctx context.Context, update *models.ProgressUpdate) error
	GetByID(ctx context.Context, id string) (*models.ProgressUpdate, error)
	ListByProject(ctx context.Context, projectID string) ([]models.ProgressUpdate, error)
	ListByCreator(ctx context.Context, userID string) ([]models.ProgressUpdate, error)

	// Update writes description, progress, images and audio notes
	Update(ctx context.Context, update *models.ProgressUpdate) error
	Delete(ctx context.Context, id string) error

	// AppendImage and AppendAudio add one URL atomically
	AppendImage(ctx context.Context, id, url string) (*models.ProgressUpdate, error)
	AppendAudio(ctx context.Context, id, url string) (*models.ProgressUpdate, error)
}
