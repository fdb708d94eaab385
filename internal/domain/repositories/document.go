package repositories

import (
	"context"

	"sitetrack/internal/domain/models"
)

// DocumentRepository defines data access operations for document records
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// ListVisible returns documents uploaded by userID or attached to a
	// project whose team contains userID, newest first. projectID narrows
	// the result when non-nil.
	ListVisible(ctx context.Context, userID string, projectID *string) ([]models.Document, error)

	// Update writes name, type and tags
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
}
