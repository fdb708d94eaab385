package services

import (
	"context"

	"sitetrack/internal/domain/models"
)

type UploadDocumentRequest struct {
	UserID    string
	ProjectID *string
	Filename  string
	MimeType  string
	Content   []byte
	Tags      []string
}

type UpdateDocumentRequest struct {
	Name *string  `json:"name"`
	Tags []string `json:"tags"`
}

// DocumentService manages uploaded project and general documents
type DocumentService interface {
	UploadDocument(ctx context.Context, req *UploadDocumentRequest) (*models.Document, error)
	ListDocuments(ctx context.Context, userID string, projectID *string, f models.DocumentFilter) ([]models.Document, error)
	UpdateDocument(ctx context.Context, id, userID string, req *UpdateDocumentRequest) (*models.Document, error)
	DeleteDocument(ctx context.Context, id, userID string) error
}
