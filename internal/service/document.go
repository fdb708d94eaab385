package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"sitetrack/internal/config"
	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/domain/services"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo    repositories.DocumentRepository
	authorizer services.ResourceAuthorizer
	media      services.MediaUploader
	logger     *slog.Logger
	now        func() time.Time
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	authorizer services.ResourceAuthorizer,
	media services.MediaUploader,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:    docRepo,
		authorizer: authorizer,
		media:      media,
		logger:     logger,
		now:        time.Now,
	}
}

// UploadDocument stores the file on the CDN and records it
func (s *documentService) UploadDocument(ctx context.Context, req *services.UploadDocumentRequest) (*models.Document, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Filename, validation.Required, validation.By(notBlank)),
		validation.Field(&req.Content, validation.Required, validation.Length(1, config.MaxUploadBytes)),
	); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if req.ProjectID != nil {
		if _, err := s.authorizer.CanAccessProject(ctx, req.UserID, *req.ProjectID); err != nil {
			return nil, err
		}
	}

	name := models.SanitizeDocumentName(req.Filename)
	if len(name) > config.MaxDocumentNameLength {
		return nil, fmt.Errorf("%w: name: the length must be no more than %d", domain.ErrValidation, config.MaxDocumentNameLength)
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	publicID := fmt.Sprintf("%s-%d", base, s.now().UnixMilli())

	scope := "general"
	if req.ProjectID != nil {
		scope = "project"
	}
	tags := append([]string{"document", scope}, req.Tags...)

	asset, err := s.media.UploadDocument(ctx, req.Content, req.MimeType, publicID, tags)
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	doc := &models.Document{
		Name:       name,
		Type:       models.DocumentTypeFromName(name),
		FileURL:    asset.URL,
		PublicID:   asset.PublicID,
		Size:       int64(len(req.Content)),
		Tags:       tags,
		UploadedBy: req.UserID,
		ProjectID:  req.ProjectID,
		UploadedAt: s.now().UTC(),
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document uploaded",
		"id", doc.ID,
		"name", doc.Name,
		"type", doc.Type,
		"size", doc.Size,
		"user_id", req.UserID,
	)

	return doc, nil
}

// ListDocuments returns the documents visible to the user, newest first
func (s *documentService) ListDocuments(ctx context.Context, userID string, projectID *string, f models.DocumentFilter) ([]models.Document, error) {
	if projectID != nil {
		if _, err := s.authorizer.CanAccessProject(ctx, userID, *projectID); err != nil {
			return nil, err
		}
	}

	docs, err := s.docRepo.ListVisible(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	return models.FilterDocuments(docs, f), nil
}

// UpdateDocument renames a document or replaces its tags
func (s *documentService) UpdateDocument(ctx context.Context, id, userID string, req *services.UpdateDocumentRequest) (*models.Document, error) {
	doc, err := s.authorizer.CanAccessDocument(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := models.SanitizeDocumentName(*req.Name)
		if err := validation.Validate(name,
			validation.Required,
			validation.Length(1, config.MaxDocumentNameLength),
		); err != nil {
			return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
		}
		doc.Name = name
		doc.Type = models.DocumentTypeFromName(name)
	}
	if req.Tags != nil {
		doc.Tags = req.Tags
	}

	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document updated",
		"id", doc.ID,
		"user_id", userID,
	)

	return doc, nil
}

// DeleteDocument removes the record. The CDN asset is left in place.
func (s *documentService) DeleteDocument(ctx context.Context, id, userID string) error {
	if _, err := s.authorizer.CanAccessDocument(ctx, userID, id); err != nil {
		return err
	}

	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("document deleted",
		"id", id,
		"user_id", userID,
	)

	return nil
}
