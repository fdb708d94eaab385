package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"sitetrack/internal/config"
	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/events"
)

// progressService implements the ProgressService interface.
// Updates are last-write-wins on the whole record; attachments are
// appended atomically.
type progressService struct {
	progressRepo repositories.ProgressRepository
	authorizer   services.ResourceAuthorizer
	media        services.MediaUploader
	publisher    services.EventPublisher
	logger       *slog.Logger
	now          func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(
	progressRepo repositories.ProgressRepository,
	authorizer services.ResourceAuthorizer,
	media services.MediaUploader,
	publisher services.EventPublisher,
	logger *slog.Logger,
) services.ProgressService {
	return &progressService{
		progressRepo: progressRepo,
		authorizer:   authorizer,
		media:        media,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// ListProgress returns a project's updates, newest first
func (s *progressService) ListProgress(ctx context.Context, projectID, userID string) ([]models.ProgressUpdate, error) {
	if _, err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.progressRepo.ListByProject(ctx, projectID)
}

// ListMyProgress returns the updates the user created
func (s *progressService) ListMyProgress(ctx context.Context, userID string) ([]models.ProgressUpdate, error) {
	return s.progressRepo.ListByCreator(ctx, userID)
}

// CreateProgressUpdate records a progress report on a project
func (s *progressService) CreateProgressUpdate(ctx context.Context, req *services.CreateProgressRequest) (*models.ProgressUpdate, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.Description,
			validation.Required,
			validation.Length(1, config.MaxDescriptionLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Progress, validation.Min(0), validation.Max(100)),
		validation.Field(&req.Images, validation.Length(0, config.MaxProgressAttachments)),
		validation.Field(&req.AudioNotes, validation.Length(0, config.MaxProgressAttachments)),
	); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	project, err := s.authorizer.CanAccessProject(ctx, req.UserID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	update := &models.ProgressUpdate{
		ProjectID:   project.ID,
		Description: strings.TrimSpace(req.Description),
		Progress:    req.Progress,
		Images:      nonNil(req.Images),
		AudioNotes:  nonNil(req.AudioNotes),
		CreatedBy:   req.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.progressRepo.Create(ctx, update); err != nil {
		return nil, err
	}

	s.logger.Info("progress update created",
		"id", update.ID,
		"project_id", update.ProjectID,
		"progress", update.Progress,
		"user_id", req.UserID,
	)

	if err := s.publisher.Publish(ctx, &models.Event{
		Type:       models.EventProgressCreated,
		ActorID:    req.UserID,
		Recipients: events.Recipients(req.UserID, project.Team...),
		ProjectID:  project.ID,
		Title:      project.Name,
	}); err != nil {
		s.logger.Warn("failed to publish event", "type", models.EventProgressCreated, "project_id", project.ID, "error", err)
	}

	return update, nil
}

// UpdateProgressUpdate applies a merge-patch
func (s *progressService) UpdateProgressUpdate(ctx context.Context, id, userID string, req *services.UpdateProgressRequest) (*models.ProgressUpdate, error) {
	update, err := s.authorizer.CanAccessProgress(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		update.Description = strings.TrimSpace(*req.Description)
	}
	if req.Progress != nil {
		update.Progress = *req.Progress
	}
	if req.Images != nil {
		update.Images = req.Images
	}
	if req.AudioNotes != nil {
		update.AudioNotes = req.AudioNotes
	}

	if err := validation.ValidateStruct(update,
		validation.Field(&update.Description, validation.Required, validation.Length(1, config.MaxDescriptionLength)),
		validation.Field(&update.Progress, validation.Min(0), validation.Max(100)),
		validation.Field(&update.Images, validation.Length(0, config.MaxProgressAttachments)),
		validation.Field(&update.AudioNotes, validation.Length(0, config.MaxProgressAttachments)),
	); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.progressRepo.Update(ctx, update); err != nil {
		return nil, err
	}

	s.logger.Info("progress update updated",
		"id", update.ID,
		"user_id", userID,
	)

	return update, nil
}

// DeleteProgressUpdate deletes an update
func (s *progressService) DeleteProgressUpdate(ctx context.Context, id, userID string) error {
	if _, err := s.authorizer.CanAccessProgress(ctx, userID, id); err != nil {
		return err
	}

	if err := s.progressRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("progress update deleted",
		"id", id,
		"user_id", userID,
	)

	return nil
}

// AttachProgressPhoto uploads an image and appends its URL
func (s *progressService) AttachProgressPhoto(ctx context.Context, id, userID string, image []byte, source models.ImageSource) (*models.ProgressUpdate, error) {
	if err := validateUpload(image); err != nil {
		return nil, err
	}
	if source == "" {
		source = models.ImageFromLibrary
	}
	if !source.Valid() {
		return nil, fmt.Errorf("%w: source must be library or camera", domain.ErrValidation)
	}

	update, err := s.authorizer.CanAccessProgress(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(update.Images) >= config.MaxProgressAttachments {
		return nil, fmt.Errorf("%w: at most %d images per update", domain.ErrValidation, config.MaxProgressAttachments)
	}

	asset, err := s.media.UploadImage(ctx, image, source, "progress/"+update.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("upload progress photo: %w", err)
	}

	updated, err := s.progressRepo.AppendImage(ctx, id, asset.URL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("progress photo attached",
		"id", id,
		"public_id", asset.PublicID,
		"user_id", userID,
	)

	return updated, nil
}

// AttachProgressAudio uploads an audio note and appends its URL
func (s *progressService) AttachProgressAudio(ctx context.Context, id, userID string, audio []byte) (*models.ProgressUpdate, error) {
	if err := validateUpload(audio); err != nil {
		return nil, err
	}

	update, err := s.authorizer.CanAccessProgress(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(update.AudioNotes) >= config.MaxProgressAttachments {
		return nil, fmt.Errorf("%w: at most %d audio notes per update", domain.ErrValidation, config.MaxProgressAttachments)
	}

	asset, err := s.media.UploadAudio(ctx, audio, "progress/"+update.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("upload progress audio: %w", err)
	}

	updated, err := s.progressRepo.AppendAudio(ctx, id, asset.URL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("progress audio attached",
		"id", id,
		"public_id", asset.PublicID,
		"user_id", userID,
	)

	return updated, nil
}

func validateUpload(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: file is required", domain.ErrValidation)
	}
	if len(data) > config.MaxUploadBytes {
		return fmt.Errorf("%w: file exceeds %d bytes", domain.ErrValidation, config.MaxUploadBytes)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
