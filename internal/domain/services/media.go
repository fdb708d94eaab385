package services

import (
	"context"

	"sitetrack/internal/domain/models"
)

// MediaUploader stores binary assets on the CDN
type MediaUploader interface {
	UploadImage(ctx context.Context, data []byte, source models.ImageSource, folder string) (*models.MediaAsset, error)
	UploadDocument(ctx context.Context, data []byte, mimeType, publicID string, tags []string) (*models.MediaAsset, error)
	UploadAudio(ctx context.Context, data []byte, folder string) (*models.MediaAsset, error)
	AssetURL(publicID string, opts models.AssetOptions) (string, error)
}
