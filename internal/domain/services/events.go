package services

import (
	"context"

	"sitetrack/internal/domain/models"
)

// EventPublisher emits domain events for asynchronous consumers.
// Publishing is best effort: callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.Event) error
	Close() error
}
