package events

import (
	"context"
	"fmt"
	"log/slog"

	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/metrics"
)

// Dispatcher delivers notifications to event recipients who have
// notifications enabled. Delivery is a structured log line; push
// transports plug in here.
type Dispatcher struct {
	settings repositories.UserSettingsRepository
	logger   *slog.Logger
}

func NewDispatcher(settings repositories.UserSettingsRepository, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{settings: settings, logger: logger}
}

// Handle implements Handler
func (d *Dispatcher) Handle(ctx context.Context, event *models.Event) error {
	for _, uid := range event.Recipients {
		if uid == event.ActorID {
			continue
		}

		s, err := d.settings.GetByUserID(ctx, uid)
		if err != nil {
			metrics.IncrementNotification(string(event.Type), "error")
			return fmt.Errorf("load settings for %s: %w", uid, err)
		}
		if s == nil {
			s = models.DefaultUserSettings(uid)
		}

		if !s.NotificationsEnabled {
			metrics.IncrementNotification(string(event.Type), "muted")
			continue
		}

		d.logger.Info("notification dispatched",
			"event", event.Type,
			"event_id", event.ID,
			"recipient", uid,
			"title", event.Title,
			"language", s.Language,
		)
		metrics.IncrementNotification(string(event.Type), "sent")
	}
	return nil
}
