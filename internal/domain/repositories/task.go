package repositories

import (
	"context"
	"time"

	"sitetrack/internal/domain/models"
)

// TaskRepository defines data access operations for tasks.
// Every write sets updated_at strictly after its previous value.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)

	// ListByProject returns the project's tasks, newest first
	ListByProject(ctx context.Context, projectID string) ([]models.Task, error)

	// ListUpcoming returns tasks due after `after` in projects whose team
	// contains userID, soonest first.
	ListUpcoming(ctx context.Context, userID string, after time.Time, limit int) ([]models.UpcomingTask, error)

	// Update writes all mutable fields, honoring expectedUpdatedAt like
	// ProjectRepository.Update. The stored updated_at is written back.
	Update(ctx context.Context, task *models.Task, expectedUpdatedAt *time.Time) error

	Delete(ctx context.Context, id string) error

	// Comment operations are single statements over the JSONB array
	AddComment(ctx context.Context, taskID string, comment models.Comment) (*models.Task, error)
	UpdateComment(ctx context.Context, taskID, commentID, text string, at time.Time) (*models.Task, error)
	DeleteComment(ctx context.Context, taskID, commentID string) (*models.Task, error)

	SetVoiceNote(ctx context.Context, taskID string, note *models.VoiceNote) (*models.Task, error)
}
