package repositories

import (
	"context"
	"time"

	"sitetrack/internal/domain/models"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create inserts the project and fills ID and timestamps
	Create(ctx context.Context, project *models.Project) error

	GetByID(ctx context.Context, id string) (*models.Project, error)

	// ListForMember returns projects whose team contains userID, newest first
	ListForMember(ctx context.Context, userID string) ([]models.Project, error)

	// Update writes all mutable fields. When expectedUpdatedAt is set and
	// does not match the stored value a ConflictError is returned.
	Update(ctx context.Context, project *models.Project, expectedUpdatedAt *time.Time) error

	// Delete removes the project. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// IndexInspector reports on the readiness of query indexes
type IndexInspector interface {
	// ProjectTeamIndexReady reports whether the team containment index is
	// valid and ready for queries.
	ProjectTeamIndexReady(ctx context.Context) (bool, error)
}
