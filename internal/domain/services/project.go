package services

import (
	"context"
	"time"

	"sitetrack/internal/domain/models"
)

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	UserID      string               `json:"-"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Client      string               `json:"client"`
	Location    string               `json:"location"`
	StartDate   time.Time            `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
	Budget      float64              `json:"budget"`
	Status      models.ProjectStatus `json:"status"`
	Progress    int                  `json:"progress"`
	Team        []string             `json:"team"`
}

// UpdateProjectRequest is a merge-patch. ExpectedUpdatedAt, when set,
// must match the stored value or the update fails with a conflict.
type UpdateProjectRequest struct {
	Name              *string               `json:"name"`
	Description       *string               `json:"description"`
	Client            *string               `json:"client"`
	Location          *string               `json:"location"`
	StartDate         *time.Time            `json:"start_date"`
	EndDate           *time.Time            `json:"end_date"`
	Budget            *float64              `json:"budget"`
	Status            *models.ProjectStatus `json:"status"`
	Progress          *int                  `json:"progress"`
	Team              []string              `json:"team"`
	ExpectedUpdatedAt *time.Time            `json:"expected_updated_at"`
}

// ProjectList is a filtered one-shot project query
type ProjectList struct {
	Projects []models.Project     `json:"projects"`
	Counts   models.ProjectCounts `json:"counts"`
}

// ProjectService defines business logic operations for projects
type ProjectService interface {
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*models.Project, error)
	GetProject(ctx context.Context, id, userID string) (*models.Project, error)

	// ListProjects returns the user's projects filtered by f. Counts cover
	// the unfiltered set.
	ListProjects(ctx context.Context, userID string, f models.ProjectFilter) (*ProjectList, error)

	// SubscribeProjects streams full snapshots of the user's projects
	// until ctx is done.
	SubscribeProjects(ctx context.Context, userID string) (<-chan models.ProjectSnapshot, error)

	UpdateProject(ctx context.Context, id, userID string, req *UpdateProjectRequest) (*models.Project, error)

	// DeleteProject removes the project, its tasks and progress updates,
	// and detaches it from teams. A missing project is domain.ErrNotFound.
	DeleteProject(ctx context.Context, id, userID string) error
}
