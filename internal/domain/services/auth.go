package services

import (
	"context"

	"sitetrack/internal/domain/models"
)

// ResourceAuthorizer checks whether a user may access a resource.
// Access follows project team membership: tasks, progress updates and
// project documents inherit the visibility of their project.
//
// Each check returns the loaded resource so callers do not fetch it twice.
// Denials are domain.ErrForbidden; missing resources are domain.ErrNotFound.
type ResourceAuthorizer interface {
	CanAccessProject(ctx context.Context, userID, projectID string) (*models.Project, error)
	CanAccessTask(ctx context.Context, userID, taskID string) (*models.Task, error)
	CanAccessProgress(ctx context.Context, userID, updateID string) (*models.ProgressUpdate, error)
	CanAccessDocument(ctx context.Context, userID, documentID string) (*models.Document, error)

	// CanAccessTeam allows the creator and members
	CanAccessTeam(ctx context.Context, userID, teamID string) (*models.Team, error)
	// CanAdminTeam allows the creator and admin members
	CanAdminTeam(ctx context.Context, userID, teamID string) (*models.Team, error)
}
