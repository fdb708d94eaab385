package auth

import (
	"context"
	"fmt"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
)

// MemberAuthorizer implements ResourceAuthorizer using project team
// membership. A user can access a project when the user id is in its team,
// and everything attached to the project through it.
type MemberAuthorizer struct {
	projectRepo  repositories.ProjectRepository
	taskRepo     repositories.TaskRepository
	progressRepo repositories.ProgressRepository
	docRepo      repositories.DocumentRepository
	teamRepo     repositories.TeamRepository
}

// NewMemberAuthorizer creates a new membership-based authorizer
func NewMemberAuthorizer(
	projectRepo repositories.ProjectRepository,
	taskRepo repositories.TaskRepository,
	progressRepo repositories.ProgressRepository,
	docRepo repositories.DocumentRepository,
	teamRepo repositories.TeamRepository,
) *MemberAuthorizer {
	return &MemberAuthorizer{
		projectRepo:  projectRepo,
		taskRepo:     taskRepo,
		progressRepo: progressRepo,
		docRepo:      docRepo,
		teamRepo:     teamRepo,
	}
}

// CanAccessProject checks that the user is on the project team
func (a *MemberAuthorizer) CanAccessProject(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, err := a.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(userID) {
		return nil, fmt.Errorf("access denied to project %s: %w", projectID, domain.ErrForbidden)
	}
	return project, nil
}

// CanAccessTask checks access to the task's project
func (a *MemberAuthorizer) CanAccessTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := a.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := a.CanAccessProject(ctx, userID, task.ProjectID); err != nil {
		return nil, err
	}
	return task, nil
}

// CanAccessProgress checks access to the update's project
func (a *MemberAuthorizer) CanAccessProgress(ctx context.Context, userID, updateID string) (*models.ProgressUpdate, error) {
	update, err := a.progressRepo.GetByID(ctx, updateID)
	if err != nil {
		return nil, err
	}
	if _, err := a.CanAccessProject(ctx, userID, update.ProjectID); err != nil {
		return nil, err
	}
	return update, nil
}

// CanAccessDocument allows the uploader, and project members for
// documents attached to a project
func (a *MemberAuthorizer) CanAccessDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, err := a.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UploadedBy == userID {
		return doc, nil
	}
	if doc.ProjectID == nil {
		return nil, fmt.Errorf("access denied to document %s: %w", documentID, domain.ErrForbidden)
	}
	if _, err := a.CanAccessProject(ctx, userID, *doc.ProjectID); err != nil {
		return nil, err
	}
	return doc, nil
}

// CanAccessTeam allows the creator and any member
func (a *MemberAuthorizer) CanAccessTeam(ctx context.Context, userID, teamID string) (*models.Team, error) {
	team, err := a.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CreatedBy != userID && team.Member(userID) == nil {
		return nil, fmt.Errorf("access denied to team %s: %w", teamID, domain.ErrForbidden)
	}
	return team, nil
}

// CanAdminTeam allows the creator and admin members
func (a *MemberAuthorizer) CanAdminTeam(ctx context.Context, userID, teamID string) (*models.Team, error) {
	team, err := a.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CreatedBy != userID && !team.IsAdmin(userID) {
		return nil, fmt.Errorf("team %s requires admin role: %w", teamID, domain.ErrForbidden)
	}
	return team, nil
}
