package services

import (
	"context"

	"sitetrack/internal/domain/models"
)

type CreateTeamRequest struct {
	UserID      string               `json:"-"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Settings    *models.TeamSettings `json:"settings"`
}

type UpdateTeamRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Settings    *models.TeamSettings `json:"settings"`
}

type AddMemberRequest struct {
	UserID string            `json:"user_id"`
	Role   models.MemberRole `json:"role"`
}

// TeamService defines business logic operations for teams and membership
type TeamService interface {
	// ListTeams returns teams the user created or belongs to, once each
	ListTeams(ctx context.Context, userID string) ([]models.Team, error)
	CreateTeam(ctx context.Context, req *CreateTeamRequest) (*models.Team, error)
	GetTeam(ctx context.Context, id, userID string) (*models.Team, error)
	UpdateTeam(ctx context.Context, id, userID string, req *UpdateTeamRequest) (*models.Team, error)
	DeleteTeam(ctx context.Context, id, userID string) error

	AddMember(ctx context.Context, teamID, userID string, req *AddMemberRequest) (*models.Team, error)
	// RemoveMember rejects removing the last admin with domain.ErrValidation
	RemoveMember(ctx context.Context, teamID, userID, memberID string) (*models.Team, error)
	UpdateMemberRole(ctx context.Context, teamID, userID, memberID string, role models.MemberRole) (*models.Team, error)

	AddProject(ctx context.Context, teamID, userID, projectID string) (*models.Team, error)
	RemoveProject(ctx context.Context, teamID, userID, projectID string) (*models.Team, error)
}
