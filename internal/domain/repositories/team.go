package repositories

import (
	"context"

	"sitetrack/internal/domain/models"
)

// TeamRepository defines data access operations for teams.
// Membership and project list changes are atomic single statements.
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	ListByCreator(ctx context.Context, userID string) ([]models.Team, error)
	ListByMember(ctx context.Context, userID string) ([]models.Team, error)

	// Update writes name, description and settings
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id string) error

	// AddMember appends member unless the user is already on the team.
	AddMember(ctx context.Context, teamID string, member models.TeamMember) (*models.Team, error)

	// RemoveMember removes the user. Fails with ErrValidation when the user
	// is the last admin and ErrNotFound when the user is not a member.
	RemoveMember(ctx context.Context, teamID, userID string) (*models.Team, error)

	// UpdateMemberRole fails like RemoveMember when demoting the last admin
	UpdateMemberRole(ctx context.Context, teamID, userID string, role models.MemberRole) (*models.Team, error)

	AddProject(ctx context.Context, teamID, projectID string) (*models.Team, error)
	RemoveProject(ctx context.Context, teamID, projectID string) (*models.Team, error)

	// DetachProject removes projectID from every team that lists it
	DetachProject(ctx context.Context, projectID string) error
}
