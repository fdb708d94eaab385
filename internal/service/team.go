package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"sitetrack/internal/config"
	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/events"
)

// lastAdminMessage is returned when a change would leave a team without admins
const lastAdminMessage = "Cannot remove the last admin"

// teamService implements the TeamService interface
type teamService struct {
	teamRepo   repositories.TeamRepository
	userRepo   repositories.UserRepository
	authorizer services.ResourceAuthorizer
	publisher  services.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewTeamService creates a new team service
func NewTeamService(
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	authorizer services.ResourceAuthorizer,
	publisher services.EventPublisher,
	logger *slog.Logger,
) services.TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		userRepo:   userRepo,
		authorizer: authorizer,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// ListTeams merges created and member teams, keeping the first occurrence
func (s *teamService) ListTeams(ctx context.Context, userID string) ([]models.Team, error) {
	created, err := s.teamRepo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}
	member, err := s.teamRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	teams := make([]models.Team, 0, len(created)+len(member))
	seen := make(map[string]struct{}, len(created)+len(member))
	for _, t := range append(created, member...) {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		teams = append(teams, t)
	}
	return teams, nil
}

// CreateTeam creates a team with the creator as its only admin
func (s *teamService) CreateTeam(ctx context.Context, req *services.CreateTeamRequest) (*models.Team, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxTeamNameLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	settings := models.DefaultTeamSettings()
	if req.Settings != nil {
		if !req.Settings.DefaultRole.Valid() {
			return nil, fmt.Errorf("%w: default_role: must be admin or member", domain.ErrValidation)
		}
		settings = *req.Settings
	}

	creator, err := s.memberFor(ctx, req.UserID, models.MemberAdmin)
	if err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Members:     []models.TeamMember{creator},
		Projects:    []string{},
		Settings:    settings,
		CreatedBy:   req.UserID,
		CreatedAt:   s.now().UTC(),
	}
	team.UpdatedAt = team.CreatedAt

	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}

	s.logger.Info("team created",
		"id", team.ID,
		"name", team.Name,
		"user_id", req.UserID,
	)

	return team, nil
}

// GetTeam retrieves a team visible to the user
func (s *teamService) GetTeam(ctx context.Context, id, userID string) (*models.Team, error) {
	return s.authorizer.CanAccessTeam(ctx, userID, id)
}

// UpdateTeam renames a team or changes its settings. Admins only.
func (s *teamService) UpdateTeam(ctx context.Context, id, userID string, req *services.UpdateTeamRequest) (*models.Team, error) {
	team, err := s.authorizer.CanAdminTeam(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		team.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		team.Description = strings.TrimSpace(*req.Description)
	}
	if req.Settings != nil {
		team.Settings = *req.Settings
	}

	if err := validation.ValidateStruct(team,
		validation.Field(&team.Name, validation.Required, validation.Length(1, config.MaxTeamNameLength)),
		validation.Field(&team.Description, validation.Length(0, config.MaxDescriptionLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if !team.Settings.DefaultRole.Valid() {
		return nil, fmt.Errorf("%w: default_role: must be admin or member", domain.ErrValidation)
	}

	team.UpdatedAt = s.now().UTC()
	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, err
	}

	s.logger.Info("team updated",
		"id", team.ID,
		"user_id", userID,
	)

	return team, nil
}

// DeleteTeam deletes a team. Admins only.
func (s *teamService) DeleteTeam(ctx context.Context, id, userID string) error {
	if _, err := s.authorizer.CanAdminTeam(ctx, userID, id); err != nil {
		return err
	}

	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("team deleted",
		"id", id,
		"user_id", userID,
	)

	return nil
}

// AddMember adds a user to the team. Admins may always invite; members
// may invite when the team allows it. Adding an existing member is a no-op.
func (s *teamService) AddMember(ctx context.Context, teamID, userID string, req *services.AddMemberRequest) (*models.Team, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}

	team, err := s.authorizer.CanAccessTeam(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	isAdmin := team.CreatedBy == userID || team.IsAdmin(userID)
	if !isAdmin && !team.Settings.AllowMemberInvites {
		return nil, fmt.Errorf("team %s does not allow member invites: %w", teamID, domain.ErrForbidden)
	}

	role := req.Role
	if role == "" {
		role = team.Settings.DefaultRole
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role: must be admin or member", domain.ErrValidation)
	}
	if role == models.MemberAdmin && !isAdmin {
		return nil, fmt.Errorf("only admins can add admins: %w", domain.ErrForbidden)
	}

	member, err := s.memberFor(ctx, req.UserID, role)
	if err != nil {
		return nil, err
	}

	alreadyMember := team.Member(req.UserID) != nil
	updated, err := s.teamRepo.AddMember(ctx, teamID, member)
	if err != nil {
		return nil, err
	}
	if alreadyMember {
		return updated, nil
	}

	s.logger.Info("team member added",
		"team_id", teamID,
		"member_id", req.UserID,
		"role", role,
		"user_id", userID,
	)

	if err := s.publisher.Publish(ctx, &models.Event{
		Type:       models.EventTeamMemberAdded,
		ActorID:    userID,
		Recipients: events.Recipients(userID, req.UserID),
		TeamID:     teamID,
		Title:      updated.Name,
	}); err != nil {
		s.logger.Warn("failed to publish event", "type", models.EventTeamMemberAdded, "team_id", teamID, "error", err)
	}

	return updated, nil
}

// RemoveMember removes a member. Admins may remove anyone; members may
// remove themselves. The last admin cannot be removed.
func (s *teamService) RemoveMember(ctx context.Context, teamID, userID, memberID string) (*models.Team, error) {
	team, err := s.authorizer.CanAccessTeam(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if memberID != userID && team.CreatedBy != userID && !team.IsAdmin(userID) {
		return nil, fmt.Errorf("team %s requires admin role: %w", teamID, domain.ErrForbidden)
	}

	target := team.Member(memberID)
	if target == nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("member not found: %s", memberID)}
	}
	// the repository repeats this check atomically
	if target.Role == models.MemberAdmin && team.AdminCount() <= 1 {
		return nil, &domain.ValidationError{Message: lastAdminMessage}
	}

	updated, err := s.teamRepo.RemoveMember(ctx, teamID, memberID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("team member removed",
		"team_id", teamID,
		"member_id", memberID,
		"user_id", userID,
	)

	return updated, nil
}

// UpdateMemberRole changes a member's role. Admins only.
func (s *teamService) UpdateMemberRole(ctx context.Context, teamID, userID, memberID string, role models.MemberRole) (*models.Team, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role: must be admin or member", domain.ErrValidation)
	}

	team, err := s.authorizer.CanAdminTeam(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	target := team.Member(memberID)
	if target == nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("member not found: %s", memberID)}
	}
	if target.Role == models.MemberAdmin && role != models.MemberAdmin && team.AdminCount() <= 1 {
		return nil, &domain.ValidationError{Message: lastAdminMessage}
	}

	updated, err := s.teamRepo.UpdateMemberRole(ctx, teamID, memberID, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("team member role updated",
		"team_id", teamID,
		"member_id", memberID,
		"role", role,
		"user_id", userID,
	)

	return updated, nil
}

// AddProject links a project the caller can see to the team
func (s *teamService) AddProject(ctx context.Context, teamID, userID, projectID string) (*models.Team, error) {
	if _, err := s.authorizer.CanAdminTeam(ctx, userID, teamID); err != nil {
		return nil, err
	}
	if _, err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.AddProject(ctx, teamID, projectID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("team project added",
		"team_id", teamID,
		"project_id", projectID,
		"user_id", userID,
	)

	return team, nil
}

// RemoveProject unlinks a project from the team
func (s *teamService) RemoveProject(ctx context.Context, teamID, userID, projectID string) (*models.Team, error) {
	if _, err := s.authorizer.CanAdminTeam(ctx, userID, teamID); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.RemoveProject(ctx, teamID, projectID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("team project removed",
		"team_id", teamID,
		"project_id", projectID,
		"user_id", userID,
	)

	return team, nil
}

// memberFor builds a membership entry from the user's profile. Users
// without a profile are added with an empty name and email.
func (s *teamService) memberFor(ctx context.Context, userID string, role models.MemberRole) (models.TeamMember, error) {
	member := models.TeamMember{
		UserID:   userID,
		Role:     role,
		JoinedAt: s.now().UTC(),
	}

	profile, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return member, nil
		}
		return member, err
	}

	member.Name = profile.Name
	member.Email = profile.Email
	if profile.PhotoURL != nil {
		member.Avatar = *profile.PhotoURL
	}
	return member, nil
}
