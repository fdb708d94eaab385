package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/domain/services"
)

// UserEnsurer creates an identity if missing and returns its uid.
// Both auth.AdminClient and auth.LocalProvider satisfy it.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, name, email, password string) (string, error)
}

// Summary counts what a run created
type Summary struct {
	Users    int
	Projects int
	Tasks    int
	Comments int
	Updates  int
	Teams    int
}

// Seeder loads a Fixture through the service layer so seeded data obeys
// the same validation and membership rules as API writes.
type Seeder struct {
	identities UserEnsurer
	userRepo   repositories.UserRepository
	projects   services.ProjectService
	tasks      services.TaskService
	progress   services.ProgressService
	teams      services.TeamService
	settings   services.UserSettingsService
	logger     *slog.Logger
	now        func() time.Time
}

func NewSeeder(
	identities UserEnsurer,
	userRepo repositories.UserRepository,
	projects services.ProjectService,
	tasks services.TaskService,
	progress services.ProgressService,
	teams services.TeamService,
	settings services.UserSettingsService,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		identities: identities,
		userRepo:   userRepo,
		projects:   projects,
		tasks:      tasks,
		progress:   progress,
		teams:      teams,
		settings:   settings,
		logger:     logger,
		now:        time.Now,
	}
}

// Run seeds f. Users are reused when they already exist; everything else
// is created fresh.
func (s *Seeder) Run(ctx context.Context, f *Fixture) (*Summary, error) {
	var sum Summary

	uids := make(map[string]string, len(f.Users))
	for _, u := range f.Users {
		uid, err := s.seedUser(ctx, u)
		if err != nil {
			return &sum, fmt.Errorf("user %s: %w", u.Email, err)
		}
		uids[normalize(u.Email)] = uid
		sum.Users++
	}
	uid := func(email string) string { return uids[normalize(email)] }

	projectIDs := make(map[string]string, len(f.Projects))
	for _, p := range f.Projects {
		id, err := s.seedProject(ctx, p, uid, &sum)
		if err != nil {
			return &sum, fmt.Errorf("project %s: %w", p.Key, err)
		}
		projectIDs[p.Key] = id
	}

	for _, t := range f.Teams {
		if err := s.seedTeam(ctx, t, uid, projectIDs); err != nil {
			return &sum, fmt.Errorf("team %s: %w", t.Name, err)
		}
		sum.Teams++
	}

	return &sum, nil
}

func (s *Seeder) seedUser(ctx context.Context, u UserFixture) (string, error) {
	uid, err := s.identities.EnsureUser(ctx, u.Name, normalize(u.Email), u.Password)
	if err != nil {
		return "", err
	}

	profile := &models.UserProfile{
		ID:        uid,
		Email:     normalize(u.Email),
		Name:      u.Name,
		Role:      models.RoleUser,
		CreatedAt: s.now().UTC(),
		UpdatedAt: s.now().UTC(),
	}
	if u.Phone != "" {
		profile.Phone = &u.Phone
	}
	if err := s.userRepo.Create(ctx, profile); err != nil && !errors.Is(err, domain.ErrConflict) {
		return "", err
	}

	if u.Settings != nil {
		req := &models.UpdateSettingsRequest{
			NotificationsEnabled: u.Settings.NotificationsEnabled,
			DarkModeEnabled:      u.Settings.DarkModeEnabled,
		}
		if u.Settings.Language != "" {
			req.Language = &u.Settings.Language
		}
		if u.Settings.Timezone != "" {
			req.Timezone = &u.Settings.Timezone
		}
		if _, err := s.settings.UpdateSettings(ctx, uid, req); err != nil {
			return "", fmt.Errorf("settings: %w", err)
		}
	}

	s.logger.Info("seeded user", "email", u.Email, "user_id", uid)
	return uid, nil
}

func (s *Seeder) seedProject(ctx context.Context, p ProjectFixture, uid func(string) string, sum *Summary) (string, error) {
	owner := uid(p.Owner)
	team := make([]string, 0, len(p.Team))
	for _, email := range p.Team {
		team = append(team, uid(email))
	}

	req := &services.CreateProjectRequest{
		UserID:      owner,
		Name:        p.Name,
		Description: p.Description,
		Client:      p.Client,
		Location:    p.Location,
		StartDate:   s.day(p.StartInDays),
		Budget:      p.Budget,
		Status:      p.Status,
		Progress:    p.Progress,
		Team:        team,
	}
	if p.EndInDays != nil {
		end := s.day(*p.EndInDays)
		req.EndDate = &end
	}

	project, err := s.projects.CreateProject(ctx, req)
	if err != nil {
		return "", err
	}
	sum.Projects++

	for _, t := range p.Tasks {
		if err := s.seedTask(ctx, project.ID, owner, t, uid, sum); err != nil {
			return "", fmt.Errorf("task %q: %w", t.Title, err)
		}
	}

	for _, u := range p.Updates {
		_, err := s.progress.CreateProgressUpdate(ctx, &services.CreateProgressRequest{
			UserID:      uid(u.Author),
			ProjectID:   project.ID,
			Description: u.Description,
			Progress:    u.Progress,
			Images:      u.Images,
		})
		if err != nil {
			return "", fmt.Errorf("progress update: %w", err)
		}
		sum.Updates++
	}

	s.logger.Info("seeded project",
		"project_id", project.ID,
		"name", project.Name,
		"tasks", len(p.Tasks),
		"progress_updates", len(p.Updates),
	)
	return project.ID, nil
}

func (s *Seeder) seedTask(ctx context.Context, projectID, owner string, t TaskFixture, uid func(string) string, sum *Summary) error {
	req := &services.CreateTaskRequest{
		UserID:      owner,
		ProjectID:   projectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		AssignedTo:  uid(t.AssignedTo),
	}
	if t.DueInDays != nil {
		due := s.day(*t.DueInDays)
		req.DueDate = &due
	}

	task, err := s.tasks.CreateTask(ctx, req)
	if err != nil {
		return err
	}
	sum.Tasks++

	for _, c := range t.Comments {
		if _, err := s.tasks.AddComment(ctx, task.ID, uid(c.Author), c.Text); err != nil {
			return fmt.Errorf("comment: %w", err)
		}
		sum.Comments++
	}
	return nil
}

func (s *Seeder) seedTeam(ctx context.Context, t TeamFixture, uid func(string) string, projectIDs map[string]string) error {
	owner := uid(t.Owner)
	team, err := s.teams.CreateTeam(ctx, &services.CreateTeamRequest{
		UserID:      owner,
		Name:        t.Name,
		Description: t.Description,
	})
	if err != nil {
		return err
	}

	for _, m := range t.Members {
		_, err := s.teams.AddMember(ctx, team.ID, owner, &services.AddMemberRequest{
			UserID: uid(m.Email),
			Role:   m.Role,
		})
		if err != nil {
			return fmt.Errorf("member %s: %w", m.Email, err)
		}
	}

	for _, key := range t.Projects {
		if _, err := s.teams.AddProject(ctx, team.ID, owner, projectIDs[key]); err != nil {
			return fmt.Errorf("project %s: %w", key, err)
		}
	}

	s.logger.Info("seeded team", "team_id", team.ID, "name", t.Name, "members", len(t.Members)+1)
	return nil
}

// day returns midnight UTC offset days from now
func (s *Seeder) day(offset int) time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}
