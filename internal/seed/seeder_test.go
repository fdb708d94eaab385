package seed

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
)

type stubIdentities struct{ calls int }

func (s *stubIdentities) EnsureUser(ctx context.Context, name, email, password string) (string, error) {
	s.calls++
	return "uid-" + email, nil
}

type stubUsers struct {
	created map[string]*models.UserProfile
}

func (s *stubUsers) Create(ctx context.Context, p *models.UserProfile) error {
	if _, ok := s.created[p.ID]; ok {
		return &domain.ConflictError{Message: "exists", ResourceID: p.ID}
	}
	s.created[p.ID] = p
	return nil
}
func (s *stubUsers) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	return s.created[id], nil
}
func (s *stubUsers) GetByIDs(ctx context.Context, ids []string) ([]models.UserProfile, error) {
	return nil, nil
}
func (s *stubUsers) Update(ctx context.Context, p *models.UserProfile) error { return nil }
func (s *stubUsers) List(ctx context.Context) ([]models.UserProfile, error) { return nil, nil }

type stubProjects struct {
	services.ProjectService
	reqs []*services.CreateProjectRequest
}

func (s *stubProjects) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	s.reqs = append(s.reqs, req)
	return &models.Project{ID: "p-" + req.Name, Name: req.Name}, nil
}

type stubTasks struct {
	services.TaskService
	reqs     []*services.CreateTaskRequest
	comments []string
}

func (s *stubTasks) CreateTask(ctx context.Context, req *services.CreateTaskRequest) (*models.Task, error) {
	s.reqs = append(s.reqs, req)
	return &models.Task{ID: "t1"}, nil
}

func (s *stubTasks) AddComment(ctx context.Context, taskID, userID, text string) (*models.Task, error) {
	s.comments = append(s.comments, userID+":"+text)
	return &models.Task{ID: taskID}, nil
}

type stubProgress struct {
	services.ProgressService
	reqs []*services.CreateProgressRequest
}

func (s *stubProgress) CreateProgressUpdate(ctx context.Context, req *services.CreateProgressRequest) (*models.ProgressUpdate, error) {
	s.reqs = append(s.reqs, req)
	return &models.ProgressUpdate{ID: "u1"}, nil
}

type stubTeams struct {
	services.TeamService
	members  []string
	projects []string
}

func (s *stubTeams) CreateTeam(ctx context.Context, req *services.CreateTeamRequest) (*models.Team, error) {
	return &models.Team{ID: "team-1", Name: req.Name, CreatedBy: req.UserID}, nil
}

func (s *stubTeams) AddMember(ctx context.Context, teamID, userID string, req *services.AddMemberRequest) (*models.Team, error) {
	s.members = append(s.members, req.UserID)
	return &models.Team{ID: teamID}, nil
}

func (s *stubTeams) AddProject(ctx context.Context, teamID, userID, projectID string) (*models.Team, error) {
	s.projects = append(s.projects, projectID)
	return &models.Team{ID: teamID}, nil
}

type stubSettings struct {
	services.UserSettingsService
	updated map[string]*models.UpdateSettingsRequest
}

func (s *stubSettings) UpdateSettings(ctx context.Context, userID string, req *models.UpdateSettingsRequest) (*models.UserSettings, error) {
	s.updated[userID] = req
	return &models.UserSettings{UserID: userID}, nil
}

func TestSeeder_Run(t *testing.T) {
	f, err := LoadFixture(strings.NewReader(validFixture))
	if err != nil {
		t.Fatal(err)
	}

	ids := &stubIdentities{}
	users := &stubUsers{created: map[string]*models.UserProfile{}}
	projects := &stubProjects{}
	tasks := &stubTasks{}
	progress := &stubProgress{}
	teams := &stubTeams{}
	settings := &stubSettings{updated: map[string]*models.UpdateSettingsRequest{}}

	s := NewSeeder(ids, users, projects, tasks, progress, teams, settings,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC) }

	sum, err := s.Run(context.Background(), f)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := Summary{Users: 2, Projects: 1, Tasks: 1, Comments: 1, Updates: 1, Teams: 1}
	if *sum != want {
		t.Errorf("summary = %+v, want %+v", *sum, want)
	}

	const ana, bruno = "uid-ana@example.com", "uid-bruno@example.com"

	p := projects.reqs[0]
	if p.UserID != ana || len(p.Team) != 1 || p.Team[0] != bruno {
		t.Errorf("project request = %+v", p)
	}
	if want := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC); !p.StartDate.Equal(want) {
		t.Errorf("start = %v, want %v", p.StartDate, want)
	}

	task := tasks.reqs[0]
	if task.AssignedTo != bruno || task.DueDate == nil || !task.DueDate.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("task request = %+v", task)
	}
	if tasks.comments[0] != ana+":Concrete arrives Monday" {
		t.Errorf("comment = %q", tasks.comments[0])
	}
	if progress.reqs[0].UserID != bruno || progress.reqs[0].ProjectID != "p-Riverside Apartments" {
		t.Errorf("progress request = %+v", progress.reqs[0])
	}
	if len(teams.members) != 1 || teams.members[0] != bruno {
		t.Errorf("members = %v", teams.members)
	}
	if len(teams.projects) != 1 || teams.projects[0] != "p-Riverside Apartments" {
		t.Errorf("team projects = %v", teams.projects)
	}
	if lang := settings.updated[ana].Language; lang == nil || *lang != "pt-BR" {
		t.Errorf("settings = %+v", settings.updated[ana])
	}
	if _, ok := settings.updated[bruno]; ok {
		t.Error("user without settings block should not get an update")
	}

	// A second run reuses existing profiles
	if _, err := s.Run(context.Background(), f); err != nil {
		t.Fatalf("second Run: %v", err)
	}
}
