package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/realtime"
	svcauth "sitetrack/internal/service/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory stand-in for the PostgreSQL repositories. Writes
// publish change events the way the table triggers do.
type memStore struct {
	mu         sync.Mutex
	projects   map[string]models.Project
	tasks      map[string]models.Task
	teams      map[string]models.Team
	documents  map[string]models.Document
	progress   map[string]models.ProgressUpdate
	users      map[string]models.UserProfile
	settings   map[string]models.UserSettings
	indexReady bool
	feed       *realtime.Hub
	clock      time.Time
}

func newMemStore() *memStore {
	return &memStore{
		projects:   map[string]models.Project{},
		tasks:      map[string]models.Task{},
		teams:      map[string]models.Team{},
		documents:  map[string]models.Document{},
		progress:   map[string]models.ProgressUpdate{},
		users:      map[string]models.UserProfile{},
		settings:   map[string]models.UserSettings{},
		indexReady: true,
		feed:       realtime.NewHub(testLogger()),
		clock:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp. Callers hold mu.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

// now is the service clock; it shares tick so service stamps and store
// bumps never collide
func (m *memStore) now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tick()
}

// unstamped rejects writes that arrive without service-supplied timestamps;
// the PostgreSQL repositories bind them as given
func unstamped(resource string, ts ...time.Time) error {
	for _, t := range ts {
		if t.IsZero() {
			return fmt.Errorf("%s: zero timestamp", resource)
		}
	}
	return nil
}

// bumped mirrors GREATEST(given, updated_at + 1µs)
func bumped(given, current time.Time) time.Time {
	if next := current.Add(time.Microsecond); next.After(given) {
		return next
	}
	return given
}

func (m *memStore) notify(table, op, id, projectID string, team []string) {
	m.feed.Publish(repositories.ChangeEvent{Table: table, Op: op, ID: id, ProjectID: projectID, Team: team})
}

func notFound(resource, id string) error {
	return fmt.Errorf("%s %s: %w", resource, id, domain.ErrNotFound)
}

// authorizer wires the real membership authorizer over the store
func (m *memStore) authorizer() *svcauth.MemberAuthorizer {
	return svcauth.NewMemberAuthorizer(projectRepo{m}, taskRepo{m}, progressRepo{m}, documentRepo{m}, teamRepo{m})
}

// --- projects ---

type projectRepo struct{ m *memStore }

func (r projectRepo) Create(ctx context.Context, p *models.Project) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := unstamped("project", p.CreatedAt, p.UpdatedAt); err != nil {
		return err
	}
	p.ID = uuid.NewString()
	cp := *p
	cp.Team = slices.Clone(p.Team)
	r.m.projects[p.ID] = cp
	r.m.notify("projects", "INSERT", p.ID, "", cp.Team)
	return nil
}

func (r projectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.projects[id]
	if !ok {
		return nil, notFound("project", id)
	}
	p.Team = slices.Clone(p.Team)
	return &p, nil
}

func (r projectRepo) ListForMember(ctx context.Context, userID string) ([]models.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.Project{}
	for _, p := range r.m.projects {
		if slices.Contains(p.Team, userID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r projectRepo) Update(ctx context.Context, p *models.Project, expected *time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.projects[p.ID]
	if !ok {
		return notFound("project", p.ID)
	}
	if expected != nil && !expected.Equal(cur.UpdatedAt) {
		return &domain.ConflictError{Message: "project was modified", ResourceType: "project", ResourceID: p.ID}
	}
	if err := unstamped("project", p.UpdatedAt); err != nil {
		return err
	}
	p.UpdatedAt = bumped(p.UpdatedAt, cur.UpdatedAt)
	cp := *p
	cp.Team = slices.Clone(p.Team)
	r.m.projects[p.ID] = cp
	r.m.notify("projects", "UPDATE", p.ID, "", cp.Team)
	return nil
}

func (r projectRepo) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.projects[id]
	if !ok {
		return notFound("project", id)
	}
	delete(r.m.projects, id)
	for tid, t := range r.m.tasks {
		if t.ProjectID == id {
			delete(r.m.tasks, tid)
		}
	}
	for pid, u := range r.m.progress {
		if u.ProjectID == id {
			delete(r.m.progress, pid)
		}
	}
	r.m.notify("projects", "DELETE", id, "", p.Team)
	return nil
}

type indexInspector struct{ m *memStore }

func (i indexInspector) ProjectTeamIndexReady(ctx context.Context) (bool, error) {
	i.m.mu.Lock()
	defer i.m.mu.Unlock()
	return i.m.indexReady, nil
}

func (m *memStore) setIndexReady(ready bool) {
	m.mu.Lock()
	m.indexReady = ready
	m.mu.Unlock()
}

// --- tasks ---

type taskRepo struct{ m *memStore }

func cloneTask(t models.Task) models.Task {
	t.Comments = slices.Clone(t.Comments)
	return t
}

func (r taskRepo) Create(ctx context.Context, t *models.Task) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.projects[t.ProjectID]; !ok {
		return notFound("project", t.ProjectID)
	}
	if err := unstamped("task", t.CreatedAt, t.UpdatedAt); err != nil {
		return err
	}
	t.ID = uuid.NewString()
	if t.Comments == nil {
		t.Comments = []models.Comment{}
	}
	r.m.tasks[t.ID] = cloneTask(*t)
	r.m.notify("tasks", "INSERT", t.ID, t.ProjectID, nil)
	return nil
}

func (r taskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tasks[id]
	if !ok {
		return nil, notFound("task", id)
	}
	t = cloneTask(t)
	return &t, nil
}

func (r taskRepo) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.Task{}
	for _, t := range r.m.tasks {
		if t.ProjectID == projectID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r taskRepo) ListUpcoming(ctx context.Context, userID string, after time.Time, limit int) ([]models.UpcomingTask, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.UpcomingTask{}
	for _, t := range r.m.tasks {
		p, ok := r.m.projects[t.ProjectID]
		if !ok || !slices.Contains(p.Team, userID) || t.DueDate == nil || !t.DueDate.After(after) {
			continue
		}
		out = append(out, models.UpcomingTask{Task: cloneTask(t), ProjectName: p.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r taskRepo) Update(ctx context.Context, t *models.Task, expected *time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.tasks[t.ID]
	if !ok {
		return notFound("task", t.ID)
	}
	if expected != nil && !expected.Equal(cur.UpdatedAt) {
		return &domain.ConflictError{Message: "task was modified", ResourceType: "task", ResourceID: t.ID}
	}
	t.UpdatedAt = r.m.tick()
	r.m.tasks[t.ID] = cloneTask(*t)
	r.m.notify("tasks", "UPDATE", t.ID, t.ProjectID, nil)
	return nil
}

func (r taskRepo) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tasks[id]
	if !ok {
		return notFound("task", id)
	}
	delete(r.m.tasks, id)
	r.m.notify("tasks", "DELETE", id, t.ProjectID, nil)
	return nil
}

// mutate applies fn to a stored task under the lock
func (r taskRepo) mutate(taskID string, fn func(t *models.Task) error) (*models.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tasks[taskID]
	if !ok {
		return nil, notFound("task", taskID)
	}
	t = cloneTask(t)
	if err := fn(&t); err != nil {
		return nil, err
	}
	t.UpdatedAt = r.m.tick()
	r.m.tasks[taskID] = t
	r.m.notify("tasks", "UPDATE", t.ID, t.ProjectID, nil)
	out := cloneTask(t)
	return &out, nil
}

func (r taskRepo) AddComment(ctx context.Context, taskID string, c models.Comment) (*models.Task, error) {
	return r.mutate(taskID, func(t *models.Task) error {
		t.Comments = append(t.Comments, c)
		return nil
	})
}

func (r taskRepo) UpdateComment(ctx context.Context, taskID, commentID, text string, at time.Time) (*models.Task, error) {
	return r.mutate(taskID, func(t *models.Task) error {
		for i := range t.Comments {
			if t.Comments[i].ID == commentID {
				t.Comments[i].Text = text
				t.Comments[i].UpdatedAt = at
				return nil
			}
		}
		return notFound("comment", commentID)
	})
}

func (r taskRepo) DeleteComment(ctx context.Context, taskID, commentID string) (*models.Task, error) {
	return r.mutate(taskID, func(t *models.Task) error {
		for i := range t.Comments {
			if t.Comments[i].ID == commentID {
				t.Comments = slices.Delete(t.Comments, i, i+1)
				return nil
			}
		}
		return notFound("comment", commentID)
	})
}

func (r taskRepo) SetVoiceNote(ctx context.Context, taskID string, note *models.VoiceNote) (*models.Task, error) {
	return r.mutate(taskID, func(t *models.Task) error {
		t.VoiceNote = note
		return nil
	})
}

// --- teams ---

type teamRepo struct{ m *memStore }

func cloneTeam(t models.Team) models.Team {
	t.Members = slices.Clone(t.Members)
	t.Projects = slices.Clone(t.Projects)
	return t
}

func (r teamRepo) Create(ctx context.Context, t *models.Team) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := unstamped("team", t.CreatedAt, t.UpdatedAt); err != nil {
		return err
	}
	t.ID = uuid.NewString()
	r.m.teams[t.ID] = cloneTeam(*t)
	return nil
}

func (r teamRepo) GetByID(ctx context.Context, id string) (*models.Team, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.teams[id]
	if !ok {
		return nil, notFound("team", id)
	}
	t = cloneTeam(t)
	return &t, nil
}

func (r teamRepo) list(match func(models.Team) bool) []models.Team {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.Team{}
	for _, t := range r.m.teams {
		if match(t) {
			out = append(out, cloneTeam(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r teamRepo) ListByCreator(ctx context.Context, userID string) ([]models.Team, error) {
	return r.list(func(t models.Team) bool { return t.CreatedBy == userID }), nil
}

func (r teamRepo) ListByMember(ctx context.Context, userID string) ([]models.Team, error) {
	return r.list(func(t models.Team) bool { return t.Member(userID) != nil }), nil
}

func (r teamRepo) Update(ctx context.Context, t *models.Team) error {
	if err := unstamped("team", t.UpdatedAt); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.teams[t.ID]
	if !ok {
		return notFound("team", t.ID)
	}
	cur = cloneTeam(cur)
	cur.Name = t.Name
	cur.Description = t.Description
	cur.Settings = t.Settings
	cur.UpdatedAt = bumped(t.UpdatedAt, cur.UpdatedAt)
	t.UpdatedAt = cur.UpdatedAt
	r.m.teams[t.ID] = cur
	return nil
}

func (r teamRepo) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.teams[id]; !ok {
		return notFound("team", id)
	}
	delete(r.m.teams, id)
	return nil
}

func (r teamRepo) mutate(teamID string, fn func(t *models.Team) error) (*models.Team, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.teams[teamID]
	if !ok {
		return nil, notFound("team", teamID)
	}
	t = cloneTeam(t)
	if err := fn(&t); err != nil {
		return nil, err
	}
	t.UpdatedAt = r.m.tick()
	r.m.teams[teamID] = t
	out := cloneTeam(t)
	return &out, nil
}

func (r teamRepo) AddMember(ctx context.Context, teamID string, member models.TeamMember) (*models.Team, error) {
	return r.mutate(teamID, func(t *models.Team) error {
		if t.Member(member.UserID) == nil {
			t.Members = append(t.Members, member)
		}
		return nil
	})
}

func (r teamRepo) RemoveMember(ctx context.Context, teamID, userID string) (*models.Team, error) {
	return r.mutate(teamID, func(t *models.Team) error {
		m := t.Member(userID)
		if m == nil {
			return notFound("member", userID)
		}
		if m.Role == models.MemberAdmin && t.AdminCount() <= 1 {
			return &domain.ValidationError{Message: lastAdminMessage}
		}
		t.Members = slices.DeleteFunc(t.Members, func(x models.TeamMember) bool { return x.UserID == userID })
		return nil
	})
}

func (r teamRepo) UpdateMemberRole(ctx context.Context, teamID, userID string, role models.MemberRole) (*models.Team, error) {
	return r.mutate(teamID, func(t *models.Team) error {
		m := t.Member(userID)
		if m == nil {
			return notFound("member", userID)
		}
		if m.Role == models.MemberAdmin && role != models.MemberAdmin && t.AdminCount() <= 1 {
			return &domain.ValidationError{Message: lastAdminMessage}
		}
		m.Role = role
		return nil
	})
}

func (r teamRepo) AddProject(ctx context.Context, teamID, projectID string) (*models.Team, error) {
	return r.mutate(teamID, func(t *models.Team) error {
		if !slices.Contains(t.Projects, projectID) {
			t.Projects = append(t.Projects, projectID)
		}
		return nil
	})
}

func (r teamRepo) RemoveProject(ctx context.Context, teamID, projectID string) (*models.Team, error) {
	return r.mutate(teamID, func(t *models.Team) error {
		t.Projects = slices.DeleteFunc(t.Projects, func(id string) bool { return id == projectID })
		return nil
	})
}

func (r teamRepo) DetachProject(ctx context.Context, projectID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, t := range r.m.teams {
		t.Projects = slices.DeleteFunc(slices.Clone(t.Projects), func(p string) bool { return p == projectID })
		r.m.teams[id] = t
	}
	return nil
}

// --- documents ---

type documentRepo struct{ m *memStore }

func (r documentRepo) Create(ctx context.Context, d *models.Document) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := unstamped("document", d.UploadedAt); err != nil {
		return err
	}
	d.ID = uuid.NewString()
	r.m.documents[d.ID] = *d
	return nil
}

func (r documentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.documents[id]
	if !ok {
		return nil, notFound("document", id)
	}
	return &d, nil
}

func (r documentRepo) ListVisible(ctx context.Context, userID string, projectID *string) ([]models.Document, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.Document{}
	for _, d := range r.m.documents {
		if projectID != nil && (d.ProjectID == nil || *d.ProjectID != *projectID) {
			continue
		}
		visible := d.UploadedBy == userID
		if !visible && d.ProjectID != nil {
			p, ok := r.m.projects[*d.ProjectID]
			visible = ok && slices.Contains(p.Team, userID)
		}
		if visible {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (r documentRepo) Update(ctx context.Context, d *models.Document) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.documents[d.ID]; !ok {
		return notFound("document", d.ID)
	}
	r.m.documents[d.ID] = *d
	return nil
}

func (r documentRepo) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.documents[id]; !ok {
		return notFound("document", id)
	}
	delete(r.m.documents, id)
	return nil
}

// --- progress ---

type progressRepo struct{ m *memStore }

func (r progressRepo) Create(ctx context.Context, u *models.ProgressUpdate) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := unstamped("progress update", u.CreatedAt, u.UpdatedAt); err != nil {
		return err
	}
	u.ID = uuid.NewString()
	r.m.progress[u.ID] = *u
	return nil
}

func (r progressRepo) GetByID(ctx context.Context, id string) (*models.ProgressUpdate, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.progress[id]
	if !ok {
		return nil, notFound("progress update", id)
	}
	u.Images = slices.Clone(u.Images)
	u.AudioNotes = slices.Clone(u.AudioNotes)
	return &u, nil
}

func (r progressRepo) list(match func(models.ProgressUpdate) bool) []models.ProgressUpdate {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.ProgressUpdate{}
	for _, u := range r.m.progress {
		if match(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r progressRepo) ListByProject(ctx context.Context, projectID string) ([]models.ProgressUpdate, error) {
	return r.list(func(u models.ProgressUpdate) bool { return u.ProjectID == projectID }), nil
}

func (r progressRepo) ListByCreator(ctx context.Context, userID string) ([]models.ProgressUpdate, error) {
	return r.list(func(u models.ProgressUpdate) bool { return u.CreatedBy == userID }), nil
}

func (r progressRepo) Update(ctx context.Context, u *models.ProgressUpdate) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.progress[u.ID]; !ok {
		return notFound("progress update", u.ID)
	}
	u.UpdatedAt = r.m.tick()
	r.m.progress[u.ID] = *u
	return nil
}

func (r progressRepo) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.progress[id]; !ok {
		return notFound("progress update", id)
	}
	delete(r.m.progress, id)
	return nil
}

func (r progressRepo) appendTo(id string, images bool, url string) (*models.ProgressUpdate, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.progress[id]
	if !ok {
		return nil, notFound("progress update", id)
	}
	if images {
		u.Images = append(slices.Clone(u.Images), url)
	} else {
		u.AudioNotes = append(slices.Clone(u.AudioNotes), url)
	}
	u.UpdatedAt = r.m.tick()
	r.m.progress[id] = u
	return &u, nil
}

func (r progressRepo) AppendImage(ctx context.Context, id, url string) (*models.ProgressUpdate, error) {
	return r.appendTo(id, true, url)
}

func (r progressRepo) AppendAudio(ctx context.Context, id, url string) (*models.ProgressUpdate, error) {
	return r.appendTo(id, false, url)
}

// --- users and settings ---

type userRepo struct{ m *memStore }

func (r userRepo) Create(ctx context.Context, p *models.UserProfile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[p.ID]; ok {
		return &domain.ConflictError{Message: "profile exists", ResourceType: "user", ResourceID: p.ID}
	}
	if err := unstamped("user", p.CreatedAt, p.UpdatedAt); err != nil {
		return err
	}
	r.m.users[p.ID] = *p
	r.m.notify("users", "INSERT", p.ID, "", nil)
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &p, nil
}

func (r userRepo) GetByIDs(ctx context.Context, ids []string) ([]models.UserProfile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.UserProfile{}
	for _, id := range ids {
		if p, ok := r.m.users[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r userRepo) Update(ctx context.Context, p *models.UserProfile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[p.ID]; !ok {
		return notFound("user", p.ID)
	}
	r.m.users[p.ID] = *p
	r.m.notify("users", "UPDATE", p.ID, "", nil)
	return nil
}

func (r userRepo) List(ctx context.Context) ([]models.UserProfile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.UserProfile{}
	for _, p := range r.m.users {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type settingsRepo struct{ m *memStore }

func (r settingsRepo) GetByUserID(ctx context.Context, userID string) (*models.UserSettings, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.settings[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r settingsRepo) Upsert(ctx context.Context, s *models.UserSettings) error {
	if err := unstamped("user settings", s.UpdatedAt); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.settings[s.UserID] = *s
	return nil
}

// --- infrastructure ---

// immediateTx runs fn without a transaction
type immediateTx struct{}

func (immediateTx) ExecTx(ctx context.Context, fn repositories.TxFn) error { return fn(ctx) }

// fakeMedia records uploads and returns predictable URLs
type fakeMedia struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (f *fakeMedia) record(kind, folder string) (*models.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.uploads = append(f.uploads, kind+":"+folder)
	id := fmt.Sprintf("%s/%s-%d", folder, kind, len(f.uploads))
	return &models.MediaAsset{PublicID: id, URL: "https://cdn.test/" + id, ResourceType: kind}, nil
}

func (f *fakeMedia) UploadImage(ctx context.Context, data []byte, source models.ImageSource, folder string) (*models.MediaAsset, error) {
	return f.record("image", folder)
}

func (f *fakeMedia) UploadDocument(ctx context.Context, data []byte, mimeType, publicID string, tags []string) (*models.MediaAsset, error) {
	return f.record("raw", publicID)
}

func (f *fakeMedia) UploadAudio(ctx context.Context, data []byte, folder string) (*models.MediaAsset, error) {
	return f.record("video", folder)
}

func (f *fakeMedia) AssetURL(publicID string, opts models.AssetOptions) (string, error) {
	return "https://cdn.test/" + publicID, nil
}

// recordingPublisher keeps published events in memory
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev *models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(t models.EventType) []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Event
	for _, ev := range p.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
