package service

import (
	"context"
	"testing"
	"time"

	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
)

// The services run on their default wall clock here so that stored rows are
// checked against real time, not the store's synthetic one.
func TestCreate_StampsCurrentTime(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	before := time.Now().UTC()

	req := validProjectRequest("u1")
	req.Team = []string{"u2"}
	project, err := NewProjectService(projectRepo{m}, teamRepo{m}, indexInspector{m}, m.feed, immediateTx{}, m.authorizer(), testLogger()).
		CreateProject(ctx, req)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	task, err := NewTaskService(taskRepo{m}, m.feed, m.authorizer(), &fakeMedia{}, &recordingPublisher{}, testLogger()).
		CreateTask(ctx, &services.CreateTaskRequest{UserID: "u1", ProjectID: project.ID, Title: "Pour slab"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	team, err := NewTeamService(teamRepo{m}, userRepo{m}, m.authorizer(), &recordingPublisher{}, testLogger()).
		CreateTeam(ctx, &services.CreateTeamRequest{UserID: "u1", Name: "Formwork"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	update, err := NewProgressService(progressRepo{m}, m.authorizer(), &fakeMedia{}, &recordingPublisher{}, testLogger()).
		CreateProgressUpdate(ctx, &services.CreateProgressRequest{UserID: "u1", ProjectID: project.ID, Description: "Footings done", Progress: 20})
	if err != nil {
		t.Fatalf("CreateProgressUpdate: %v", err)
	}
	doc, err := NewDocumentService(documentRepo{m}, m.authorizer(), &fakeMedia{}, testLogger()).
		UploadDocument(ctx, &services.UploadDocumentRequest{UserID: "u1", ProjectID: &project.ID, Filename: "plan.pdf", Content: []byte("%PDF")})
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	_, err = NewUserSettingsService(settingsRepo{m}, testLogger()).
		UpdateSettings(ctx, "u1", &models.UpdateSettingsRequest{DarkModeEnabled: ptr(true)})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	after := time.Now().UTC()

	storedProject, _ := projectRepo{m}.GetByID(ctx, project.ID)
	storedTask, _ := taskRepo{m}.GetByID(ctx, task.ID)
	storedTeam, _ := teamRepo{m}.GetByID(ctx, team.ID)
	storedUpdate, _ := progressRepo{m}.GetByID(ctx, update.ID)
	storedDoc, _ := documentRepo{m}.GetByID(ctx, doc.ID)
	storedSettings, _ := settingsRepo{m}.GetByUserID(ctx, "u1")

	tests := []struct {
		name  string
		stamp time.Time
	}{
		{"project created_at", storedProject.CreatedAt},
		{"project updated_at", storedProject.UpdatedAt},
		{"task created_at", storedTask.CreatedAt},
		{"task updated_at", storedTask.UpdatedAt},
		{"team created_at", storedTeam.CreatedAt},
		{"team updated_at", storedTeam.UpdatedAt},
		{"progress created_at", storedUpdate.CreatedAt},
		{"progress updated_at", storedUpdate.UpdatedAt},
		{"document uploaded_at", storedDoc.UploadedAt},
		{"settings updated_at", storedSettings.UpdatedAt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.stamp.Before(before) || tt.stamp.After(after) {
				t.Errorf("%s = %v, want within [%v, %v]", tt.name, tt.stamp, before, after)
			}
		})
	}
}

func TestRegister_StampsProfile(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	before := time.Now().UTC()

	session, err := f.svc.Register(ctx, &services.RegisterRequest{Name: "Lin", Email: "lin@example.com", Password: "Abcdefg1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	profile, err := userRepo{f.m}.GetByID(ctx, session.User.UID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if profile.CreatedAt.Before(before) || profile.CreatedAt.After(time.Now()) {
		t.Errorf("created_at = %v, want current time", profile.CreatedAt)
	}
	if !profile.UpdatedAt.Equal(profile.CreatedAt) {
		t.Errorf("updated_at = %v, want %v", profile.UpdatedAt, profile.CreatedAt)
	}
}

func TestUpdateTeam_BumpsUpdatedAt(t *testing.T) {
	m := newMemStore()
	svc := newTestTeamService(m, &recordingPublisher{})
	ctx := context.Background()
	team := createTeam(t, svc, "u1")

	// a clock that stands still must still move updated_at forward
	frozen := team.UpdatedAt
	svc.now = func() time.Time { return frozen }

	name := "Steel crew"
	updated, err := svc.UpdateTeam(ctx, team.ID, "u1", &services.UpdateTeamRequest{Name: &name})
	if err != nil {
		t.Fatalf("UpdateTeam: %v", err)
	}
	if !updated.UpdatedAt.After(frozen) {
		t.Errorf("updated_at %v not after %v", updated.UpdatedAt, frozen)
	}
	if !updated.CreatedAt.Equal(team.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", team.CreatedAt, updated.CreatedAt)
	}
}
