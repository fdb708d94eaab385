package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
)

type taskFixture struct {
	m         *memStore
	svc       *taskService
	media     *fakeMedia
	publisher *recordingPublisher
	project   *models.Project
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	m := newMemStore()
	media := &fakeMedia{}
	pub := &recordingPublisher{}
	m.clock = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := NewTaskService(taskRepo{m}, m.feed, m.authorizer(), media, pub, testLogger()).(*taskService)
	svc.now = m.now

	req := validProjectRequest("u1")
	req.Team = []string{"u2"}
	project, err := newTestProjectService(m).CreateProject(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return &taskFixture{m: m, svc: svc, media: media, publisher: pub, project: project}
}

func (f *taskFixture) createTask(t *testing.T, title string) *models.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), &services.CreateTaskRequest{
		UserID:    "u1",
		ProjectID: f.project.ID,
		Title:     title,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func TestCreateTask_Defaults(t *testing.T) {
	f := newTaskFixture(t)
	task := f.createTask(t, "Pour foundation")

	if task.Status != models.TaskTodo || task.Priority != models.PriorityMedium {
		t.Errorf("status/priority = %s/%s", task.Status, task.Priority)
	}
	if task.AssignedTo != "u1" {
		t.Errorf("assigned_to = %q, want creator", task.AssignedTo)
	}
	if len(f.publisher.ofType(models.EventTaskAssigned)) != 0 {
		t.Error("self-assignment should not publish an event")
	}
}

func TestCreateTask_AssignmentPublishesEvent(t *testing.T) {
	f := newTaskFixture(t)
	_, err := f.svc.CreateTask(context.Background(), &services.CreateTaskRequest{
		UserID:     "u1",
		ProjectID:  f.project.ID,
		Title:      "Inspect scaffolding",
		AssignedTo: "u2",
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	evs := f.publisher.ofType(models.EventTaskAssigned)
	if len(evs) != 1 || len(evs[0].Recipients) != 1 || evs[0].Recipients[0] != "u2" {
		t.Errorf("events = %+v", evs)
	}
}

func TestCreateTask_ProjectNotVisible(t *testing.T) {
	f := newTaskFixture(t)
	_, err := f.svc.CreateTask(context.Background(), &services.CreateTaskRequest{
		UserID:    "stranger",
		ProjectID: f.project.ID,
		Title:     "Sneaky",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestUpdateTask_CompletedBumpsUpdatedAt(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Frame walls")

	status := models.TaskCompleted
	if _, err := f.svc.UpdateTask(ctx, task.ID, "u2", &services.UpdateTaskRequest{Status: &status}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	got, err := f.svc.GetTask(ctx, task.ID, "u1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != models.TaskCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if !got.UpdatedAt.After(task.UpdatedAt) {
		t.Errorf("updated_at %v not after %v", got.UpdatedAt, task.UpdatedAt)
	}
	if got.Title != "Frame walls" {
		t.Errorf("title changed to %q", got.Title)
	}
}

func TestUpdateTask_InvalidPriority(t *testing.T) {
	f := newTaskFixture(t)
	task := f.createTask(t, "Order steel")

	p := models.TaskPriority("urgent")
	_, err := f.svc.UpdateTask(context.Background(), task.ID, "u1", &services.UpdateTaskRequest{Priority: &p})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestComments(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Wire lighting")

	withComment, err := f.svc.AddComment(ctx, task.ID, "u2", "  cables arrived  ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(withComment.Comments) != 1 || withComment.Comments[0].Text != "cables arrived" {
		t.Fatalf("comments = %+v", withComment.Comments)
	}
	commentID := withComment.Comments[0].ID

	if _, err := f.svc.UpdateComment(ctx, task.ID, commentID, "u1", "edited"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("editing another user's comment err = %v, want ErrForbidden", err)
	}

	edited, err := f.svc.UpdateComment(ctx, task.ID, commentID, "u2", "cables installed")
	if err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	if edited.Comments[0].Text != "cables installed" {
		t.Errorf("text = %q", edited.Comments[0].Text)
	}

	if _, err := f.svc.DeleteComment(ctx, task.ID, "missing", "u2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleting missing comment err = %v, want ErrNotFound", err)
	}

	cleared, err := f.svc.DeleteComment(ctx, task.ID, commentID, "u2")
	if err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if len(cleared.Comments) != 0 {
		t.Errorf("comments = %+v, want none", cleared.Comments)
	}

	if _, err := f.svc.AddComment(ctx, task.ID, "u2", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank comment err = %v, want ErrValidation", err)
	}
}

func TestAttachVoiceNote(t *testing.T) {
	f := newTaskFixture(t)
	task := f.createTask(t, "Site walk")

	got, err := f.svc.AttachVoiceNote(context.Background(), task.ID, "u1", &services.VoiceNoteUpload{
		Data:     []byte("m4a"),
		Duration: 12.5,
	})
	if err != nil {
		t.Fatalf("AttachVoiceNote: %v", err)
	}
	if got.VoiceNote == nil || got.VoiceNote.Duration != 12.5 || got.VoiceNote.URL == "" {
		t.Errorf("voice note = %+v", got.VoiceNote)
	}
	if len(f.media.uploads) != 1 || f.media.uploads[0] != "video:tasks/"+task.ID {
		t.Errorf("uploads = %v", f.media.uploads)
	}
}

func TestListTasks_FilterAndCounts(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	a := f.createTask(t, "Excavate")
	f.createTask(t, "Survey")
	done := models.TaskCompleted
	if _, err := f.svc.UpdateTask(ctx, a.ID, "u1", &services.UpdateTaskRequest{Status: &done}); err != nil {
		t.Fatal(err)
	}

	list, err := f.svc.ListTasks(ctx, f.project.ID, "u1", models.TaskFilter{Status: models.TaskCompleted})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(list.Tasks) != 1 || list.Tasks[0].ID != a.ID {
		t.Errorf("tasks = %+v", list.Tasks)
	}
	if list.StatusCounts.Completed != 1 || list.StatusCounts.Todo != 1 {
		t.Errorf("status counts = %+v", list.StatusCounts)
	}
}

func TestSubscribeTasks_EmptyProjectYieldsEmptySnapshot(t *testing.T) {
	f := newTaskFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.svc.SubscribeTasks(ctx, f.project.ID, "u1")
	if err != nil {
		t.Fatalf("SubscribeTasks: %v", err)
	}

	first := receiveSnapshot(t, ch)
	if first.Tasks == nil || len(first.Tasks) != 0 {
		t.Fatalf("tasks = %#v, want empty non-nil slice", first.Tasks)
	}
	if first.ProjectID != f.project.ID || first.Seq != 1 {
		t.Errorf("snapshot = %+v", first)
	}

	f.createTask(t, "First task")
	second := receiveSnapshot(t, ch)
	if len(second.Tasks) != 1 || second.Seq != 2 {
		t.Errorf("second snapshot = %+v", second)
	}
}

func TestSubscribeTasks_EndsWhenRemovedFromTeam(t *testing.T) {
	f := newTaskFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.svc.SubscribeTasks(ctx, f.project.ID, "u2")
	if err != nil {
		t.Fatalf("SubscribeTasks: %v", err)
	}
	receiveSnapshot(t, ch)

	f.createTask(t, "Visible to u2")
	if snap := receiveSnapshot(t, ch); len(snap.Tasks) != 1 {
		t.Fatalf("tasks = %+v", snap.Tasks)
	}

	projects := newTestProjectService(f.m)
	if _, err := projects.UpdateProject(ctx, f.project.ID, "u1", &services.UpdateProjectRequest{Team: []string{}}); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	f.createTask(t, "Hidden from u2")

	select {
	case snap, ok := <-ch:
		if ok {
			t.Fatalf("removed member received snapshot %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open after removal")
	}

	if _, err := f.svc.SubscribeTasks(ctx, f.project.ID, "u2"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("resubscribe err = %v, want ErrForbidden", err)
	}
}

func TestListUpcomingTasks(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	past := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	soon := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for _, due := range []time.Time{later, past, soon} {
		due := due
		if _, err := f.svc.CreateTask(ctx, &services.CreateTaskRequest{
			UserID: "u1", ProjectID: f.project.ID, Title: "due " + due.Format("Jan 2"), DueDate: &due,
		}); err != nil {
			t.Fatal(err)
		}
	}

	upcoming, err := f.svc.ListUpcomingTasks(ctx, "u2", 0)
	if err != nil {
		t.Fatalf("ListUpcomingTasks: %v", err)
	}
	if len(upcoming) != 2 || !upcoming[0].DueDate.Equal(soon) || upcoming[0].ProjectName != f.project.Name {
		t.Errorf("upcoming = %+v", upcoming)
	}
}
