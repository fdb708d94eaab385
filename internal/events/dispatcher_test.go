package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"sitetrack/internal/domain/models"
)

type fakeSettingsRepo struct {
	settings map[string]*models.UserSettings
	err      error
	lookups  []string
}

func (f *fakeSettingsRepo) GetByUserID(ctx context.Context, userID string) (*models.UserSettings, error) {
	f.lookups = append(f.lookups, userID)
	if f.err != nil {
		return nil, f.err
	}
	return f.settings[userID], nil
}

func (f *fakeSettingsRepo) Upsert(ctx context.Context, s *models.UserSettings) error {
	return nil
}

func TestDispatcherSkipsActor(t *testing.T) {
	repo := &fakeSettingsRepo{settings: map[string]*models.UserSettings{}}
	d := NewDispatcher(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := d.Handle(context.Background(), &models.Event{
		Type:       models.EventTaskAssigned,
		ActorID:    "u1",
		Recipients: []string{"u1", "u2", "u3"},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(repo.lookups) != 2 || repo.lookups[0] != "u2" || repo.lookups[1] != "u3" {
		t.Errorf("lookups = %v, want [u2 u3]", repo.lookups)
	}
}

func TestDispatcherReturnsLookupError(t *testing.T) {
	repo := &fakeSettingsRepo{err: errors.New("db down")}
	d := NewDispatcher(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := d.Handle(context.Background(), &models.Event{Type: models.EventProgressCreated, Recipients: []string{"u2"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRecipients(t *testing.T) {
	got := Recipients("a", "b", "a", "", "c", "b")
	want := []string{"b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestNoopPublisherStamps(t *testing.T) {
	p := NewNoopPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ev := &models.Event{Type: models.EventTeamMemberAdded}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ev.ID == "" || ev.OccurredAt.IsZero() {
		t.Errorf("event not stamped: %+v", ev)
	}
}
