package service

import (
	"context"
	"errors"
	"testing"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
)

func newTestTeamService(m *memStore, pub *recordingPublisher) *teamService {
	svc := NewTeamService(teamRepo{m}, userRepo{m}, m.authorizer(), pub, testLogger()).(*teamService)
	svc.now = m.now
	return svc
}

func createTeam(t *testing.T, svc *teamService, owner string) *models.Team {
	t.Helper()
	team, err := svc.CreateTeam(context.Background(), &services.CreateTeamRequest{UserID: owner, Name: "Concrete crew"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	return team
}

func TestCreateTeam_CreatorIsSoleAdmin(t *testing.T) {
	m := newMemStore()
	stamp := m.now()
	_ = userRepo{m}.Create(context.Background(), &models.UserProfile{ID: "u1", Name: "Ada", Email: "ada@example.com", CreatedAt: stamp, UpdatedAt: stamp})
	svc := newTestTeamService(m, &recordingPublisher{})

	team := createTeam(t, svc, "u1")
	if len(team.Members) != 1 || !team.IsAdmin("u1") {
		t.Fatalf("members = %+v", team.Members)
	}
	if team.Members[0].Name != "Ada" || team.Members[0].Email != "ada@example.com" {
		t.Errorf("member profile not copied: %+v", team.Members[0])
	}
	if team.Settings != models.DefaultTeamSettings() {
		t.Errorf("settings = %+v", team.Settings)
	}
}

func TestRemoveMember_LastAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("sole admin is rejected", func(t *testing.T) {
		m := newMemStore()
		svc := newTestTeamService(m, &recordingPublisher{})
		team := createTeam(t, svc, "u1")

		_, err := svc.RemoveMember(ctx, team.ID, "u1", "u1")
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
		if err.Error() != lastAdminMessage {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("non-last admin succeeds", func(t *testing.T) {
		m := newMemStore()
		svc := newTestTeamService(m, &recordingPublisher{})
		team := createTeam(t, svc, "u1")

		if _, err := svc.AddMember(ctx, team.ID, "u1", &services.AddMemberRequest{UserID: "u2", Role: models.MemberAdmin}); err != nil {
			t.Fatalf("AddMember: %v", err)
		}
		updated, err := svc.RemoveMember(ctx, team.ID, "u2", "u1")
		if err != nil {
			t.Fatalf("RemoveMember: %v", err)
		}
		if updated.AdminCount() < 1 || updated.Member("u1") != nil {
			t.Errorf("members = %+v", updated.Members)
		}
	})

	t.Run("repository guard catches a stale read", func(t *testing.T) {
		m := newMemStore()
		svc := newTestTeamService(m, &recordingPublisher{})
		team := createTeam(t, svc, "u1")

		_, err := teamRepo{m}.RemoveMember(ctx, team.ID, "u1")
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("err = %v, want ErrValidation", err)
		}
	})
}

func TestUpdateMemberRole_DemotingLastAdmin(t *testing.T) {
	m := newMemStore()
	svc := newTestTeamService(m, &recordingPublisher{})
	ctx := context.Background()
	team := createTeam(t, svc, "u1")

	if _, err := svc.UpdateMemberRole(ctx, team.ID, "u1", "u1", models.MemberMember); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}

	if _, err := svc.AddMember(ctx, team.ID, "u1", &services.AddMemberRequest{UserID: "u2"}); err != nil {
		t.Fatal(err)
	}
	updated, err := svc.UpdateMemberRole(ctx, team.ID, "u1", "u2", models.MemberAdmin)
	if err != nil {
		t.Fatalf("UpdateMemberRole: %v", err)
	}
	if updated.AdminCount() != 2 {
		t.Errorf("admins = %d, want 2", updated.AdminCount())
	}
}

func TestAddMember(t *testing.T) {
	m := newMemStore()
	pub := &recordingPublisher{}
	svc := newTestTeamService(m, pub)
	ctx := context.Background()
	team := createTeam(t, svc, "u1")

	added, err := svc.AddMember(ctx, team.ID, "u1", &services.AddMemberRequest{UserID: "u2"})
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if m := added.Member("u2"); m == nil || m.Role != models.MemberMember {
		t.Fatalf("members = %+v", added.Members)
	}

	again, err := svc.AddMember(ctx, team.ID, "u1", &services.AddMemberRequest{UserID: "u2"})
	if err != nil {
		t.Fatalf("second AddMember: %v", err)
	}
	if len(again.Members) != 2 {
		t.Errorf("duplicate member added: %+v", again.Members)
	}
	if n := len(pub.ofType(models.EventTeamMemberAdded)); n != 1 {
		t.Errorf("published %d events, want 1", n)
	}

	if _, err := svc.AddMember(ctx, team.ID, "u2", &services.AddMemberRequest{UserID: "u3", Role: models.MemberAdmin}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("member adding admin err = %v, want ErrForbidden", err)
	}

	if _, err := svc.AddMember(ctx, team.ID, "outsider", &services.AddMemberRequest{UserID: "u4"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("outsider err = %v, want ErrForbidden", err)
	}
}

func TestListTeams_UnionWithoutDuplicates(t *testing.T) {
	m := newMemStore()
	svc := newTestTeamService(m, &recordingPublisher{})
	ctx := context.Background()

	own := createTeam(t, svc, "u1")
	other := createTeam(t, svc, "u2")
	createTeam(t, svc, "u3")
	if _, err := svc.AddMember(ctx, other.ID, "u2", &services.AddMemberRequest{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}

	teams, err := svc.ListTeams(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTeams: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("teams = %d, want 2", len(teams))
	}
	ids := map[string]bool{teams[0].ID: true, teams[1].ID: true}
	if !ids[own.ID] || !ids[other.ID] {
		t.Errorf("unexpected teams %v", ids)
	}
}

func TestTeamProjects(t *testing.T) {
	m := newMemStore()
	svc := newTestTeamService(m, &recordingPublisher{})
	ctx := context.Background()
	team := createTeam(t, svc, "u1")
	project, _ := newTestProjectService(m).CreateProject(ctx, validProjectRequest("u1"))

	linked, err := svc.AddProject(ctx, team.ID, "u1", project.ID)
	if err != nil {
		t.Fatalf("AddProject: %v", err)
	}
	if _, err := svc.AddProject(ctx, team.ID, "u1", project.ID); err != nil {
		t.Fatalf("second AddProject: %v", err)
	}
	if len(linked.Projects) != 1 {
		t.Errorf("projects = %v", linked.Projects)
	}

	unlinked, err := svc.RemoveProject(ctx, team.ID, "u1", project.ID)
	if err != nil {
		t.Fatalf("RemoveProject: %v", err)
	}
	if len(unlinked.Projects) != 0 {
		t.Errorf("projects = %v, want none", unlinked.Projects)
	}
}

func TestDeleteTeam_AdminsOnly(t *testing.T) {
	m := newMemStore()
	svc := newTestTeamService(m, &recordingPublisher{})
	ctx := context.Background()
	team := createTeam(t, svc, "u1")
	_, _ = svc.AddMember(ctx, team.ID, "u1", &services.AddMemberRequest{UserID: "u2"})

	if err := svc.DeleteTeam(ctx, team.ID, "u2"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("member delete err = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteTeam(ctx, team.ID, "u1"); err != nil {
		t.Errorf("admin delete: %v", err)
	}
}
