package seed

import (
	"strings"
	"testing"
)

const validFixture = `
users:
  - name: Ana Souza
    email: Ana@Example.com
    password: Demo-pass1
    settings:
      language: pt-BR
  - name: Bruno Lima
    email: bruno@example.com
    password: Demo-pass1
projects:
  - key: riverside
    name: Riverside Apartments
    owner: ana@example.com
    budget: 100000
    status: active
    start_in_days: -30
    team: [bruno@example.com]
    tasks:
      - title: Pour foundation
        priority: high
        due_in_days: 5
        assigned_to: bruno@example.com
        comments:
          - author: ana@example.com
            text: Concrete arrives Monday
    progress_updates:
      - author: bruno@example.com
        description: Excavation done
        progress: 20
teams:
  - name: Site crew
    owner: ana@example.com
    members:
      - email: bruno@example.com
        role: member
    projects: [riverside]
`

func TestLoadFixture_Valid(t *testing.T) {
	f, err := LoadFixture(strings.NewReader(validFixture))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Users) != 2 || len(f.Projects) != 1 || len(f.Teams) != 1 {
		t.Fatalf("unexpected shape: %+v", f)
	}
	task := f.Projects[0].Tasks[0]
	if task.DueInDays == nil || *task.DueInDays != 5 {
		t.Errorf("due_in_days = %v", task.DueInDays)
	}
	if f.Projects[0].EndInDays != nil {
		t.Error("absent end_in_days should stay nil")
	}
}

func TestLoadFixture_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "users:\n  - name: A\n    emial: a@example.com\n",
			wantErr: "emial",
		},
		{
			name:    "unknown owner",
			yaml:    "projects:\n  - key: p\n    name: P\n    owner: ghost@example.com\n",
			wantErr: "unknown user ghost@example.com",
		},
		{
			name:    "unknown team project",
			yaml:    "users:\n  - {name: A, email: a@example.com}\nteams:\n  - name: T\n    owner: a@example.com\n    projects: [nope]\n",
			wantErr: "unknown project nope",
		},
		{
			name:    "duplicate user",
			yaml:    "users:\n  - {name: A, email: a@example.com}\n  - {name: B, email: A@example.com}\n",
			wantErr: "listed twice",
		},
		{
			name:    "missing owner",
			yaml:    "projects:\n  - key: p\n    name: P\n",
			wantErr: "has no owner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFixture(strings.NewReader(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
