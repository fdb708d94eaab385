package seed

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"sitetrack/internal/domain/models"
)

// Fixture is a demo data set. Users are referenced by email and projects
// by key. Dates are offsets in days from the time of seeding so the
// dashboard always has upcoming work.
type Fixture struct {
	Users    []UserFixture    `yaml:"users"`
	Projects []ProjectFixture `yaml:"projects"`
	Teams    []TeamFixture    `yaml:"teams"`
}

type UserFixture struct {
	Name     string           `yaml:"name"`
	Email    string           `yaml:"email"`
	Password string           `yaml:"password"`
	Phone    string           `yaml:"phone"`
	Settings *SettingsFixture `yaml:"settings"`
}

type SettingsFixture struct {
	NotificationsEnabled *bool  `yaml:"notifications_enabled"`
	DarkModeEnabled      *bool  `yaml:"dark_mode_enabled"`
	Language             string `yaml:"language"`
	Timezone             string `yaml:"timezone"`
}

type ProjectFixture struct {
	Key         string               `yaml:"key"`
	Name        string               `yaml:"name"`
	Owner       string               `yaml:"owner"`
	Description string               `yaml:"description"`
	Client      string               `yaml:"client"`
	Location    string               `yaml:"location"`
	Budget      float64              `yaml:"budget"`
	Status      models.ProjectStatus `yaml:"status"`
	Progress    int                  `yaml:"progress"`
	StartInDays int                  `yaml:"start_in_days"`
	EndInDays   *int                 `yaml:"end_in_days"`
	Team        []string             `yaml:"team"`
	Tasks       []TaskFixture        `yaml:"tasks"`
	Updates     []ProgressFixture    `yaml:"progress_updates"`
}

type TaskFixture struct {
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	Status      models.TaskStatus   `yaml:"status"`
	Priority    models.TaskPriority `yaml:"priority"`
	DueInDays   *int                `yaml:"due_in_days"`
	AssignedTo  string              `yaml:"assigned_to"`
	Comments    []CommentFixture    `yaml:"comments"`
}

type CommentFixture struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

type ProgressFixture struct {
	Author      string   `yaml:"author"`
	Description string   `yaml:"description"`
	Progress    int      `yaml:"progress"`
	Images      []string `yaml:"images"`
}

type TeamFixture struct {
	Name        string          `yaml:"name"`
	Owner       string          `yaml:"owner"`
	Description string          `yaml:"description"`
	Members     []MemberFixture `yaml:"members"`
	Projects    []string        `yaml:"projects"` // project keys
}

type MemberFixture struct {
	Email string            `yaml:"email"`
	Role  models.MemberRole `yaml:"role"`
}

// LoadFixture decodes a fixture and checks its references. Unknown keys
// are rejected so typos surface instead of silently seeding less data.
func LoadFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate reports every dangling user or project reference at once
func (f *Fixture) Validate() error {
	users := make(map[string]struct{}, len(f.Users))
	var errs []error

	for _, u := range f.Users {
		email := normalize(u.Email)
		if email == "" {
			errs = append(errs, fmt.Errorf("user %q has no email", u.Name))
			continue
		}
		if _, dup := users[email]; dup {
			errs = append(errs, fmt.Errorf("user %s listed twice", email))
		}
		users[email] = struct{}{}
	}

	ref := func(where, email string) {
		if email == "" {
			return
		}
		if _, ok := users[normalize(email)]; !ok {
			errs = append(errs, fmt.Errorf("%s: unknown user %s", where, email))
		}
	}

	projects := make(map[string]struct{}, len(f.Projects))
	for _, p := range f.Projects {
		where := "project " + p.Key
		if p.Key == "" {
			errs = append(errs, fmt.Errorf("project %q has no key", p.Name))
		}
		if _, dup := projects[p.Key]; dup {
			errs = append(errs, fmt.Errorf("%s listed twice", where))
		}
		projects[p.Key] = struct{}{}

		if p.Owner == "" {
			errs = append(errs, fmt.Errorf("%s has no owner", where))
		}
		ref(where+" owner", p.Owner)
		for _, m := range p.Team {
			ref(where+" team", m)
		}
		for _, t := range p.Tasks {
			ref(where+" task "+t.Title, t.AssignedTo)
			for _, c := range t.Comments {
				ref(where+" comment", c.Author)
			}
		}
		for _, u := range p.Updates {
			ref(where+" progress update", u.Author)
		}
	}

	for _, t := range f.Teams {
		where := "team " + t.Name
		if t.Owner == "" {
			errs = append(errs, fmt.Errorf("%s has no owner", where))
		}
		ref(where+" owner", t.Owner)
		for _, m := range t.Members {
			ref(where+" member", m.Email)
		}
		for _, key := range t.Projects {
			if _, ok := projects[key]; !ok {
				errs = append(errs, fmt.Errorf("%s: unknown project %s", where, key))
			}
		}
	}

	return errors.Join(errs...)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
