package models

import (
	"testing"
	"time"
)

func TestFilterProjects(t *testing.T) {
	projects := []Project{
		{ID: "1", Name: "Harbor Bridge", Client: "City of Oakport", Status: ProjectActive},
		{ID: "2", Name: "Library Annex", Client: "Oakport Schools", Status: ProjectCompleted},
		{ID: "3", Name: "Water Main", Client: "Utility Co", Status: ProjectOnHold},
	}

	tests := []struct {
		name   string
		filter ProjectFilter
		want   []string
	}{
		{name: "no filter", filter: ProjectFilter{}, want: []string{"1", "2", "3"}},
		{name: "search matches client", filter: ProjectFilter{Query: "oakport"}, want: []string{"1", "2"}},
		{name: "search matches name", filter: ProjectFilter{Query: "  WATER "}, want: []string{"3"}},
		{name: "status filter", filter: ProjectFilter{Status: ProjectCompleted}, want: []string{"2"}},
		{name: "search and status", filter: ProjectFilter{Query: "oakport", Status: ProjectActive}, want: []string{"1"}},
		{name: "no match", filter: ProjectFilter{Query: "tunnel"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterProjects(projects, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d projects, want %d", len(got), len(tt.want))
			}
			for i, p := range got {
				if p.ID != tt.want[i] {
					t.Errorf("position %d: got %s, want %s", i, p.ID, tt.want[i])
				}
			}
		})
	}
}

func TestCountProjects(t *testing.T) {
	got := CountProjects([]Project{
		{Status: ProjectActive},
		{Status: ProjectActive},
		{Status: ProjectOnHold},
		{Status: ProjectCompleted},
	})
	want := ProjectCounts{Total: 4, Active: 2, Completed: 1, OnHold: 1}
	if got != want {
		t.Errorf("CountProjects() = %+v, want %+v", got, want)
	}
}

func TestSortTasks(t *testing.T) {
	day := func(d int) *time.Time {
		ts := time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
		return &ts
	}
	base := []Task{
		{ID: "a", Priority: PriorityHigh, Status: TaskCompleted, DueDate: day(10)},
		{ID: "b", Priority: PriorityLow, Status: TaskTodo, DueDate: nil},
		{ID: "c", Priority: PriorityMedium, Status: TaskInProgress, DueDate: day(2)},
	}

	tests := []struct {
		name string
		by   TaskSortField
		desc bool
		want string
	}{
		{name: "due date asc, undated last", by: SortByDueDate, want: "cab"},
		{name: "due date desc, undated last", by: SortByDueDate, desc: true, want: "acb"},
		{name: "priority asc", by: SortByPriority, want: "bca"},
		{name: "priority desc", by: SortByPriority, desc: true, want: "acb"},
		{name: "status asc", by: SortByStatus, want: "bca"},
		{name: "unsorted keeps order", by: "", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := append([]Task(nil), base...)
			SortTasks(tasks, tt.by, tt.desc)
			got := ""
			for _, task := range tasks {
				got += task.ID
			}
			if got != tt.want {
				t.Errorf("order = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterTasks(t *testing.T) {
	tasks := []Task{
		{ID: "1", Title: "Pour foundation", Status: TaskTodo, Priority: PriorityHigh},
		{ID: "2", Title: "Order rebar", Description: "for the foundation", Status: TaskCompleted, Priority: PriorityLow},
		{ID: "3", Title: "Paint", Status: TaskTodo, Priority: PriorityLow},
	}

	got := FilterTasks(tasks, TaskFilter{Query: "Foundation"})
	if len(got) != 2 {
		t.Fatalf("search: got %d tasks, want 2", len(got))
	}

	got = FilterTasks(tasks, TaskFilter{Status: TaskTodo, Priority: PriorityLow})
	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("status+priority: got %+v, want task 3", got)
	}
}

func TestCountTasks(t *testing.T) {
	status, priority := CountTasks([]Task{
		{Status: TaskTodo, Priority: PriorityHigh},
		{Status: TaskInProgress, Priority: PriorityHigh},
		{Status: TaskCompleted, Priority: PriorityMedium},
		{Status: TaskTodo, Priority: PriorityLow},
	})
	if status != (StatusCounts{Todo: 2, InProgress: 1, Completed: 1}) {
		t.Errorf("status counts = %+v", status)
	}
	if priority != (PriorityCounts{Low: 1, Medium: 1, High: 2}) {
		t.Errorf("priority counts = %+v", priority)
	}
}

func TestFilterDocuments(t *testing.T) {
	docs := []Document{
		{ID: "1", Name: "Site plan.pdf", Type: DocumentPDF},
		{ID: "2", Name: "Budget.xlsx", Type: DocumentXlsx},
		{ID: "3", Name: "Plan revision.docx", Type: DocumentDocx},
	}

	if got := FilterDocuments(docs, DocumentFilter{Query: "plan"}); len(got) != 2 {
		t.Errorf("query filter: got %d, want 2", len(got))
	}
	if got := FilterDocuments(docs, DocumentFilter{Type: DocumentXlsx}); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("type filter: got %+v", got)
	}
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(h int) *time.Time {
		ts := now.Add(time.Duration(h) * time.Hour)
		return &ts
	}

	projects := []Project{
		{ID: "p4", Status: ProjectActive, Team: []string{"u1", "u2"}},
		{ID: "p3", Status: ProjectCompleted, Team: []string{"u1"}},
		{ID: "p2", Status: ProjectActive, Team: []string{"u3"}},
		{ID: "p1", Status: ProjectOnHold, Team: []string{"u1", "u4"}},
	}
	upcoming := []UpcomingTask{
		{Task: Task{ID: "past", DueDate: at(-1)}},
		{Task: Task{ID: "t3", DueDate: at(30)}},
		{Task: Task{ID: "t1", DueDate: at(1)}},
		{Task: Task{ID: "t4", DueDate: at(48)}},
		{Task: Task{ID: "t2", DueDate: at(5)}},
	}

	d := BuildDashboard(projects, upcoming, now)

	if d.ActiveProjects != 2 {
		t.Errorf("ActiveProjects = %d, want 2", d.ActiveProjects)
	}
	if d.TeamMembers != 4 {
		t.Errorf("TeamMembers = %d, want 4", d.TeamMembers)
	}
	if len(d.RecentProjects) != 3 || d.RecentProjects[0].ID != "p4" {
		t.Errorf("RecentProjects = %+v", d.RecentProjects)
	}
	wantTasks := []string{"t1", "t2", "t3"}
	if len(d.UpcomingTasks) != len(wantTasks) {
		t.Fatalf("got %d upcoming tasks, want %d", len(d.UpcomingTasks), len(wantTasks))
	}
	for i, id := range wantTasks {
		if d.UpcomingTasks[i].ID != id {
			t.Errorf("upcoming[%d] = %s, want %s", i, d.UpcomingTasks[i].ID, id)
		}
	}
}
