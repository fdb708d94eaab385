package models

import (
	"sort"
	"strings"
	"time"
)

// ProjectFilter narrows a project list. Zero values match everything.
type ProjectFilter struct {
	Query  string        // case-insensitive match on name or client
	Status ProjectStatus // empty for all
}

type ProjectCounts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	OnHold    int `json:"on_hold"`
}

// FilterProjects returns the projects matching f, preserving order.
func FilterProjects(projects []Project, f ProjectFilter) []Project {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Client), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CountProjects tallies projects by status
func CountProjects(projects []Project) ProjectCounts {
	c := ProjectCounts{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case ProjectActive:
			c.Active++
		case ProjectCompleted:
			c.Completed++
		case ProjectOnHold:
			c.OnHold++
		}
	}
	return c
}

// TaskSortField selects the task ordering key.
type TaskSortField string

const (
	SortByDueDate  TaskSortField = "due_date"
	SortByPriority TaskSortField = "priority"
	SortByStatus   TaskSortField = "status"
)

type TaskFilter struct {
	Query    string // case-insensitive match on title or description
	Status   TaskStatus
	Priority TaskPriority
	SortBy   TaskSortField // empty keeps store order
	Desc     bool
}

type StatusCounts struct {
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

type PriorityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// FilterTasks applies the search, status and priority filters, then sorts.
func FilterTasks(tasks []Task, f TaskFilter) []Task {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		out = append(out, t)
	}
	SortTasks(out, f.SortBy, f.Desc)
	return out
}

var (
	priorityRank = map[TaskPriority]int{PriorityLow: 1, PriorityMedium: 2, PriorityHigh: 3}
	statusRank   = map[TaskStatus]int{TaskTodo: 1, TaskInProgress: 2, TaskCompleted: 3}
)

// SortTasks orders tasks in place. Tasks without a due date sort after
// dated ones in either direction.
func SortTasks(tasks []Task, by TaskSortField, desc bool) {
	if by == "" {
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		var cmp int
		switch by {
		case SortByDueDate:
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return false
			case a.DueDate == nil:
				return false
			case b.DueDate == nil:
				return true
			}
			cmp = a.DueDate.Compare(*b.DueDate)
		case SortByPriority:
			cmp = priorityRank[a.Priority] - priorityRank[b.Priority]
		case SortByStatus:
			cmp = statusRank[a.Status] - statusRank[b.Status]
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// CountTasks tallies tasks by status and by priority in one pass.
func CountTasks(tasks []Task) (StatusCounts, PriorityCounts) {
	var s StatusCounts
	var p PriorityCounts
	for _, t := range tasks {
		switch t.Status {
		case TaskTodo:
			s.Todo++
		case TaskInProgress:
			s.InProgress++
		case TaskCompleted:
			s.Completed++
		}
		switch t.Priority {
		case PriorityLow:
			p.Low++
		case PriorityMedium:
			p.Medium++
		case PriorityHigh:
			p.High++
		}
	}
	return s, p
}

type DocumentFilter struct {
	Type  DocumentType
	Query string // case-insensitive match on name
}

func FilterDocuments(docs []Document, f DocumentFilter) []Document {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if f.Type != "" && d.Type != f.Type {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(d.Name), q) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// DashboardSize is the number of recent projects and upcoming tasks shown.
const DashboardSize = 3

type Dashboard struct {
	ActiveProjects int            `json:"active_projects"`
	TeamMembers    int            `json:"team_members"`
	RecentProjects []Project      `json:"recent_projects"`
	UpcomingTasks  []UpcomingTask `json:"upcoming_tasks"`
}

// BuildDashboard summarizes the user's projects. projects must be ordered
// newest first. upcoming is filtered to due dates after now and trimmed.
func BuildDashboard(projects []Project, upcoming []UpcomingTask, now time.Time) Dashboard {
	d := Dashboard{
		RecentProjects: []Project{},
		UpcomingTasks:  []UpcomingTask{},
	}

	members := make(map[string]struct{})
	for _, p := range projects {
		if p.Status == ProjectActive {
			d.ActiveProjects++
		}
		for _, id := range p.Team {
			members[id] = struct{}{}
		}
	}
	d.TeamMembers = len(members)

	if len(projects) > DashboardSize {
		projects = projects[:DashboardSize]
	}
	d.RecentProjects = append(d.RecentProjects, projects...)

	for _, t := range upcoming {
		if t.DueDate == nil || !t.DueDate.After(now) {
			continue
		}
		d.UpcomingTasks = append(d.UpcomingTasks, t)
	}
	sort.SliceStable(d.UpcomingTasks, func(i, j int) bool {
		return d.UpcomingTasks[i].DueDate.Before(*d.UpcomingTasks[j].DueDate)
	})
	if len(d.UpcomingTasks) > DashboardSize {
		d.UpcomingTasks = d.UpcomingTasks[:DashboardSize]
	}
	return d
}
