package models

import "time"

// EventType is also the message routing key
type EventType string

const (
	EventTaskAssigned    EventType = "task.assigned"
	EventProgressCreated EventType = "progress.created"
	EventTeamMemberAdded EventType = "team.member_added"
)

// Event is a domain notification published after a successful write.
// Recipients are user ids; the actor is never notified about their own action.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	ActorID    string    `json:"actor_id"`
	Recipients []string  `json:"recipients"`
	ProjectID  string    `json:"project_id,omitempty"`
	TaskID     string    `json:"task_id,omitempty"`
	TeamID     string    `json:"team_id,omitempty"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}
