package repositories

import "context"

// ChangeEvent describes a row change in one of the live tables.
type ChangeEvent struct {
	Table     string   `json:"table"`
	Op        string   `json:"op"` // INSERT, UPDATE, DELETE, or a local event name
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id,omitempty"`
	Team      []string `json:"team,omitempty"`
}

// OpResync replaces events a subscriber missed. Receivers treat it as
// relevant to every query on the table.
const OpResync = "RESYNC"

// ChangeFeed delivers change notifications for the given tables until ctx
// is done. Delivery is lossy under load: a slow reader sees at least one
// event after any burst, never every event.
type ChangeFeed interface {
	Subscribe(ctx context.Context, tables ...string) <-chan ChangeEvent
	Publish(ev ChangeEvent)
}
