package models

// SnapshotState distinguishes a live result set from the temporary
// index-building condition.
type SnapshotState string

const (
	SnapshotLive          SnapshotState = "live"
	SnapshotIndexBuilding SnapshotState = "index_building"
)

// IndexBuildingHint is shown to users while the project index is not ready.
const IndexBuildingHint = "Database index is being built. This may take a few minutes. Please refresh shortly."

// ProjectSnapshot is the full result of the user's project query.
// Seq increases strictly within one subscription.
type ProjectSnapshot struct {
	State    SnapshotState `json:"state"`
	Seq      uint64        `json:"seq"`
	Projects []Project     `json:"projects"`
	Counts   ProjectCounts `json:"counts"`
	Hint     string        `json:"hint,omitempty"`
}

// TaskSnapshot is the full task list of one project.
type TaskSnapshot struct {
	Seq            uint64         `json:"seq"`
	ProjectID      string         `json:"project_id"`
	Tasks          []Task         `json:"tasks"`
	StatusCounts   StatusCounts   `json:"status_counts"`
	PriorityCounts PriorityCounts `json:"priority_counts"`
}
