package services

import (
	"context"
	"time"

	"sitetrack/internal/domain/models"
)

type CreateTaskRequest struct {
	UserID      string              `json:"-"`
	ProjectID   string              `json:"-"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	AssignedTo  string              `json:"assigned_to"`
}

// UpdateTaskRequest is a merge-patch with an optional precondition
type UpdateTaskRequest struct {
	Title             *string              `json:"title"`
	Description       *string              `json:"description"`
	Status            *models.TaskStatus   `json:"status"`
	Priority          *models.TaskPriority `json:"priority"`
	DueDate           *time.Time           `json:"due_date"`
	AssignedTo        *string              `json:"assigned_to"`
	ExpectedUpdatedAt *time.Time           `json:"expected_updated_at"`
}

// TaskList is a filtered, sorted task query with counts over all tasks
type TaskList struct {
	Tasks          []models.Task         `json:"tasks"`
	StatusCounts   models.StatusCounts   `json:"status_counts"`
	PriorityCounts models.PriorityCounts `json:"priority_counts"`
}

// VoiceNoteUpload is recorded audio for a task
type VoiceNoteUpload struct {
	Data     []byte
	Duration float64 // seconds
}

// TaskService defines business logic operations for tasks
type TaskService interface {
	ListTasks(ctx context.Context, projectID, userID string, f models.TaskFilter) (*TaskList, error)
	SubscribeTasks(ctx context.Context, projectID, userID string) (<-chan models.TaskSnapshot, error)
	ListUpcomingTasks(ctx context.Context, userID string, limit int) ([]models.UpcomingTask, error)

	CreateTask(ctx context.Context, req *CreateTaskRequest) (*models.Task, error)
	GetTask(ctx context.Context, id, userID string) (*models.Task, error)
	UpdateTask(ctx context.Context, id, userID string, req *UpdateTaskRequest) (*models.Task, error)
	DeleteTask(ctx context.Context, id, userID string) error

	AddComment(ctx context.Context, taskID, userID, text string) (*models.Task, error)
	UpdateComment(ctx context.Context, taskID, commentID, userID, text string) (*models.Task, error)
	DeleteComment(ctx context.Context, taskID, commentID, userID string) (*models.Task, error)

	AttachVoiceNote(ctx context.Context, taskID, userID string, audio *VoiceNoteUpload) (*models.Task, error)
}
