package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"sitetrack/internal/config"
	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/events"
)

// defaultUpcomingLimit applies when the caller does not pass a limit
const defaultUpcomingLimit = 10

// taskService implements the TaskService interface
type taskService struct {
	taskRepo   repositories.TaskRepository
	feed       repositories.ChangeFeed
	authorizer services.ResourceAuthorizer
	media      services.MediaUploader
	publisher  services.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo repositories.TaskRepository,
	feed repositories.ChangeFeed,
	authorizer services.ResourceAuthorizer,
	media services.MediaUploader,
	publisher services.EventPublisher,
	logger *slog.Logger,
) services.TaskService {
	return &taskService{
		taskRepo:   taskRepo,
		feed:       feed,
		authorizer: authorizer,
		media:      media,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// ListTasks returns the project's tasks filtered and sorted, with counts
// over the unfiltered set
func (s *taskService) ListTasks(ctx context.Context, projectID, userID string, f models.TaskFilter) (*services.TaskList, error) {
	if _, err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	statusCounts, priorityCounts := models.CountTasks(tasks)
	filtered := models.FilterTasks(tasks, f)
	if f.SortBy != "" {
		models.SortTasks(filtered, f.SortBy, f.Desc)
	}

	return &services.TaskList{
		Tasks:          filtered,
		StatusCounts:   statusCounts,
		PriorityCounts: priorityCounts,
	}, nil
}

// SubscribeTasks streams the project's task list. A project without tasks
// yields an empty snapshot.
func (s *taskService) SubscribeTasks(ctx context.Context, projectID, userID string) (<-chan models.TaskSnapshot, error) {
	if _, err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	q := &liveQuery[models.TaskSnapshot]{
		kind:   "tasks",
		events: s.feed.Subscribe(ctx, "tasks", "projects"),
		relevant: func(ev repositories.ChangeEvent) bool {
			if ev.Table == "projects" {
				return ev.ID == projectID
			}
			return ev.ProjectID == projectID
		},
		build: func(ctx context.Context, seq uint64) (models.TaskSnapshot, bool, error) {
			// membership can change while the stream is open
			if _, err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
				return models.TaskSnapshot{}, false, err
			}
			tasks, err := s.taskRepo.ListByProject(ctx, projectID)
			if err != nil {
				return models.TaskSnapshot{}, false, err
			}
			if tasks == nil {
				tasks = []models.Task{}
			}
			statusCounts, priorityCounts := models.CountTasks(tasks)
			return models.TaskSnapshot{
				Seq:            seq,
				ProjectID:      projectID,
				Tasks:          tasks,
				StatusCounts:   statusCounts,
				PriorityCounts: priorityCounts,
			}, false, nil
		},
		poll:   indexPollInterval,
		logger: s.logger,
	}

	return q.start(ctx)
}

// ListUpcomingTasks returns tasks due in the future across the user's
// projects, soonest first
func (s *taskService) ListUpcomingTasks(ctx context.Context, userID string, limit int) ([]models.UpcomingTask, error) {
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}
	return s.taskRepo.ListUpcoming(ctx, userID, s.now(), limit)
}

// CreateTask creates a task in a project the user can access
func (s *taskService) CreateTask(ctx context.Context, req *services.CreateTaskRequest) (*models.Task, error) {
	if req.Status == "" {
		req.Status = models.TaskTodo
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if strings.TrimSpace(req.AssignedTo) == "" {
		req.AssignedTo = req.UserID
	}

	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	project, err := s.authorizer.CanAccessProject(ctx, req.UserID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		ProjectID:   project.ID,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  strings.TrimSpace(req.AssignedTo),
		Comments:    []models.Comment{},
		CreatedBy:   req.UserID,
		CreatedAt:   s.now().UTC(),
	}
	task.UpdatedAt = task.CreatedAt

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		"id", task.ID,
		"project_id", task.ProjectID,
		"user_id", req.UserID,
		"assigned_to", task.AssignedTo,
	)

	s.publishAssigned(ctx, task, req.UserID)

	return task, nil
}

// GetTask retrieves a task the user can access
func (s *taskService) GetTask(ctx context.Context, id, userID string) (*models.Task, error) {
	return s.authorizer.CanAccessTask(ctx, userID, id)
}

// UpdateTask applies a merge-patch to a task
func (s *taskService) UpdateTask(ctx context.Context, id, userID string, req *services.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.authorizer.CanAccessTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	previousAssignee := task.AssignedTo

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.AssignedTo != nil {
		task.AssignedTo = strings.TrimSpace(*req.AssignedTo)
	}

	if err := s.validateTask(task); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.taskRepo.Update(ctx, task, req.ExpectedUpdatedAt); err != nil {
		return nil, err
	}

	s.logger.Info("task updated",
		"id", task.ID,
		"user_id", userID,
		"status", task.Status,
	)

	if task.AssignedTo != previousAssignee {
		s.publishAssigned(ctx, task, userID)
	}

	return task, nil
}

// DeleteTask deletes a task
func (s *taskService) DeleteTask(ctx context.Context, id, userID string) error {
	if _, err := s.authorizer.CanAccessTask(ctx, userID, id); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("task deleted",
		"id", id,
		"user_id", userID,
	)

	return nil
}

// AddComment appends a comment to the task
func (s *taskService) AddComment(ctx context.Context, taskID, userID, text string) (*models.Task, error) {
	text, err := validateComment(text)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.CanAccessTask(ctx, userID, taskID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	comment := models.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	task, err := s.taskRepo.AddComment(ctx, taskID, comment)
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment added",
		"task_id", taskID,
		"comment_id", comment.ID,
		"user_id", userID,
	)

	return task, nil
}

// UpdateComment edits the text of a comment written by the user
func (s *taskService) UpdateComment(ctx context.Context, taskID, commentID, userID, text string) (*models.Task, error) {
	text, err := validateComment(text)
	if err != nil {
		return nil, err
	}
	if err := s.checkCommentAuthor(ctx, taskID, commentID, userID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.UpdateComment(ctx, taskID, commentID, text, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment updated",
		"task_id", taskID,
		"comment_id", commentID,
		"user_id", userID,
	)

	return task, nil
}

// DeleteComment removes a comment written by the user
func (s *taskService) DeleteComment(ctx context.Context, taskID, commentID, userID string) (*models.Task, error) {
	if err := s.checkCommentAuthor(ctx, taskID, commentID, userID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.DeleteComment(ctx, taskID, commentID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment deleted",
		"task_id", taskID,
		"comment_id", commentID,
		"user_id", userID,
	)

	return task, nil
}

// AttachVoiceNote uploads recorded audio and sets it as the task's voice note
func (s *taskService) AttachVoiceNote(ctx context.Context, taskID, userID string, audio *services.VoiceNoteUpload) (*models.Task, error) {
	if audio == nil || len(audio.Data) == 0 {
		return nil, fmt.Errorf("%w: audio is required", domain.ErrValidation)
	}
	if len(audio.Data) > config.MaxUploadBytes {
		return nil, fmt.Errorf("%w: audio exceeds %d bytes", domain.ErrValidation, config.MaxUploadBytes)
	}
	if audio.Duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", domain.ErrValidation)
	}

	task, err := s.authorizer.CanAccessTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	asset, err := s.media.UploadAudio(ctx, audio.Data, "tasks/"+task.ID)
	if err != nil {
		return nil, fmt.Errorf("upload voice note: %w", err)
	}

	updated, err := s.taskRepo.SetVoiceNote(ctx, task.ID, &models.VoiceNote{
		URL:      asset.URL,
		Duration: audio.Duration,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("voice note attached",
		"task_id", task.ID,
		"public_id", asset.PublicID,
		"user_id", userID,
	)

	return updated, nil
}

// checkCommentAuthor loads the task and ensures the comment belongs to userID
func (s *taskService) checkCommentAuthor(ctx context.Context, taskID, commentID, userID string) error {
	task, err := s.authorizer.CanAccessTask(ctx, userID, taskID)
	if err != nil {
		return err
	}
	for _, c := range task.Comments {
		if c.ID != commentID {
			continue
		}
		if c.CreatedBy != userID {
			return fmt.Errorf("comment %s belongs to another user: %w", commentID, domain.ErrForbidden)
		}
		return nil
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("comment not found: %s", commentID)}
}

func (s *taskService) publishAssigned(ctx context.Context, task *models.Task, actorID string) {
	recipients := events.Recipients(actorID, task.AssignedTo)
	if len(recipients) == 0 {
		return
	}
	err := s.publisher.Publish(ctx, &models.Event{
		Type:       models.EventTaskAssigned,
		ActorID:    actorID,
		Recipients: recipients,
		ProjectID:  task.ProjectID,
		TaskID:     task.ID,
		Title:      task.Title,
	})
	if err != nil {
		s.logger.Warn("failed to publish event", "type", models.EventTaskAssigned, "task_id", task.ID, "error", err)
	}
}

// validateCreateRequest validates a create task request
func (s *taskService) validateCreateRequest(req *services.CreateTaskRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxTaskTitleLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Status, validation.By(validTaskStatus)),
		validation.Field(&req.Priority, validation.By(validTaskPriority)),
	)
}

// validateTask validates a task after a patch has been applied
func (s *taskService) validateTask(t *models.Task) error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Title,
			validation.Required,
			validation.Length(1, config.MaxTaskTitleLength),
		),
		validation.Field(&t.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&t.Status, validation.By(validTaskStatus)),
		validation.Field(&t.Priority, validation.By(validTaskPriority)),
		validation.Field(&t.AssignedTo, validation.Required),
	)
}

func validTaskStatus(value interface{}) error {
	status, _ := value.(models.TaskStatus)
	if !status.Valid() {
		return fmt.Errorf("must be one of todo, in-progress, completed")
	}
	return nil
}

func validTaskPriority(value interface{}) error {
	priority, _ := value.(models.TaskPriority)
	if !priority.Valid() {
		return fmt.Errorf("must be one of low, medium, high")
	}
	return nil
}

// validateComment trims and bounds comment text
func validateComment(text string) (string, error) {
	text = strings.TrimSpace(text)
	err := validation.Validate(text,
		validation.Required.Error("comment text is required"),
		validation.Length(1, config.MaxCommentLength),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return text, nil
}
