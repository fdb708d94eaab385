package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"sitetrack/internal/config"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/handler/sse"
	"sitetrack/internal/httputil"
)

// TaskHandler handles task, comment and voice note requests
type TaskHandler struct {
	taskService services.TaskService
	sseConfig   *sse.Config
	logger      *slog.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService services.TaskService, sseConfig *sse.Config, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		sseConfig:   sseConfig,
		logger:      logger,
	}
}

// ListTasks returns a project's tasks, filtered and sorted.
// GET /api/projects/{id}/tasks
//
// Query parameters:
//   - q: matches title or description
//   - status, priority: exact filters
//   - sort: due_date, priority or status
//   - order: asc (default) or desc
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := models.TaskFilter{
		Query:    query.Get("q"),
		Status:   models.TaskStatus(query.Get("status")),
		Priority: models.TaskPriority(query.Get("priority")),
		SortBy:   models.TaskSortField(query.Get("sort")),
		Desc:     query.Get("order") == "desc",
	}

	list, err := h.taskService.ListTasks(r.Context(), projectID, httputil.GetUserID(r), filter)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, list)
}

// StreamTasks pushes the project's full task list on every change
// GET /api/projects/{id}/tasks/stream
func (h *TaskHandler) StreamTasks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	snapshots, err := h.taskService.SubscribeTasks(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	streamEvents(w, r, h.sseConfig, h.logger, "tasks", "snapshot", snapshots,
		func(s models.TaskSnapshot) string { return strconv.FormatUint(s.Seq, 10) })
}

// ListUpcomingTasks returns open tasks with a due date across the user's projects
// GET /api/tasks/upcoming?limit=
func (h *TaskHandler) ListUpcomingTasks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		handleError(w, err)
		return
	}

	tasks, err := h.taskService.ListUpcomingTasks(r.Context(), httputil.GetUserID(r), limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tasks)
}

// CreateTask creates a task in a project
// POST /api/projects/{id}/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	var req services.CreateTaskRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)
	req.ProjectID = projectID

	task, err := h.taskService.CreateTask(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
// GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

// UpdateTask applies a merge-patch
// PATCH /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)

	var req services.UpdateTaskRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), id, userID, &req)
	if err != nil {
		HandleUpdateConflict(w, err, func(id string) (*models.Task, error) {
			return h.taskService.GetTask(r.Context(), id, userID)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type commentBody struct {
	Text string `json:"text"`
}

// AddComment appends a comment and returns the updated task
// POST /api/tasks/{id}/comments
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}

	var body commentBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.AddComment(r.Context(), id, httputil.GetUserID(r), body.Text)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, task)
}

// UpdateComment edits the caller's own comment
// PATCH /api/tasks/{id}/comments/{commentID}
func (h *TaskHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}
	commentID, ok := PathParam(w, r, "commentID", "Comment ID")
	if !ok {
		return
	}

	var body commentBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateComment(r.Context(), id, commentID, httputil.GetUserID(r), body.Text)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

// DeleteComment removes the caller's own comment
// DELETE /api/tasks/{id}/comments/{commentID}
func (h *TaskHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}
	commentID, ok := PathParam(w, r, "commentID", "Comment ID")
	if !ok {
		return
	}

	task, err := h.taskService.DeleteComment(r.Context(), id, commentID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

// AttachVoiceNote uploads recorded audio and sets it on the task.
// POST /api/tasks/{id}/voice-note
//
// Multipart fields: file (audio), duration (seconds).
func (h *TaskHandler) AttachVoiceNote(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Task ID")
	if !ok {
		return
	}

	data, _, err := httputil.ParseMultipartFile(w, r, "file", config.MaxUploadBytes)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var duration float64
	if raw := r.FormValue("duration"); raw != "" {
		duration, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "duration must be a number of seconds")
			return
		}
	}

	task, err := h.taskService.AttachVoiceNote(r.Context(), id, httputil.GetUserID(r), &services.VoiceNoteUpload{
		Data:     data,
		Duration: duration,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}
