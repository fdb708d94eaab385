package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/handler/sse"
	"sitetrack/internal/httputil"
)

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	projectService services.ProjectService
	sseConfig      *sse.Config
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService services.ProjectService, sseConfig *sse.Config, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		sseConfig:      sseConfig,
		logger:         logger,
	}
}

// ListProjects retrieves the user's projects
// GET /api/projects?q=&status=
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	query := r.URL.Query()
	filter := models.ProjectFilter{
		Query:  query.Get("q"),
		Status: models.ProjectStatus(query.Get("status")),
	}

	list, err := h.projectService.ListProjects(r.Context(), userID, filter)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, list)
}

// StreamProjects pushes a full snapshot of the user's projects on every change
// GET /api/projects/stream
func (h *ProjectHandler) StreamProjects(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	snapshots, err := h.projectService.SubscribeProjects(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	streamEvents(w, r, h.sseConfig, h.logger, "projects", "snapshot", snapshots,
		func(s models.ProjectSnapshot) string { return strconv.FormatUint(s.Seq, 10) })
}

// CreateProject creates a new project
// POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req services.CreateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = userID

	project, err := h.projectService.CreateProject(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// GetProject retrieves a project by ID
// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// UpdateProject applies a merge-patch. A stale expected_updated_at answers
// 409 with the stored project.
// PATCH /api/projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)

	var req services.UpdateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateProject(r.Context(), id, userID, &req)
	if err != nil {
		HandleUpdateConflict(w, err, func(id string) (*models.Project, error) {
			return h.projectService.GetProject(r.Context(), id, userID)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// DeleteProject deletes a project with its tasks and progress updates
// DELETE /api/projects/{id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
