package handler

import (
	"log/slog"
	"net/http"

	"sitetrack/internal/config"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/httputil"
)

// ProgressHandler handles site progress reports
type ProgressHandler struct {
	progressService services.ProgressService
	logger          *slog.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService services.ProgressService, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		logger:          logger,
	}
}

// ListProgress returns a project's progress updates, newest first
// GET /api/projects/{id}/progress
func (h *ProgressHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	updates, err := h.progressService.ListProgress(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, updates)
}

// ListMyProgress returns the caller's own reports across projects
// GET /api/progress/mine
func (h *ProgressHandler) ListMyProgress(w http.ResponseWriter, r *http.Request) {
	updates, err := h.progressService.ListMyProgress(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, updates)
}

// CreateProgressUpdate records a report on a project
// POST /api/projects/{id}/progress
func (h *ProgressHandler) CreateProgressUpdate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	var req services.CreateProgressRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)
	req.ProjectID = projectID

	update, err := h.progressService.CreateProgressUpdate(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, update)
}

// UpdateProgressUpdate applies a merge-patch
// PATCH /api/progress/{id}
func (h *ProgressHandler) UpdateProgressUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Progress update ID")
	if !ok {
		return
	}

	var req services.UpdateProgressRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update, err := h.progressService.UpdateProgressUpdate(r.Context(), id, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, update)
}

// DeleteProgressUpdate deletes a report
// DELETE /api/progress/{id}
func (h *ProgressHandler) DeleteProgressUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Progress update ID")
	if !ok {
		return
	}

	if err := h.progressService.DeleteProgressUpdate(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AttachPhoto uploads an image and appends it to the report.
// POST /api/progress/{id}/photos
//
// Multipart fields: file, source (library or camera, default library).
func (h *ProgressHandler) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Progress update ID")
	if !ok {
		return
	}

	data, _, err := httputil.ParseMultipartFile(w, r, "file", config.MaxUploadBytes)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	source, ok := imageSource(w, r.FormValue("source"))
	if !ok {
		return
	}

	update, err := h.progressService.AttachProgressPhoto(r.Context(), id, httputil.GetUserID(r), data, source)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, update)
}

// AttachAudio uploads an audio note and appends it to the report
// POST /api/progress/{id}/audio
func (h *ProgressHandler) AttachAudio(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Progress update ID")
	if !ok {
		return
	}

	data, _, err := httputil.ParseMultipartFile(w, r, "file", config.MaxUploadBytes)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	update, err := h.progressService.AttachProgressAudio(r.Context(), id, httputil.GetUserID(r), data)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, update)
}

func imageSource(w http.ResponseWriter, raw string) (models.ImageSource, bool) {
	if raw == "" {
		return models.ImageFromLibrary, true
	}
	source := models.ImageSource(raw)
	if !source.Valid() {
		httputil.RespondError(w, http.StatusBadRequest, "source must be library or camera")
		return "", false
	}
	return source, true
}
