package handler

import (
	"log/slog"
	"net/http"

	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/httputil"
)

// UserSettingsHandler handles user settings HTTP requests
type UserSettingsHandler struct {
	service services.UserSettingsService
	logger  *slog.Logger
}

// NewUserSettingsHandler creates a new user settings handler
func NewUserSettingsHandler(service services.UserSettingsService, logger *slog.Logger) *UserSettingsHandler {
	return &UserSettingsHandler{
		service: service,
		logger:  logger,
	}
}

// GetSettings retrieves user settings
// GET /api/users/me/settings
func (h *UserSettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, settings)
}

// UpdateSettings merges the given fields into the stored settings
// PATCH /api/users/me/settings
func (h *UserSettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSettingsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, settings)
}
