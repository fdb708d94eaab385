package handler

import (
	"log/slog"
	"net/http"

	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/handler/sse"
	"sitetrack/internal/httputil"
)

// AuthHandler handles sign-in, registration and profile requests
type AuthHandler struct {
	sessionService services.SessionService
	sseConfig      *sse.Config
	logger         *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessionService services.SessionService, sseConfig *sse.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessionService: sessionService,
		sseConfig:      sseConfig,
		logger:         logger,
	}
}

// Register creates an account and signs it in
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.sessionService.Register(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, session)
}

// Login exchanges credentials for an access token
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.sessionService.Login(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// Logout revokes the bearer token used for this request
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	if err := h.sessionService.Logout(r.Context(), userID, httputil.GetAccessToken(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.sessionService.CurrentUser(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// updateProfileBody lets clients clear photo_url and phone with null
type updateProfileBody struct {
	Name     *string                 `json:"name"`
	PhotoURL httputil.OptionalString `json:"photo_url"`
	Phone    httputil.OptionalString `json:"phone"`
}

// UpdateMe patches the signed-in user's profile
// PATCH /api/auth/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var body updateProfileBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := services.UpdateProfileRequest{
		Name:     body.Name,
		PhotoURL: body.PhotoURL.Patch(),
		Phone:    body.Phone.Patch(),
	}
	user, err := h.sessionService.UpdateProfile(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// StreamAuthState pushes auth-state changes over SSE. The stream ends
// after a signed_out event.
// GET /api/auth/stream
func (h *AuthHandler) StreamAuthState(w http.ResponseWriter, r *http.Request) {
	events, err := h.sessionService.SubscribeAuthState(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	streamEvents(w, r, h.sseConfig, h.logger, "auth", "auth", events, nil)
}

// ListMembers returns the member directory
// GET /api/members
func (h *AuthHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.sessionService.ListMembers(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	if members == nil {
		members = []models.UserProfile{}
	}

	httputil.RespondJSON(w, http.StatusOK, members)
}
