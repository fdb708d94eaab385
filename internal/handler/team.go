package handler

import (
	"log/slog"
	"net/http"

	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/httputil"
)

// TeamHandler handles team, membership and team-project requests
type TeamHandler struct {
	teamService services.TeamService
	logger      *slog.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService services.TeamService, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		logger:      logger,
	}
}

// ListTeams returns teams the user created or belongs to
// GET /api/teams
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.ListTeams(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	if teams == nil {
		teams = []models.Team{}
	}

	httputil.RespondJSON(w, http.StatusOK, teams)
}

// CreateTeam creates a team with the caller as its admin
// POST /api/teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req services.CreateTeamRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)

	team, err := h.teamService.CreateTeam(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, team)
}

// GetTeam retrieves a team by ID
// GET /api/teams/{id}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Team ID")
	if !ok {
		return
	}

	team, err := h.teamService.GetTeam(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, team)
}

// UpdateTeam patches name, description or settings
// PATCH /api/teams/{id}
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Team ID")
	if !ok {
		return
	}

	var req services.UpdateTeamRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	team, err := h.teamService.UpdateTeam(r.Context(), id, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, team)
}

// DeleteTeam deletes a team
// DELETE /api/teams/{id}
func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Team ID")
	if !ok {
		return
	}

	if err := h.teamService.DeleteTeam(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMember adds a user to the team
// POST /api/teams/{id}/members
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Team ID")
	if !ok {
		return
	}

	var req services.AddMemberRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	team, err := h.teamService.AddMember(r.Context(), id, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, team)
}

// RemoveMember removes a member. Removing the last admin is rejected.
// DELETE /api/teams/{id}/members/{userID}
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Team ID")
	if !ok {
		return
	}
	memberID, ok := PathParam(w, r, "userID", "User ID")
	if !ok {
		return
	}

	team, err := h.teamService.RemoveMember(r.Context(), id, httputil.GetUserID(r), memberID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, team)
}

type memberRoleBody struct {
	Role models.MemberRole `json:"role"`
}

// UpdateMemberRole changes a member's role
// PATCH /api/teams/{id}/members/{userID}
func (h *TeamHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Team ID")
	if !ok {
		return
	}
	memberID, ok := PathParam(w, r, "userID", "User ID")
	if !ok {
		return
	}

	var body memberRoleBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	team, err := h.teamService.UpdateMemberRole(r.Context(), id, httputil.GetUserID(r), memberID, body.Role)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, team)
}

// AddProject links a project to the team
// POST /api/teams/{id}/projects/{projectID}
func (h *TeamHandler) AddProject(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Team ID")
	if !ok {
		return
	}
	projectID, ok := PathParam(w, r, "projectID", "Project ID")
	if !ok {
		return
	}

	team, err := h.teamService.AddProject(r.Context(), id, httputil.GetUserID(r), projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, team)
}

// RemoveProject unlinks a project from the team
// DELETE /api/teams/{id}/projects/{projectID}
func (h *TeamHandler) RemoveProject(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Team ID")
	if !ok {
		return
	}
	projectID, ok := PathParam(w, r, "projectID", "Project ID")
	if !ok {
		return
	}

	team, err := h.teamService.RemoveProject(r.Context(), id, httputil.GetUserID(r), projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, team)
}
