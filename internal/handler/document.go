package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"sitetrack/internal/config"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService services.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService services.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// UploadDocument stores a file on the CDN and records it.
// POST /api/documents
//
// Multipart fields:
//   - file: required
//   - project_id: optional, attaches the document to a project
//   - tags: optional, comma separated
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	data, info, err := httputil.ParseMultipartFile(w, r, "file", config.MaxUploadBytes)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := services.UploadDocumentRequest{
		UserID:   httputil.GetUserID(r),
		Filename: info.Filename,
		MimeType: info.MimeType,
		Content:  data,
		Tags:     splitTags(r.FormValue("tags")),
	}
	if projectID := r.FormValue("project_id"); projectID != "" {
		req.ProjectID = &projectID
	}

	doc, err := h.docService.UploadDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// ListDocuments returns the caller's visible documents, newest first.
// GET /api/documents
//
// Query parameters:
//   - project_id: only documents of this project
//   - type: pdf, doc, docx, xls, xlsx, image or other
//   - q: matches the name
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var projectID *string
	if id := query.Get("project_id"); id != "" {
		projectID = &id
	}
	filter := models.DocumentFilter{
		Type:  models.DocumentType(query.Get("type")),
		Query: query.Get("q"),
	}

	docs, err := h.docService.ListDocuments(r.Context(), httputil.GetUserID(r), projectID, filter)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// UpdateDocument renames a document or replaces its tags
// PATCH /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var req services.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.docService.UpdateDocument(r.Context(), id, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument removes the document record
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	if err := h.docService.DeleteDocument(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
