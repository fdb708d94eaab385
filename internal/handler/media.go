package handler

import (
	"log/slog"
	"net/http"

	"sitetrack/internal/config"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/httputil"
)

// MediaHandler exposes raw CDN uploads for clients that attach the
// resulting URL themselves
type MediaHandler struct {
	media  services.MediaUploader
	logger *slog.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(media services.MediaUploader, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		media:  media,
		logger: logger,
	}
}

// UploadImage stores an image.
// POST /api/media/images
//
// Multipart fields: file, source (library or camera), folder.
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	data, _, err := httputil.ParseMultipartFile(w, r, "file", config.MaxUploadBytes)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	source, ok := imageSource(w, r.FormValue("source"))
	if !ok {
		return
	}

	asset, err := h.media.UploadImage(r.Context(), data, source, r.FormValue("folder"))
	if err != nil {
		h.logger.Warn("image upload failed", "user_id", httputil.GetUserID(r), "error", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, asset)
}

// UploadAudio stores an audio recording
// POST /api/media/audio
func (h *MediaHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	data, _, err := httputil.ParseMultipartFile(w, r, "file", config.MaxUploadBytes)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := h.media.UploadAudio(r.Context(), data, r.FormValue("folder"))
	if err != nil {
		h.logger.Warn("audio upload failed", "user_id", httputil.GetUserID(r), "error", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, asset)
}

// AssetURL builds a delivery URL with optional transformations.
// GET /api/media/url?public_id=&resource_type=&width=&height=&crop=&quality=&format=
func (h *MediaHandler) AssetURL(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	publicID := query.Get("public_id")
	if publicID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "public_id query parameter is required")
		return
	}

	width, err := queryInt(r, "width", 0)
	if err != nil {
		handleError(w, err)
		return
	}
	height, err := queryInt(r, "height", 0)
	if err != nil {
		handleError(w, err)
		return
	}

	url, err := h.media.AssetURL(publicID, models.AssetOptions{
		ResourceType: query.Get("resource_type"),
		Width:        width,
		Height:       height,
		Crop:         query.Get("crop"),
		Quality:      query.Get("quality"),
		Format:       query.Get("format"),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"url": url})
}
