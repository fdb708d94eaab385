package handler

import (
	"log/slog"
	"net/http"

	"sitetrack/internal/handler/sse"
	"sitetrack/internal/httputil"
)

// streamEvents writes every value from ch as a named SSE event until the
// channel closes or the client goes away. idOf may be nil.
func streamEvents[T any](
	w http.ResponseWriter,
	r *http.Request,
	cfg *sse.Config,
	logger *slog.Logger,
	kind string,
	event string,
	ch <-chan T,
	idOf func(T) string,
) {
	userID := httputil.GetUserID(r)

	writer, err := sse.NewWriter(w, kind, userID)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := writer.WriteRetry(cfg.RetryInterval.Milliseconds()); err != nil {
		return
	}

	keepAlive := sse.NewTickerKeepAlive(cfg.KeepAliveInterval)
	pingStopped := keepAlive.Start(r.Context(), writer, logger)
	defer keepAlive.Stop()

	logger.Debug("stream opened", "kind", kind, "user_id", userID)
	defer logger.Debug("stream closed", "kind", kind, "user_id", userID)

	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return
			}
			id := ""
			if idOf != nil {
				id = idOf(v)
			}
			if err := writer.WriteEvent(event, id, v); err != nil {
				logger.Warn("stream write failed", "kind", kind, "user_id", userID, "error", err)
				return
			}
		case <-pingStopped:
			return
		case <-r.Context().Done():
			return
		}
	}
}
