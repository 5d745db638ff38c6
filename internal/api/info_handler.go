package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const serviceName = "1:1 Weekly Report System API"

const healthTimeout = 2 * time.Second

type infoHandler struct {
	db      Pinger
	version string
}

func newInfoHandler(db Pinger, version string) *infoHandler {
	return &infoHandler{db: db, version: version}
}

// Root handles GET /.
func (h *infoHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": serviceName,
		"version": h.version,
	})
}

// Health handles GET /health. It answers 503 when the database is unreachable.
func (h *infoHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "connected",
	})
}
