package handler

import (
	"context"
	"net/http"
	"time"

	"kriya-gateway/pkg/apierror"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

type InfoHandler struct {
	serviceName string
	version     string
	db          healthChecker
}

func NewInfoHandler(serviceName string, version string, db healthChecker) *InfoHandler {
	return &InfoHandler{serviceName: serviceName, version: version, db: db}
}

func (h *InfoHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"service": h.serviceName,
		"version": h.version,
		"status":  "running",
	})
}

// Health reports 503 when the database is unreachable so orchestrators
// stop routing traffic here.
func (h *InfoHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Health(ctx); err != nil {
			writeError(w, apierror.New("SERVICE_UNAVAILABLE", "database unreachable", "", http.StatusServiceUnavailable))
			return
		}
	}

	writeSuccess(w, http.StatusOK, map[string]any{"status": "ok"})
}
