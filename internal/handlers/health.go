package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vidshare/backend/internal/logging"
)

const healthProbeTimeout = 2 * time.Second

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds with service health information. When Database is
// set the probe also checks that the database answers.
type HealthHandler struct {
	Database Pinger
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.Database == nil {
		respondJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	if err := h.Database.Ping(ctx); err != nil {
		logging.FromContext(ctx).Error("health probe database ping failed", "error", err)
		respondJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
}
