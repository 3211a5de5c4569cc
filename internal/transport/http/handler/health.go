package handler

import (
	"net/http"
	"time"

	"github.com/signal-otp-api/internal/pkg/clock"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	started time.Time
	clock   clock.Clock
}

func NewHealthHandler(clk clock.Clock) *HealthHandler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &HealthHandler{started: clk.Now(), clock: clk}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	now := h.clock.Now()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": now.UTC(),
		"uptime":    now.Sub(h.started).Seconds(),
		"message":   "API server is running successfully",
	})
}
