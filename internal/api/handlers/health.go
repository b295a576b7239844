package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eshaffer321/subtrack/internal/api/dto"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := dto.NewHealthResponse()
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			response.Status = "degraded"
			response.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			response.Database = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
