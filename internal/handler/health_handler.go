package handler

import (
	"context"
	"net/http"
	"time"

	"nextstep-polls/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Service   string    `json:"service"`
	Store     string    `json:"store"`
}

// Check handles GET /health. It reports 503 when the store backend is unreachable.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "nextstep-polls",
		Store:     h.container.GetConfig().StoreBackend,
	}
	status := http.StatusOK

	if err := h.container.Health(ctx); err != nil {
		logger.WithError(err).Warn("Health check failed")
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, response)
}
