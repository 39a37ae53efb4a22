package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/neurosync/internal/store"
	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 5 * time.Second

// Providers reports which external capabilities are wired.
type Providers struct {
	Push    bool `json:"push"`
	SMS     bool `json:"sms"`
	Storage bool `json:"storage"`
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo      store.Repository
	providers Providers
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository, providers Providers) *HealthHandler {
	return &HealthHandler{repo: repo, providers: providers}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok", "database": "ok"}
	status := "healthy"
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	}

	JSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"checks":    checks,
		"providers": h.providers,
	})
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}
