// Package api provides HTTP handlers for the NeuroSync API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ashureev/neurosync/internal/feed"
	"github.com/ashureev/neurosync/internal/notify"
	"github.com/ashureev/neurosync/internal/report"
	"github.com/ashureev/neurosync/internal/shared"
	"github.com/ashureev/neurosync/internal/store"
)

const maxBodyBytes = 1 << 20

// Handler provides common handler utilities.
type Handler struct {
	repo       store.Repository
	dispatcher *notify.Dispatcher
	orch       *report.Orchestrator
	stored     *report.StoredDelivery
	hub        *feed.Hub
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, dispatcher *notify.Dispatcher, orch *report.Orchestrator, stored *report.StoredDelivery, hub *feed.Hub) *Handler {
	return &Handler{
		repo:       repo,
		dispatcher: dispatcher,
		orch:       orch,
		stored:     stored,
		hub:        hub,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind shared.Kind) int {
	switch kind {
	case shared.KindInvalidRequest:
		return http.StatusBadRequest
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindProviderUnavailable:
		return http.StatusServiceUnavailable
	case shared.KindProviderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the status its kind maps to. Unclassified errors
// are logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := shared.KindOf(err)
	status := StatusFor(kind)
	if kind == shared.KindInternal {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Error(w, status, "internal server error")
		return
	}
	Error(w, status, err.Error())
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return shared.Errorf(shared.KindInvalidRequest, "request body is required")
		}
		return shared.Errorf(shared.KindInvalidRequest, "invalid request body: %v", err)
	}
	return nil
}
