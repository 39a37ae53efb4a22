package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/ashureev/neurosync/internal/identity"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// WebSocketHandler upgrades feed subscriptions for /api/patients/{patientID}/feed/ws.
type WebSocketHandler struct {
	hub            *Hub
	allowedOrigins []string
	isDev          bool
}

// NewWebSocketHandler creates a new WebSocket handler. allowedOrigins is the
// same list the CORS middleware accepts; "*" allows any origin.
func NewWebSocketHandler(hub *Hub, allowedOrigins []string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, allowedOrigins: allowedOrigins, isDev: isDev}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	caregiverID := identity.CaregiverIDFromContext(r.Context())
	if patientID == "" {
		http.Error(w, "patient id required", http.StatusBadRequest)
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "caregiver_id", caregiverID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "subscription ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "caregiver_id", caregiverID)
		}
	}()

	subscriberID := caregiverID + "/" + uuid.NewString()
	h.hub.Register(patientID, subscriberID, ws)
	defer h.hub.Unregister(patientID, subscriberID, ws)

	if err := writeJSON(r.Context(), ws, Event{Type: EventSubscribed, PatientID: patientID}); err != nil {
		slog.Debug("Failed to send subscribe ack", "error", err)
		return
	}

	// Clients only listen; CloseRead handles control frames and cancels on close.
	ctx := ws.CloseRead(r.Context())
	<-ctx.Done()
	slog.Debug("Feed subscription closed", "patient_id", patientID, "caregiver_id", caregiverID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(wctx, websocket.MessageText, data)
}
