// Package feed streams care-team feed posts to connected caregivers over WebSocket.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// Event is the envelope written to subscribers.
type Event struct {
	Type      string           `json:"type"`
	PatientID string           `json:"patient_id"`
	Post      *domain.FeedPost `json:"post,omitempty"`
}

// Event types.
const (
	EventSubscribed = "subscribed"
	EventPost       = "post"
)

// Hub tracks live feed subscriptions per patient.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// Register adds a subscriber connection for a patient's feed.
func (h *Hub) Register(patientID, subscriberID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[patientID]; !exists {
		h.active[patientID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := h.active[patientID][subscriberID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "subscription replaced")
	}

	h.active[patientID][subscriberID] = conn
	slog.Info("Feed subscriber registered", "patient_id", patientID, "subscriber_id", subscriberID)
}

// Unregister removes a subscriber if conn is still the registered connection.
func (h *Hub) Unregister(patientID, subscriberID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.active[patientID]
	if !ok {
		return
	}
	if current, exists := subs[subscriberID]; exists && current == conn {
		delete(subs, subscriberID)
		if len(subs) == 0 {
			delete(h.active, patientID)
		}
		slog.Info("Feed subscriber unregistered", "patient_id", patientID, "subscriber_id", subscriberID)
	}
}

// Subscribers returns the number of live subscribers for a patient.
func (h *Hub) Subscribers(patientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active[patientID])
}

// Broadcast writes post to every subscriber of its patient and returns how
// many writes succeeded. Failed subscribers are left for their reader to drop.
func (h *Hub) Broadcast(ctx context.Context, post *domain.FeedPost) int {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.active[post.PatientID]))
	for _, c := range h.active[post.PatientID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return 0
	}

	data, err := json.Marshal(Event{Type: EventPost, PatientID: post.PatientID, Post: post})
	if err != nil {
		slog.Error("Failed to encode feed event", "post_id", post.PostID, "error", err)
		return 0
	}

	sent := 0
	for _, c := range conns {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("Feed write failed", "patient_id", post.PatientID, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// CloseAll terminates every subscription.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for patientID, subs := range h.active {
		for _, conn := range subs {
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		delete(h.active, patientID)
	}
}
