package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/identity"
	"github.com/ashureev/neurosync/internal/notify"
	"github.com/go-chi/chi/v5"
)

type postRequest struct {
	Type    domain.PostType `json:"type"`
	Content string          `json:"content"`
}

type postResponse struct {
	Post          *domain.FeedPost      `json:"post"`
	Notifications []notify.FanoutResult `json:"notifications"`
}

// CreatePost stores a feed post, streams it to live subscribers and, for
// alerts, notifies the rest of the care team.
func (h *CareHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.Type.Valid() {
		Error(w, http.StatusBadRequest, "invalid post type")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		Error(w, http.StatusBadRequest, "content is required")
		return
	}
	p, err := h.patient(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	authorID := identity.CaregiverIDFromContext(r.Context())
	post := &domain.FeedPost{
		PatientID: p.PatientID,
		AuthorID:  authorID,
		Type:      req.Type,
		Content:   content,
	}
	if err := h.repo.CreatePost(r.Context(), post); err != nil {
		writeError(w, r, err)
		return
	}

	if h.hub != nil {
		sent := h.hub.Broadcast(r.Context(), post)
		slog.Debug("Feed post broadcast", "post_id", post.PostID, "subscribers", sent)
	}

	resp := postResponse{Post: post, Notifications: []notify.FanoutResult{}}
	if post.Type == domain.PostAlert {
		resp.Notifications = h.alertTeam(r, p, authorID, content)
	}
	JSON(w, http.StatusCreated, resp)
}

func (h *CareHandler) alertTeam(r *http.Request, p *domain.Patient, authorID, content string) []notify.FanoutResult {
	team, err := h.repo.ListTeam(r.Context(), p.PatientID)
	if err != nil {
		slog.Error("Failed to load care team for alert", "patient_id", p.PatientID, "error", err)
		return []notify.FanoutResult{}
	}

	recipients := make([]*domain.Caregiver, 0, len(team))
	for _, c := range team {
		if c.CaregiverID != authorID && c.Reachable() {
			recipients = append(recipients, c)
		}
	}

	results := h.dispatcher.Fanout(r.Context(), recipients, fmt.Sprintf("Alert for %s", p.Name), content)
	slog.Info("Alert fanned out", "patient_id", p.PatientID, "recipients", len(recipients), "notifications", len(results))
	return results
}

// ListFeed returns posts newest first, optionally filtered by ?type=.
func (h *CareHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	postType := domain.PostType(r.URL.Query().Get("type"))
	if postType != "" && !postType.Valid() {
		Error(w, http.StatusBadRequest, "invalid post type")
		return
	}

	posts, err := h.repo.ListPosts(r.Context(), chi.URLParam(r, "patientID"), postType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(posts))
}
