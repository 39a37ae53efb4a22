package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/identity"
	"github.com/ashureev/neurosync/internal/store"
	"github.com/go-chi/chi/v5"
)

type logRequest struct {
	Mood  string   `json:"mood"`
	Notes string   `json:"notes"`
	Tags  []string `json:"tags"`
}

// CreateLog records a behavior log stamped with the server time.
func (h *CareHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		Error(w, http.StatusBadRequest, "mood is required")
		return
	}
	p, err := h.patient(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	l := &domain.BehaviorLog{
		PatientID: p.PatientID,
		AuthorID:  identity.CaregiverIDFromContext(r.Context()),
		Mood:      mood,
		Notes:     req.Notes,
		Tags:      req.Tags,
		CreatedAt: time.Now(),
	}
	if err := h.repo.CreateLog(r.Context(), l); err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, l)
}

// ListLogs returns logs newest first, optionally since an epoch-millisecond bound.
func (h *CareHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < 0 {
			Error(w, http.StatusBadRequest, "since must be epoch milliseconds")
			return
		}
		since = time.UnixMilli(ms)
	}

	logs, err := h.repo.ListLogs(r.Context(), chi.URLParam(r, "patientID"), since)
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(logs))
}

// UpdateLog applies a partial update to a log.
func (h *CareHandler) UpdateLog(w http.ResponseWriter, r *http.Request) {
	var patch store.LogPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Mood != nil && strings.TrimSpace(*patch.Mood) == "" {
		Error(w, http.StatusBadRequest, "mood cannot be empty")
		return
	}

	l, err := h.repo.UpdateLog(r.Context(), chi.URLParam(r, "patientID"), chi.URLParam(r, "logID"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, l)
}

// DeleteLog removes a log.
func (h *CareHandler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteLog(r.Context(), chi.URLParam(r, "patientID"), chi.URLParam(r, "logID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
