package api

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/store"
	"github.com/go-chi/chi/v5"
)

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type routineRequest struct {
	Title string   `json:"title"`
	Time  string   `json:"time"`
	Days  []string `json:"days"`
}

// CreateRoutine adds an active routine for the patient.
func (h *CareHandler) CreateRoutine(w http.ResponseWriter, r *http.Request) {
	var req routineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Time != "" && !timeOfDayPattern.MatchString(req.Time) {
		Error(w, http.StatusBadRequest, "time must be HH:MM")
		return
	}
	p, err := h.patient(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	routine := &domain.Routine{
		PatientID: p.PatientID,
		Title:     title,
		Time:      req.Time,
		Days:      req.Days,
		Active:    true,
	}
	if err := h.repo.CreateRoutine(r.Context(), routine); err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, routine)
}

// ListRoutines returns routines ordered by time then title.
func (h *CareHandler) ListRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := h.repo.ListRoutines(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(routines))
}

// UpdateRoutine applies a partial update to a routine.
func (h *CareHandler) UpdateRoutine(w http.ResponseWriter, r *http.Request) {
	var patch store.RoutinePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		Error(w, http.StatusBadRequest, "title cannot be empty")
		return
	}
	if patch.Time != nil && *patch.Time != "" && !timeOfDayPattern.MatchString(*patch.Time) {
		Error(w, http.StatusBadRequest, "time must be HH:MM")
		return
	}

	routine, err := h.repo.UpdateRoutine(r.Context(), chi.URLParam(r, "patientID"), chi.URLParam(r, "routineID"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, routine)
}

// DeleteRoutine removes a routine.
func (h *CareHandler) DeleteRoutine(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteRoutine(r.Context(), chi.URLParam(r, "patientID"), chi.URLParam(r, "routineID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
