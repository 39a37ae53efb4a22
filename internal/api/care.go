package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/identity"
	"github.com/ashureev/neurosync/internal/shared"
	"github.com/go-chi/chi/v5"
)

// CareHandler handles the authenticated care-team endpoints under /api.
type CareHandler struct {
	*Handler
	ws http.Handler
}

// NewCareHandler creates a care handler. ws serves the feed websocket.
func NewCareHandler(base *Handler, ws http.Handler) *CareHandler {
	return &CareHandler{Handler: base, ws: ws}
}

// RegisterRoutes registers care-team routes behind the given middleware.
func (h *CareHandler) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(mw...)

		r.Get("/caregivers/me", h.GetMe)
		r.Put("/caregivers/me", h.PutMe)

		r.Get("/patients", h.ListPatients)
		r.Route("/patients/{patientID}", func(r chi.Router) {
			r.Get("/", h.GetPatient)
			r.Put("/", h.PutPatient)

			r.Get("/team", h.ListTeam)
			r.Post("/team", h.JoinTeam)

			r.Get("/logs", h.ListLogs)
			r.Post("/logs", h.CreateLog)
			r.Patch("/logs/{logID}", h.UpdateLog)
			r.Delete("/logs/{logID}", h.DeleteLog)

			r.Get("/routines", h.ListRoutines)
			r.Post("/routines", h.CreateRoutine)
			r.Patch("/routines/{routineID}", h.UpdateRoutine)
			r.Delete("/routines/{routineID}", h.DeleteRoutine)

			r.Get("/feed", h.ListFeed)
			r.Post("/feed", h.CreatePost)
			if h.ws != nil {
				r.Get("/feed/ws", h.ws.ServeHTTP)
			}

			r.Post("/report", h.DeliverReport)
			r.Get("/reports", h.ListReports)
		})
	})
}

// GetMe returns the calling caregiver's profile.
func (h *CareHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.GetCaregiver(r.Context(), identity.CaregiverIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c == nil {
		Error(w, http.StatusNotFound, "caregiver not found")
		return
	}
	JSON(w, http.StatusOK, c)
}

type caregiverRequest struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	DeviceToken string `json:"deviceToken"`
	Phone       string `json:"phone"`
}

// PutMe upserts the calling caregiver's profile.
func (h *CareHandler) PutMe(w http.ResponseWriter, r *http.Request) {
	var req caregiverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !domain.ValidRole(req.Role) {
		Error(w, http.StatusBadRequest, "invalid role")
		return
	}

	c := &domain.Caregiver{
		CaregiverID: identity.CaregiverIDFromContext(r.Context()),
		Name:        strings.TrimSpace(req.Name),
		Role:        req.Role,
		DeviceToken: req.DeviceToken,
		Phone:       req.Phone,
	}
	if c.Name == "" {
		c.Name = c.CaregiverID
	}
	if existing, err := h.repo.GetCaregiver(r.Context(), c.CaregiverID); err == nil && existing != nil {
		c.CreatedAt = existing.CreatedAt
	}
	if err := h.repo.UpsertCaregiver(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, c)
}

// ListPatients returns all patients.
func (h *CareHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.repo.ListPatients(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(patients))
}

// GetPatient returns one patient.
func (h *CareHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.patient(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

type patientRequest struct {
	Name         string `json:"name"`
	ContactPhone string `json:"contactPhone"`
}

// PutPatient upserts a patient.
func (h *CareHandler) PutPatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}

	patientID := chi.URLParam(r, "patientID")
	p := &domain.Patient{PatientID: patientID, Name: name, ContactPhone: req.ContactPhone}
	if existing, err := h.repo.GetPatient(r.Context(), patientID); err == nil && existing != nil {
		p.CreatedAt = existing.CreatedAt
	}
	if err := h.repo.UpsertPatient(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

// ListTeam returns the patient's care team.
func (h *CareHandler) ListTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.repo.ListTeam(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(team))
}

// JoinTeam adds the calling caregiver to the patient's care team.
func (h *CareHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	p, err := h.patient(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	caregiverID := identity.CaregiverIDFromContext(r.Context())
	if err := h.repo.AddTeamMember(r.Context(), p.PatientID, caregiverID); err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"patient_id": p.PatientID, "caregiver_id": caregiverID})
}

// DeliverReport builds and delivers the report from the patient's stored logs.
func (h *CareHandler) DeliverReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.stored.DeliverPatient(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDelivery(w, result)
}

// ListReports returns the patient's delivered reports.
func (h *CareHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.repo.ListReports(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(reports))
}

// patient loads a patient, returning a not-found error when it does not exist.
func (h *CareHandler) patient(ctx context.Context, patientID string) (*domain.Patient, error) {
	p, err := h.repo.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, shared.Errorf(shared.KindNotFound, "patient %s not found", patientID)
	}
	return p, nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
