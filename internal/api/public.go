package api

import (
	"net/http"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/shared"
	"github.com/go-chi/chi/v5"
)

// PublicHandler serves the unauthenticated notify and report endpoints.
type PublicHandler struct {
	*Handler
}

// NewPublicHandler creates a new public handler.
func NewPublicHandler(base *Handler) *PublicHandler {
	return &PublicHandler{Handler: base}
}

// RegisterRoutes registers /notify and /report behind the given middleware.
func (h *PublicHandler) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(mw...)
		r.Post("/notify", h.Notify)
		r.Post("/report", h.Report)
	})
}

type notifyRequest struct {
	Type    string `json:"type"`
	Contact string `json:"contact"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notify dispatches a single push or SMS notification.
func (h *PublicHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), domain.NotificationRequest{
		Kind:      domain.NotificationKind(req.Type),
		Recipient: req.Contact,
		Title:     req.Title,
		Message:   req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": result.Success,
		"result":  result,
	})
}

type reportRequest struct {
	PatientID    string            `json:"patientId"`
	Logs         []domain.LogEntry `json:"logs"`
	ContactPhone string            `json:"contactPhone"`
}

// Report renders, stores and announces a weekly report for caller-supplied logs.
func (h *PublicHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.PatientID == "" || req.Logs == nil {
		writeError(w, r, shared.Errorf(shared.KindInvalidRequest, "patientId and logs are required"))
		return
	}

	result, err := h.orch.Deliver(r.Context(), req.PatientID, req.Logs, req.ContactPhone)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDelivery(w, result)
}

func writeDelivery(w http.ResponseWriter, result domain.DeliveryResult) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":     result.Success,
		"downloadUrl": result.DownloadURL,
		"url":         result.DownloadURL,
		"smsStatus":   result.SMSStatus,
	})
}
