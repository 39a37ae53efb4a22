package report

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/shared"
)

// LogSource reads the persisted patients and behavior logs a scheduled report
// is built from.
type LogSource interface {
	GetPatient(ctx context.Context, patientID string) (*domain.Patient, error)
	ListPatients(ctx context.Context) ([]*domain.Patient, error)
	ListLogs(ctx context.Context, patientID string, since time.Time) ([]*domain.BehaviorLog, error)
}

// StoredDelivery builds reports from persisted logs over a trailing window.
type StoredDelivery struct {
	orch   *Orchestrator
	source LogSource
	window time.Duration
	now    func() time.Time
}

// NewStoredDelivery creates a StoredDelivery covering the last window of logs.
func NewStoredDelivery(orch *Orchestrator, source LogSource, window time.Duration) *StoredDelivery {
	return &StoredDelivery{orch: orch, source: source, window: window, now: time.Now}
}

// DeliverPatient delivers the report for one stored patient. The patient's
// contact phone is used, falling back to the admin number.
func (s *StoredDelivery) DeliverPatient(ctx context.Context, patientID string) (domain.DeliveryResult, error) {
	patient, err := s.source.GetPatient(ctx, patientID)
	if err != nil {
		return fail(fmt.Errorf("load patient: %w", err))
	}
	if patient == nil {
		return fail(shared.Errorf(shared.KindNotFound, "patient %s not found", patientID))
	}
	return s.deliver(ctx, patient)
}

func (s *StoredDelivery) deliver(ctx context.Context, patient *domain.Patient) (domain.DeliveryResult, error) {
	logs, err := s.source.ListLogs(ctx, patient.PatientID, s.now().Add(-s.window))
	if err != nil {
		return fail(fmt.Errorf("load logs: %w", err))
	}

	// ListLogs is newest first; reports read oldest first.
	entries := make([]domain.LogEntry, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		entries = append(entries, logs[i].Entry())
	}

	return s.orch.Deliver(ctx, patient.PatientID, entries, patient.ContactPhone)
}
