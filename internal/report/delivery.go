package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/shared"
	"github.com/google/uuid"
)

const pdfContentType = "application/pdf"

// Renderer produces the report document bytes.
type Renderer interface {
	Generate(ctx context.Context, patientID string, entries []domain.LogEntry) ([]byte, error)
}

// ObjectStore uploads report artifacts and issues time-limited read URLs.
type ObjectStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) shared.Result[string]
	SignedURL(ctx context.Context, key string, expiry time.Duration) shared.Result[string]
}

// Notifier sends a single notification. *notify.Dispatcher satisfies it.
type Notifier interface {
	Dispatch(ctx context.Context, req domain.NotificationRequest) (domain.NotificationResult, error)
}

// Recorder persists an audit row for each delivered report.
type Recorder interface {
	RecordReport(ctx context.Context, rec *domain.ReportRecord) error
}

// DeliveryConfig holds the delivery policy knobs.
type DeliveryConfig struct {
	AdminPhone string
	URLExpiry  time.Duration
}

// Orchestrator runs generate, store and notify for one report. Generate and
// store failures abort the delivery; the SMS step is best-effort.
type Orchestrator struct {
	renderer Renderer
	store    ObjectStore
	notifier Notifier
	recorder Recorder
	cfg      DeliveryConfig
	now      func() time.Time
}

// NewOrchestrator creates an Orchestrator. A nil store means object storage is
// not configured and every delivery fails as unavailable.
func NewOrchestrator(renderer Renderer, store ObjectStore, notifier Notifier, cfg DeliveryConfig) *Orchestrator {
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = time.Hour
	}
	return &Orchestrator{
		renderer: renderer,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetRecorder attaches an audit recorder.
func (o *Orchestrator) SetRecorder(r Recorder) {
	o.recorder = r
}

// StorageEnabled returns true if an object store is wired.
func (o *Orchestrator) StorageEnabled() bool {
	return o.store != nil
}

// Deliver generates the report for patientID, stores it and texts the download
// link to contactPhone, or to the admin number when contactPhone is empty.
func (o *Orchestrator) Deliver(ctx context.Context, patientID string, entries []domain.LogEntry, contactPhone string) (domain.DeliveryResult, error) {
	if patientID == "" {
		return fail(shared.Errorf(shared.KindInvalidRequest, "patientId is required"))
	}
	if o.store == nil {
		return fail(shared.Errorf(shared.KindProviderUnavailable, "report storage not configured"))
	}

	pdf, err := o.renderer.Generate(ctx, patientID, entries)
	if err != nil {
		slog.Error("Report generation failed", "patient_id", patientID, "error", err)
		return fail(shared.Wrap(shared.KindRender, "generate report", err))
	}

	now := o.now()
	key := domain.ReportKey(patientID, now, uuid.NewString()[:8])
	if _, err := o.store.Save(ctx, key, pdf, pdfContentType).Unpack(); err != nil {
		slog.Error("Report upload failed", "patient_id", patientID, "key", key, "error", err)
		return fail(shared.Wrap(shared.KindStorage, "store report", err))
	}

	url, err := o.store.SignedURL(ctx, key, o.cfg.URLExpiry).Unpack()
	if err != nil {
		slog.Error("Signed URL issuance failed", "patient_id", patientID, "key", key, "error", err)
		return fail(shared.Wrap(shared.KindStorage, "sign report url", err))
	}

	result := domain.DeliveryResult{
		Success:     true,
		DownloadURL: url,
		SMSStatus:   o.notify(ctx, patientID, url, contactPhone),
	}

	slog.Info("Report delivered",
		"patient_id", patientID,
		"key", key,
		"entries", len(entries),
		"bytes", len(pdf),
		"sms_status", result.SMSStatus)

	o.record(ctx, &domain.ReportRecord{
		PatientID:   patientID,
		StorageKey:  key,
		EntryCount:  len(entries),
		SMSStatus:   result.SMSStatus,
		URLExpires:  now.Add(o.cfg.URLExpiry),
		GeneratedAt: now,
	})

	return result, nil
}

func (o *Orchestrator) notify(ctx context.Context, patientID, url, contactPhone string) string {
	phone := contactPhone
	if phone == "" {
		phone = o.cfg.AdminPhone
	}
	if phone == "" || o.notifier == nil {
		return domain.SMSStatusNoPhone
	}

	res, err := o.notifier.Dispatch(ctx, domain.NotificationRequest{
		Kind:      domain.KindSMS,
		Recipient: phone,
		Message:   fmt.Sprintf("Weekly report ready for %s: %s", patientID, url),
	})
	switch {
	case err != nil:
		return "Failed: " + err.Error()
	case res.Success:
		return domain.SMSStatusSent
	case res.Skipped:
		return domain.SMSStatusSkipped
	default:
		return "Failed: " + res.Error
	}
}

func (o *Orchestrator) record(ctx context.Context, rec *domain.ReportRecord) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordReport(ctx, rec); err != nil {
		slog.Error("Failed to record report", "patient_id", rec.PatientID, "error", err)
	}
}

func fail(err error) (domain.DeliveryResult, error) {
	return domain.DeliveryResult{Success: false, Error: err.Error()}, err
}
