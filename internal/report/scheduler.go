package report

import (
	"context"
	"fmt"
	"log/slog"

	rcron "github.com/robfig/cron/v3"
)

// Scheduler runs stored-log delivery for every patient on a cron schedule.
type Scheduler struct {
	delivery *StoredDelivery
	schedule string
	cron     *rcron.Cron
}

// NewScheduler creates a scheduler for a standard five-field cron expression
// (descriptors such as "@weekly" are accepted).
func NewScheduler(delivery *StoredDelivery, schedule string) *Scheduler {
	return &Scheduler{delivery: delivery, schedule: schedule}
}

// Start registers the job and runs it until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = rcron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("register report schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	slog.Info("Report scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		slog.Info("Report scheduler shutting down", "reason", ctx.Err())
	}()
	return nil
}

// RunOnce delivers the report for every patient. A failure for one patient is
// logged and the sweep continues.
func (s *Scheduler) RunOnce(ctx context.Context) (delivered, failed int) {
	patients, err := s.delivery.source.ListPatients(ctx)
	if err != nil {
		slog.Error("Report scheduler failed to list patients", "error", err)
		return 0, 0
	}

	for _, p := range patients {
		if ctx.Err() != nil {
			break
		}
		res, err := s.delivery.deliver(ctx, p)
		if err != nil {
			failed++
			slog.Error("Scheduled report failed", "patient_id", p.PatientID, "error", err)
			continue
		}
		delivered++
		slog.Info("Scheduled report delivered", "patient_id", p.PatientID, "sms_status", res.SMSStatus)
	}

	slog.Info("Report scheduler sweep completed", "delivered", delivered, "failed", failed)
	return delivered, failed
}
