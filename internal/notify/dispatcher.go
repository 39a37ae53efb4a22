package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/shared"
)

// Dispatcher routes a NotificationRequest to exactly one transport. Transport
// failures are captured in the result; only malformed requests return an error.
type Dispatcher struct {
	push     PushSender
	sms      SMSSender
	recorder Recorder
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder attaches an audit recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// NewDispatcher creates a dispatcher. A nil transport means the provider is not
// configured and requests for it fail without an external call.
func NewDispatcher(push PushSender, sms SMSSender, opts ...Option) *Dispatcher {
	d := &Dispatcher{push: push, sms: sms}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PushEnabled returns true if a push transport is wired.
func (d *Dispatcher) PushEnabled() bool { return d.push != nil }

// SMSEnabled returns true if an SMS transport is wired.
func (d *Dispatcher) SMSEnabled() bool { return d.sms != nil }

// Dispatch sends req through the transport selected by req.Kind.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.NotificationRequest) (domain.NotificationResult, error) {
	if !req.Kind.Valid() {
		return domain.NotificationResult{}, shared.Errorf(shared.KindInvalidRequest, "invalid notification type %q", req.Kind)
	}

	if req.Recipient == "" {
		slog.Info("Notification skipped, no recipient", "kind", req.Kind)
		result := domain.NotificationResult{Skipped: true, Error: "no recipient"}
		d.record(ctx, req, result)
		return result, nil
	}

	if req.Message == "" {
		return domain.NotificationResult{}, shared.Errorf(shared.KindInvalidRequest, "message is required")
	}

	var sent shared.Result[string]
	switch req.Kind {
	case domain.KindPush:
		if d.push == nil {
			sent = shared.Err[string](shared.KindProviderUnavailable, "push transport not configured")
		} else {
			sent = d.push.SendPush(ctx, req.Recipient, req.Title, req.Message)
		}
	case domain.KindSMS:
		if d.sms == nil {
			sent = shared.Err[string](shared.KindProviderUnavailable, "sms transport not configured")
		} else {
			sent = d.sms.SendSMS(ctx, req.Recipient, req.Message)
		}
	}

	var result domain.NotificationResult
	if sent.IsOk() {
		result = domain.NotificationResult{Success: true, ProviderID: sent.Value()}
		slog.Info("Notification sent", "kind", req.Kind, "provider_id", result.ProviderID)
	} else {
		failure := sent.Failure()
		result = domain.NotificationResult{Error: failure.Error()}
		slog.Warn("Notification failed", "kind", req.Kind, "error_kind", failure.Kind, "error", failure.Error())
	}

	d.record(ctx, req, result)
	return result, nil
}

func (d *Dispatcher) record(ctx context.Context, req domain.NotificationRequest, result domain.NotificationResult) {
	if d.recorder == nil {
		return
	}
	rec := &domain.NotificationRecord{
		Kind:       req.Kind,
		Recipient:  req.Recipient,
		Success:    result.Success,
		Skipped:    result.Skipped,
		ProviderID: result.ProviderID,
		Error:      result.Error,
		CreatedAt:  time.Now(),
	}
	if err := d.recorder.RecordNotification(ctx, rec); err != nil {
		slog.Error("Failed to record notification", "kind", req.Kind, "error", err)
	}
}
