// Package notify routes caregiver notifications to the push or SMS transport.
package notify

import (
	"context"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/shared"
)

// PushSender delivers a push notification to a device token and returns the
// provider's message id.
type PushSender interface {
	SendPush(ctx context.Context, deviceToken, title, body string) shared.Result[string]
}

// SMSSender delivers a text message from the configured sender number and
// returns the provider's message sid.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) shared.Result[string]
}

// Recorder persists an audit row for each dispatch.
type Recorder interface {
	RecordNotification(ctx context.Context, rec *domain.NotificationRecord) error
}
