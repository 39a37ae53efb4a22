package notify

import (
	"context"
	"log/slog"

	"github.com/ashureev/neurosync/internal/domain"
)

// FanoutResult pairs a recipient caregiver with the outcome of one channel.
type FanoutResult struct {
	CaregiverID string                    `json:"caregiverId"`
	Kind        domain.NotificationKind   `json:"kind"`
	Result      domain.NotificationResult `json:"result"`
}

// Fanout sends title/message to every caregiver in order: a push to each device
// token, then an SMS to each phone. A failure on one recipient never stops the rest.
func (d *Dispatcher) Fanout(ctx context.Context, recipients []*domain.Caregiver, title, message string) []FanoutResult {
	results := make([]FanoutResult, 0, len(recipients)*2)
	for _, c := range recipients {
		if c.DeviceToken != "" {
			results = append(results, d.fanoutOne(ctx, c.CaregiverID, domain.NotificationRequest{
				Kind:      domain.KindPush,
				Recipient: c.DeviceToken,
				Title:     title,
				Message:   message,
			}))
		}
		if c.Phone != "" {
			results = append(results, d.fanoutOne(ctx, c.CaregiverID, domain.NotificationRequest{
				Kind:      domain.KindSMS,
				Recipient: c.Phone,
				Message:   message,
			}))
		}
	}
	return results
}

func (d *Dispatcher) fanoutOne(ctx context.Context, caregiverID string, req domain.NotificationRequest) FanoutResult {
	result, err := d.Dispatch(ctx, req)
	if err != nil {
		slog.Warn("Fanout notification rejected", "caregiver_id", caregiverID, "kind", req.Kind, "error", err)
		result = domain.NotificationResult{Error: err.Error()}
	}
	return FanoutResult{CaregiverID: caregiverID, Kind: req.Kind, Result: result}
}
