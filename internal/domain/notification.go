package domain

import "time"

// NotificationKind selects the transport a notification is routed to.
type NotificationKind string

const (
	KindPush NotificationKind = "push"
	KindSMS  NotificationKind = "sms"
)

// Valid reports whether k names a supported transport.
func (k NotificationKind) Valid() bool {
	return k == KindPush || k == KindSMS
}

// NotificationRequest is a single notification to route. Recipient is a device
// token for push and a phone number for SMS. Title is only used by push.
type NotificationRequest struct {
	Kind      NotificationKind `json:"kind"`
	Recipient string           `json:"recipient"`
	Title     string           `json:"title,omitempty"`
	Message   string           `json:"message"`
}

// NotificationResult is the uniform outcome of a dispatch. Failures from the
// provider are carried in Error rather than returned.
type NotificationResult struct {
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"`
	ProviderID string `json:"providerId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NotificationRecord is the audit row written for every dispatch.
type NotificationRecord struct {
	ID         string           `json:"id"`
	Kind       NotificationKind `json:"kind"`
	Recipient  string           `json:"recipient"`
	Success    bool             `json:"success"`
	Skipped    bool             `json:"skipped"`
	ProviderID string           `json:"provider_id,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
