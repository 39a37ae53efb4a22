package domain

import (
	"fmt"
	"net/url"
	"time"
)

// LogEntry is one behavior observation rendered into a report. Timestamp is
// epoch milliseconds; zero means the time is unknown.
type LogEntry struct {
	Mood      string `json:"mood"`
	Notes     string `json:"notes,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Time returns the entry time, or the zero time when unknown.
func (e LogEntry) Time() time.Time {
	if e.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.Timestamp)
}

// SMS status values reported by a delivery.
const (
	SMSStatusSent    = "Sent"
	SMSStatusSkipped = "Skipped"
	SMSStatusNoPhone = "No phone provided"
)

// DeliveryResult is the terminal output of a report delivery.
type DeliveryResult struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	SMSStatus   string `json:"smsStatus,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ReportKey returns the storage key for a weekly report generated at t. The
// patient id is path-escaped so it always occupies one key segment; nonce keeps
// keys distinct for reports generated in the same millisecond.
func ReportKey(patientID string, t time.Time, nonce string) string {
	return fmt.Sprintf("reports/%s/%d-%s-weekly.pdf", url.PathEscape(patientID), t.UnixMilli(), nonce)
}

// ReportRecord is the audit row for a delivered report.
type ReportRecord struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	StorageKey  string    `json:"storage_key"`
	EntryCount  int       `json:"entry_count"`
	SMSStatus   string    `json:"sms_status,omitempty"`
	URLExpires  time.Time `json:"url_expires_at"`
	GeneratedAt time.Time `json:"generated_at"`
}
