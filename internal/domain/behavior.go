package domain

import (
	"time"
)

// BehaviorLog is a stored mood/behavior observation for a patient.
type BehaviorLog struct {
	LogID     string    `json:"log_id"`
	PatientID string    `json:"patient_id"`
	AuthorID  string    `json:"author_id"`
	Mood      string    `json:"mood"`
	Notes     string    `json:"notes,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry converts the stored log into the report input shape.
func (l *BehaviorLog) Entry() LogEntry {
	return LogEntry{
		Mood:      l.Mood,
		Notes:     l.Notes,
		Timestamp: l.CreatedAt.UnixMilli(),
	}
}

// Routine is a recurring daily activity for a patient.
type Routine struct {
	RoutineID string    `json:"routine_id"`
	PatientID string    `json:"patient_id"`
	Title     string    `json:"title"`
	Time      string    `json:"time,omitempty"` // "HH:MM", local to the care team
	Days      []string  `json:"days,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
