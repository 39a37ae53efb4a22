// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
)

// LogPatch holds the fields of a behavior log to change. Nil fields are kept.
type LogPatch struct {
	Mood  *string   `json:"mood,omitempty"`
	Notes *string   `json:"notes,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}

// RoutinePatch holds the fields of a routine to change. Nil fields are kept.
type RoutinePatch struct {
	Title  *string   `json:"title,omitempty"`
	Time   *string   `json:"time,omitempty"`
	Days   *[]string `json:"days,omitempty"`
	Active *bool     `json:"active,omitempty"`
}

// Repository defines the interface for persisting care-team data.
type Repository interface {
	// UpsertPatient creates or updates a patient record.
	UpsertPatient(ctx context.Context, p *domain.Patient) error

	// GetPatient retrieves a patient. It returns nil, nil if none exists.
	GetPatient(ctx context.Context, patientID string) (*domain.Patient, error)

	// ListPatients returns all patients ordered by id.
	ListPatients(ctx context.Context) ([]*domain.Patient, error)

	// UpsertCaregiver creates or updates a caregiver profile.
	UpsertCaregiver(ctx context.Context, c *domain.Caregiver) error

	// GetCaregiver retrieves a caregiver. It returns nil, nil if none exists.
	GetCaregiver(ctx context.Context, caregiverID string) (*domain.Caregiver, error)

	// AddTeamMember links a caregiver to a patient's care team. Re-adding is a no-op.
	AddTeamMember(ctx context.Context, patientID, caregiverID string) error

	// ListTeam returns the caregivers on a patient's care team.
	ListTeam(ctx context.Context, patientID string) ([]*domain.Caregiver, error)

	// CreateLog stores a behavior log, assigning its id and timestamp when unset.
	CreateLog(ctx context.Context, l *domain.BehaviorLog) error

	// ListLogs returns a patient's logs created at or after since, newest first.
	ListLogs(ctx context.Context, patientID string, since time.Time) ([]*domain.BehaviorLog, error)

	// UpdateLog applies patch and returns the updated log.
	UpdateLog(ctx context.Context, patientID, logID string, patch LogPatch) (*domain.BehaviorLog, error)

	// DeleteLog removes a log.
	DeleteLog(ctx context.Context, patientID, logID string) error

	// CreateRoutine stores a routine, assigning its id when unset.
	CreateRoutine(ctx context.Context, r *domain.Routine) error

	// ListRoutines returns a patient's routines ordered by time then title.
	ListRoutines(ctx context.Context, patientID string) ([]*domain.Routine, error)

	// UpdateRoutine applies patch and returns the updated routine.
	UpdateRoutine(ctx context.Context, patientID, routineID string, patch RoutinePatch) (*domain.Routine, error)

	// DeleteRoutine removes a routine.
	DeleteRoutine(ctx context.Context, patientID, routineID string) error

	// CreatePost stores a feed post, assigning its id and timestamp when unset.
	CreatePost(ctx context.Context, p *domain.FeedPost) error

	// ListPosts returns a patient's feed newest first, optionally filtered by type.
	ListPosts(ctx context.Context, patientID string, postType domain.PostType) ([]*domain.FeedPost, error)

	// RecordNotification stores a dispatch audit row.
	RecordNotification(ctx context.Context, rec *domain.NotificationRecord) error

	// RecordReport stores a report delivery audit row.
	RecordReport(ctx context.Context, rec *domain.ReportRecord) error

	// ListReports returns a patient's delivered reports, newest first.
	ListReports(ctx context.Context, patientID string) ([]*domain.ReportRecord, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
