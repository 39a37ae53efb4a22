package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/shared"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS patients (
		patient_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		contact_phone TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS caregivers (
		caregiver_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		device_token TEXT,
		phone TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS care_team (
		patient_id TEXT NOT NULL,
		caregiver_id TEXT NOT NULL,
		joined_at INTEGER NOT NULL,
		PRIMARY KEY (patient_id, caregiver_id)
	);

	CREATE TABLE IF NOT EXISTS behavior_logs (
		log_id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		mood TEXT NOT NULL,
		notes TEXT,
		tags_json TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_logs_patient_created ON behavior_logs(patient_id, created_at);

	CREATE TABLE IF NOT EXISTS routines (
		routine_id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		title TEXT NOT NULL,
		time_of_day TEXT,
		days_json TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_routines_patient ON routines(patient_id);

	CREATE TABLE IF NOT EXISTS feed_posts (
		post_id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		post_type TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feed_patient_created ON feed_posts(patient_id, created_at);

	CREATE TABLE IF NOT EXISTS notifications (
		notification_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		recipient TEXT,
		success INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		provider_id TEXT,
		error TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reports (
		report_id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		storage_key TEXT NOT NULL,
		entry_count INTEGER NOT NULL,
		sms_status TEXT,
		url_expires_at INTEGER NOT NULL,
		generated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_patient ON reports(patient_id, generated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// UpsertPatient creates or updates a patient record.
func (s *SQLiteStore) UpsertPatient(ctx context.Context, p *domain.Patient) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `
	INSERT INTO patients (patient_id, name, contact_phone, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(patient_id) DO UPDATE SET
		name = excluded.name,
		contact_phone = excluded.contact_phone,
		updated_at = excluded.updated_at`

	return withRetry(ctx, "upsert_patient", func() error {
		_, err := s.db.ExecContext(ctx, query,
			p.PatientID, p.Name, nullString(p.ContactPhone),
			p.CreatedAt.UnixMilli(), p.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("upsert patient: %w", err)
		}
		return nil
	})
}

// GetPatient retrieves a patient by id.
func (s *SQLiteStore) GetPatient(ctx context.Context, patientID string) (*domain.Patient, error) {
	query := `
		SELECT patient_id, name, contact_phone, created_at, updated_at
		FROM patients WHERE patient_id = ?`

	p, err := scanPatient(s.db.QueryRowContext(ctx, query, patientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient row: %w", err)
	}
	return p, nil
}

// ListPatients returns all patients ordered by id.
func (s *SQLiteStore) ListPatients(ctx context.Context) ([]*domain.Patient, error) {
	query := `
		SELECT patient_id, name, contact_phone, created_at, updated_at
		FROM patients ORDER BY patient_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer closeRows(rows, "patients")

	var patients []*domain.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient row: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

// UpsertCaregiver creates or updates a caregiver profile.
func (s *SQLiteStore) UpsertCaregiver(ctx context.Context, c *domain.Caregiver) error {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	query := `
	INSERT INTO caregivers (caregiver_id, name, role, device_token, phone, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(caregiver_id) DO UPDATE SET
		name = excluded.name,
		role = excluded.role,
		device_token = excluded.device_token,
		phone = excluded.phone,
		updated_at = excluded.updated_at`

	return withRetry(ctx, "upsert_caregiver", func() error {
		_, err := s.db.ExecContext(ctx, query,
			c.CaregiverID, c.Name, c.Role,
			nullString(c.DeviceToken), nullString(c.Phone),
			c.CreatedAt.UnixMilli(), c.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("upsert caregiver: %w", err)
		}
		return nil
	})
}

// GetCaregiver retrieves a caregiver by id.
func (s *SQLiteStore) GetCaregiver(ctx context.Context, caregiverID string) (*domain.Caregiver, error) {
	query := `
		SELECT caregiver_id, name, role, device_token, phone, created_at, updated_at
		FROM caregivers WHERE caregiver_id = ?`

	c, err := scanCaregiver(s.db.QueryRowContext(ctx, query, caregiverID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan caregiver row: %w", err)
	}
	return c, nil
}

// AddTeamMember links a caregiver to a patient's care team.
func (s *SQLiteStore) AddTeamMember(ctx context.Context, patientID, caregiverID string) error {
	query := `
	INSERT INTO care_team (patient_id, caregiver_id, joined_at) VALUES (?, ?, ?)
	ON CONFLICT(patient_id, caregiver_id) DO NOTHING`

	return withRetry(ctx, "add_team_member", func() error {
		if _, err := s.db.ExecContext(ctx, query, patientID, caregiverID, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("add team member: %w", err)
		}
		return nil
	})
}

// ListTeam returns the caregivers on a patient's care team in join order.
func (s *SQLiteStore) ListTeam(ctx context.Context, patientID string) ([]*domain.Caregiver, error) {
	query := `
		SELECT c.caregiver_id, c.name, c.role, c.device_token, c.phone, c.created_at, c.updated_at
		FROM care_team t JOIN caregivers c ON c.caregiver_id = t.caregiver_id
		WHERE t.patient_id = ?
		ORDER BY t.joined_at, c.caregiver_id`

	rows, err := s.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("query care team: %w", err)
	}
	defer closeRows(rows, "care team")

	var team []*domain.Caregiver
	for rows.Next() {
		c, err := scanCaregiver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan caregiver row: %w", err)
		}
		team = append(team, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate care team: %w", err)
	}
	return team, nil
}

// CreateLog stores a behavior log.
func (s *SQLiteStore) CreateLog(ctx context.Context, l *domain.BehaviorLog) error {
	if l.LogID == "" {
		l.LogID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	tags, err := encodeList(l.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	query := `
	INSERT INTO behavior_logs (log_id, patient_id, author_id, mood, notes, tags_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	return withRetry(ctx, "create_log", func() error {
		_, err := s.db.ExecContext(ctx, query,
			l.LogID, l.PatientID, l.AuthorID, l.Mood,
			nullString(l.Notes), tags, l.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert behavior log: %w", err)
		}
		return nil
	})
}

// ListLogs returns a patient's logs created at or after since, newest first.
func (s *SQLiteStore) ListLogs(ctx context.Context, patientID string, since time.Time) ([]*domain.BehaviorLog, error) {
	query := `
		SELECT log_id, patient_id, author_id, mood, notes, tags_json, created_at
		FROM behavior_logs WHERE patient_id = ? AND created_at >= ?
		ORDER BY created_at DESC, log_id DESC`

	var sinceMs int64
	if !since.IsZero() {
		sinceMs = since.UnixMilli()
	}

	rows, err := s.db.QueryContext(ctx, query, patientID, sinceMs)
	if err != nil {
		return nil, fmt.Errorf("query behavior logs: %w", err)
	}
	defer closeRows(rows, "behavior logs")

	var logs []*domain.BehaviorLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan behavior log row: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate behavior logs: %w", err)
	}
	return logs, nil
}

// UpdateLog applies patch to a log.
func (s *SQLiteStore) UpdateLog(ctx context.Context, patientID, logID string, patch LogPatch) (*domain.BehaviorLog, error) {
	sets := []string{}
	args := []interface{}{}
	if patch.Mood != nil {
		sets = append(sets, "mood = ?")
		args = append(args, *patch.Mood)
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, nullString(*patch.Notes))
	}
	if patch.Tags != nil {
		tags, err := encodeList(*patch.Tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		sets = append(sets, "tags_json = ?")
		args = append(args, tags)
	}

	if len(sets) > 0 {
		query := `UPDATE behavior_logs SET ` + strings.Join(sets, ", ") + ` WHERE patient_id = ? AND log_id = ?`
		args = append(args, patientID, logID)
		if err := s.execAffectingOne(ctx, "update_log", query, args...); err != nil {
			return nil, fmt.Errorf("update behavior log: %w", err)
		}
	}

	query := `
		SELECT log_id, patient_id, author_id, mood, notes, tags_json, created_at
		FROM behavior_logs WHERE patient_id = ? AND log_id = ?`
	l, err := scanLog(s.db.QueryRowContext(ctx, query, patientID, logID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan behavior log row: %w", err)
	}
	return l, nil
}

// DeleteLog removes a log.
func (s *SQLiteStore) DeleteLog(ctx context.Context, patientID, logID string) error {
	query := `DELETE FROM behavior_logs WHERE patient_id = ? AND log_id = ?`
	if err := s.execAffectingOne(ctx, "delete_log", query, patientID, logID); err != nil {
		return fmt.Errorf("delete behavior log: %w", err)
	}
	return nil
}

// CreateRoutine stores a routine.
func (s *SQLiteStore) CreateRoutine(ctx context.Context, r *domain.Routine) error {
	if r.RoutineID == "" {
		r.RoutineID = uuid.NewString()
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	days, err := encodeList(r.Days)
	if err != nil {
		return fmt.Errorf("encode days: %w", err)
	}

	query := `
	INSERT INTO routines (routine_id, patient_id, title, time_of_day, days_json, active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	return withRetry(ctx, "create_routine", func() error {
		_, err := s.db.ExecContext(ctx, query,
			r.RoutineID, r.PatientID, r.Title, nullString(r.Time), days, r.Active,
			r.CreatedAt.UnixMilli(), r.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert routine: %w", err)
		}
		return nil
	})
}

// ListRoutines returns a patient's routines ordered by time of day then title.
// Routines without a time sort last.
func (s *SQLiteStore) ListRoutines(ctx context.Context, patientID string) ([]*domain.Routine, error) {
	query := `
		SELECT routine_id, patient_id, title, time_of_day, days_json, active, created_at, updated_at
		FROM routines WHERE patient_id = ?
		ORDER BY time_of_day IS NULL, time_of_day, title`

	rows, err := s.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("query routines: %w", err)
	}
	defer closeRows(rows, "routines")

	var routines []*domain.Routine
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan routine row: %w", err)
		}
		routines = append(routines, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routines: %w", err)
	}
	return routines, nil
}

// UpdateRoutine applies patch to a routine.
func (s *SQLiteStore) UpdateRoutine(ctx context.Context, patientID, routineID string, patch RoutinePatch) (*domain.Routine, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UnixMilli()}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Time != nil {
		sets = append(sets, "time_of_day = ?")
		args = append(args, nullString(*patch.Time))
	}
	if patch.Days != nil {
		days, err := encodeList(*patch.Days)
		if err != nil {
			return nil, fmt.Errorf("encode days: %w", err)
		}
		sets = append(sets, "days_json = ?")
		args = append(args, days)
	}
	if patch.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, *patch.Active)
	}

	query := `UPDATE routines SET ` + strings.Join(sets, ", ") + ` WHERE patient_id = ? AND routine_id = ?`
	args = append(args, patientID, routineID)
	if err := s.execAffectingOne(ctx, "update_routine", query, args...); err != nil {
		return nil, fmt.Errorf("update routine: %w", err)
	}

	query = `
		SELECT routine_id, patient_id, title, time_of_day, days_json, active, created_at, updated_at
		FROM routines WHERE patient_id = ? AND routine_id = ?`
	r, err := scanRoutine(s.db.QueryRowContext(ctx, query, patientID, routineID))
	if err != nil {
		return nil, fmt.Errorf("scan routine row: %w", err)
	}
	return r, nil
}

// DeleteRoutine removes a routine.
func (s *SQLiteStore) DeleteRoutine(ctx context.Context, patientID, routineID string) error {
	query := `DELETE FROM routines WHERE patient_id = ? AND routine_id = ?`
	if err := s.execAffectingOne(ctx, "delete_routine", query, patientID, routineID); err != nil {
		return fmt.Errorf("delete routine: %w", err)
	}
	return nil
}

// CreatePost stores a feed post.
func (s *SQLiteStore) CreatePost(ctx context.Context, p *domain.FeedPost) error {
	if p.PostID == "" {
		p.PostID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO feed_posts (post_id, patient_id, author_id, post_type, content, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	return withRetry(ctx, "create_post", func() error {
		_, err := s.db.ExecContext(ctx, query,
			p.PostID, p.PatientID, p.AuthorID, string(p.Type), p.Content, p.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert feed post: %w", err)
		}
		return nil
	})
}

// ListPosts returns a patient's feed newest first. An empty postType lists all.
func (s *SQLiteStore) ListPosts(ctx context.Context, patientID string, postType domain.PostType) ([]*domain.FeedPost, error) {
	query := `
		SELECT post_id, patient_id, author_id, post_type, content, created_at
		FROM feed_posts WHERE patient_id = ?`
	args := []interface{}{patientID}
	if postType != "" {
		query += ` AND post_type = ?`
		args = append(args, string(postType))
	}
	query += ` ORDER BY created_at DESC, post_id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feed posts: %w", err)
	}
	defer closeRows(rows, "feed posts")

	var posts []*domain.FeedPost
	for rows.Next() {
		var p domain.FeedPost
		var postType string
		var createdAt int64
		if err := rows.Scan(&p.PostID, &p.PatientID, &p.AuthorID, &postType, &p.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feed post row: %w", err)
		}
		p.Type = domain.PostType(postType)
		p.CreatedAt = time.UnixMilli(createdAt)
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed posts: %w", err)
	}
	return posts, nil
}

// RecordNotification stores a dispatch audit row.
func (s *SQLiteStore) RecordNotification(ctx context.Context, rec *domain.NotificationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO notifications (notification_id, kind, recipient, success, skipped, provider_id, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	return withRetry(ctx, "record_notification", func() error {
		_, err := s.db.ExecContext(ctx, query,
			rec.ID, string(rec.Kind), nullString(rec.Recipient), rec.Success, rec.Skipped,
			nullString(rec.ProviderID), nullString(rec.Error), rec.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert notification record: %w", err)
		}
		return nil
	})
}

// RecordReport stores a report delivery audit row.
func (s *SQLiteStore) RecordReport(ctx context.Context, rec *domain.ReportRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query := `
	INSERT INTO reports (report_id, patient_id, storage_key, entry_count, sms_status, url_expires_at, generated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	return withRetry(ctx, "record_report", func() error {
		_, err := s.db.ExecContext(ctx, query,
			rec.ID, rec.PatientID, rec.StorageKey, rec.EntryCount, nullString(rec.SMSStatus),
			rec.URLExpires.UnixMilli(), rec.GeneratedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert report record: %w", err)
		}
		return nil
	})
}

// ListReports returns a patient's delivered reports, newest first.
func (s *SQLiteStore) ListReports(ctx context.Context, patientID string) ([]*domain.ReportRecord, error) {
	query := `
		SELECT report_id, patient_id, storage_key, entry_count, sms_status, url_expires_at, generated_at
		FROM reports WHERE patient_id = ?
		ORDER BY generated_at DESC, report_id DESC`

	rows, err := s.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer closeRows(rows, "reports")

	var reports []*domain.ReportRecord
	for rows.Next() {
		var r domain.ReportRecord
		var smsStatus sql.NullString
		var expires, generated int64
		if err := rows.Scan(&r.ID, &r.PatientID, &r.StorageKey, &r.EntryCount, &smsStatus, &expires, &generated); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		r.SMSStatus = smsStatus.String
		r.URLExpires = time.UnixMilli(expires)
		r.GeneratedAt = time.UnixMilli(generated)
		reports = append(reports, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

// execAffectingOne runs a write that must touch a row, returning ErrNotFound otherwise.
func (s *SQLiteStore) execAffectingOne(ctx context.Context, op, query string, args ...interface{}) error {
	return withRetry(ctx, op, func() error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*domain.Patient, error) {
	var p domain.Patient
	var phone sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&p.PatientID, &p.Name, &phone, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.ContactPhone = phone.String
	p.CreatedAt = time.UnixMilli(createdAt)
	p.UpdatedAt = time.UnixMilli(updatedAt)
	return &p, nil
}

func scanCaregiver(row rowScanner) (*domain.Caregiver, error) {
	var c domain.Caregiver
	var token, phone sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&c.CaregiverID, &c.Name, &c.Role, &token, &phone, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.DeviceToken = token.String
	c.Phone = phone.String
	c.CreatedAt = time.UnixMilli(createdAt)
	c.UpdatedAt = time.UnixMilli(updatedAt)
	return &c, nil
}

func scanLog(row rowScanner) (*domain.BehaviorLog, error) {
	var l domain.BehaviorLog
	var notes, tags sql.NullString
	var createdAt int64
	if err := row.Scan(&l.LogID, &l.PatientID, &l.AuthorID, &l.Mood, &notes, &tags, &createdAt); err != nil {
		return nil, err
	}
	l.Notes = notes.String
	l.CreatedAt = time.UnixMilli(createdAt)
	list, err := decodeList(tags)
	if err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	l.Tags = list
	return &l, nil
}

func scanRoutine(row rowScanner) (*domain.Routine, error) {
	var r domain.Routine
	var timeOfDay, days sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&r.RoutineID, &r.PatientID, &r.Title, &timeOfDay, &days, &r.Active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.Time = timeOfDay.String
	r.CreatedAt = time.UnixMilli(createdAt)
	r.UpdatedAt = time.UnixMilli(updatedAt)
	list, err := decodeList(days)
	if err != nil {
		return nil, fmt.Errorf("decode days: %w", err)
	}
	r.Days = list
	return &r, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func encodeList(items []string) (interface{}, error) {
	if len(items) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeList(v sql.NullString) ([]string, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(v.String), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "query", what, "error", err)
	}
}
