package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestPatientUpsertAndGet(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	got, err := repo.GetPatient(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	p := &domain.Patient{PatientID: "p1", Name: "Ada", ContactPhone: "+15550001"}
	require.NoError(t, repo.UpsertPatient(ctx, p))

	p.Name = "Ada L."
	require.NoError(t, repo.UpsertPatient(ctx, p))

	got, err = repo.GetPatient(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, "+15550001", got.ContactPhone)

	require.NoError(t, repo.UpsertPatient(ctx, &domain.Patient{PatientID: "p0", Name: "Bo"}))
	all, err := repo.ListPatients(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p0", all[0].PatientID)
	assert.Empty(t, all[0].ContactPhone)
}

func TestCareTeam(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertCaregiver(ctx, &domain.Caregiver{CaregiverID: "c1", Name: "Kim", Role: domain.RoleCaregiver, Phone: "+1555"}))
	require.NoError(t, repo.UpsertCaregiver(ctx, &domain.Caregiver{CaregiverID: "c2", Name: "Dr. Lee", Role: domain.RoleDoctor, DeviceToken: "tok"}))

	c, err := repo.GetCaregiver(ctx, "c2")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "tok", c.DeviceToken)

	require.NoError(t, repo.AddTeamMember(ctx, "p1", "c1"))
	require.NoError(t, repo.AddTeamMember(ctx, "p1", "c2"))
	require.NoError(t, repo.AddTeamMember(ctx, "p1", "c1"))

	team, err := repo.ListTeam(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, team, 2)

	empty, err := repo.ListTeam(ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBehaviorLogs(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1700000000000)

	old := &domain.BehaviorLog{PatientID: "p1", AuthorID: "c1", Mood: "calm", CreatedAt: base.Add(-10 * 24 * time.Hour)}
	recent := &domain.BehaviorLog{PatientID: "p1", AuthorID: "c1", Mood: "anxious", Notes: "restless", Tags: []string{"sleep"}, CreatedAt: base}
	require.NoError(t, repo.CreateLog(ctx, old))
	require.NoError(t, repo.CreateLog(ctx, recent))
	assert.NotEmpty(t, recent.LogID)

	all, err := repo.ListLogs(ctx, "p1", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, recent.LogID, all[0].LogID)
	assert.Equal(t, []string{"sleep"}, all[0].Tags)

	week, err := repo.ListLogs(ctx, "p1", base.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, week, 1)
	assert.Equal(t, "anxious", week[0].Mood)

	mood := "happy"
	updated, err := repo.UpdateLog(ctx, "p1", recent.LogID, LogPatch{Mood: &mood})
	require.NoError(t, err)
	assert.Equal(t, "happy", updated.Mood)
	assert.Equal(t, "restless", updated.Notes)

	_, err = repo.UpdateLog(ctx, "p1", "nope", LogPatch{Mood: &mood})
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	_, err = repo.UpdateLog(ctx, "p2", recent.LogID, LogPatch{})
	assert.True(t, shared.IsKind(err, shared.KindNotFound))

	require.NoError(t, repo.DeleteLog(ctx, "p1", old.LogID))
	assert.True(t, errors.Is(repo.DeleteLog(ctx, "p1", old.LogID), shared.ErrNotFound))
}

func TestRoutinesOrdering(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	for _, r := range []*domain.Routine{
		{PatientID: "p1", Title: "Walk", Time: "17:00", Active: true},
		{PatientID: "p1", Title: "Stretch", Active: true},
		{PatientID: "p1", Title: "Medication", Time: "08:00", Days: []string{"mon", "wed"}, Active: true},
		{PatientID: "p1", Title: "Breakfast", Time: "08:00", Active: true},
	} {
		require.NoError(t, repo.CreateRoutine(ctx, r))
	}

	list, err := repo.ListRoutines(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 4)
	titles := []string{list[0].Title, list[1].Title, list[2].Title, list[3].Title}
	assert.Equal(t, []string{"Breakfast", "Medication", "Walk", "Stretch"}, titles)
	assert.Equal(t, []string{"mon", "wed"}, list[1].Days)

	inactive := false
	updated, err := repo.UpdateRoutine(ctx, "p1", list[0].RoutineID, RoutinePatch{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "Breakfast", updated.Title)

	_, err = repo.UpdateRoutine(ctx, "p1", "missing", RoutinePatch{Active: &inactive})
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	require.NoError(t, repo.DeleteRoutine(ctx, "p1", list[3].RoutineID))
	assert.True(t, errors.Is(repo.DeleteRoutine(ctx, "p1", list[3].RoutineID), shared.ErrNotFound))
}

func TestFeedPosts(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1700000000000)

	require.NoError(t, repo.CreatePost(ctx, &domain.FeedPost{PatientID: "p1", AuthorID: "c1", Type: domain.PostNote, Content: "ate lunch", CreatedAt: base}))
	require.NoError(t, repo.CreatePost(ctx, &domain.FeedPost{PatientID: "p1", AuthorID: "c2", Type: domain.PostAlert, Content: "fell", CreatedAt: base.Add(time.Minute)}))

	all, err := repo.ListPosts(ctx, "p1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.PostAlert, all[0].Type)

	alerts, err := repo.ListPosts(ctx, "p1", domain.PostAlert)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "fell", alerts[0].Content)
}

func TestAuditRecords(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.RecordNotification(ctx, &domain.NotificationRecord{Kind: domain.KindSMS, Recipient: "+1555", Success: true, ProviderID: "SM1"}))
	require.NoError(t, repo.RecordNotification(ctx, &domain.NotificationRecord{Kind: domain.KindPush, Skipped: true}))

	now := time.UnixMilli(1700000000000)
	require.NoError(t, repo.RecordReport(ctx, &domain.ReportRecord{
		PatientID:   "p1",
		StorageKey:  domain.ReportKey("p1", now, "aaaa"),
		EntryCount:  3,
		SMSStatus:   domain.SMSStatusSent,
		URLExpires:  now.Add(time.Hour),
		GeneratedAt: now,
	}))
	require.NoError(t, repo.RecordReport(ctx, &domain.ReportRecord{
		PatientID:   "p1",
		StorageKey:  domain.ReportKey("p1", now.Add(time.Hour), "bbbb"),
		URLExpires:  now.Add(2 * time.Hour),
		GeneratedAt: now.Add(time.Hour),
	}))

	reports, err := repo.ListReports(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "reports/p1/1700003600000-bbbb-weekly.pdf", reports[0].StorageKey)
	assert.Equal(t, domain.SMSStatusSent, reports[1].SMSStatus)
	assert.Equal(t, 3, reports[1].EntryCount)
}

func TestPing(t *testing.T) {
	repo := newTestStore(t)
	require.NoError(t, repo.Ping(context.Background()))
}

func TestIsConflictError(t *testing.T) {
	assert.False(t, isConflictError(nil))
	assert.True(t, isConflictError(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isConflictError(errors.New("no such table")))
}

func TestWithRetry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "test", func() error {
		calls++
		if calls < 2 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = withRetry(context.Background(), "test", func() error {
		calls++
		return errors.New("constraint failed")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
