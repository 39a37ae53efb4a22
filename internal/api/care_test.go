package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPatient(t *testing.T, env *testEnv, id, phone string) {
	t.Helper()
	rec := env.do(t, http.MethodPut, "/api/patients/"+id, "c1", map[string]string{
		"name": "Patient " + id, "contactPhone": phone,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPatients(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/patients/p1", "c1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/patients/p1", "c1", map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	seedPatient(t, env, "p1", "+15550001")

	rec = env.do(t, http.MethodGet, "/api/patients/p1", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[domain.Patient](t, rec)
	assert.Equal(t, "Patient p1", p.Name)
	assert.Equal(t, "+15550001", p.ContactPhone)

	rec = env.do(t, http.MethodGet, "/api/patients", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Patient](t, rec), 1)
}

func TestCaregiverProfile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/caregivers/me", "kim", map[string]string{
		"name": "Kim", "role": "Admin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/caregivers/me", "kim", map[string]string{
		"name": "Kim", "role": domain.RoleFamily, "deviceToken": "tok-kim", "phone": "+15550002",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/caregivers/me", "kim", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode[domain.Caregiver](t, rec)
	assert.Equal(t, domain.RoleFamily, c.Role)
	assert.Equal(t, "tok-kim", c.DeviceToken)
}

func TestTeam(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/patients/ghost/team", "c1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	seedPatient(t, env, "p1", "")
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/patients/p1/team", "c1", nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/patients/p1/team", "c2", nil).Code)

	rec = env.do(t, http.MethodGet, "/api/patients/p1/team", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Caregiver](t, rec), 2)
}

func TestLogsCRUD(t *testing.T) {
	env := newTestEnv(t)
	seedPatient(t, env, "p1", "")

	rec := env.do(t, http.MethodPost, "/api/patients/p1/logs", "c1", map[string]interface{}{"notes": "no mood"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/patients/p1/logs", "c1", map[string]interface{}{
		"mood": "anxious", "notes": "restless evening", "tags": []string{"sleep"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.BehaviorLog](t, rec)
	assert.Equal(t, "c1", created.AuthorID)
	assert.False(t, created.CreatedAt.IsZero())

	rec = env.do(t, http.MethodGet, "/api/patients/p1/logs", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.BehaviorLog](t, rec), 1)

	future := time.Now().Add(time.Hour).UnixMilli()
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/patients/p1/logs?since=%d", future), "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/patients/p1/logs?since=yesterday", "c1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/patients/p1/logs/"+created.LogID, "c1", map[string]string{"mood": "calm"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "calm", decode[domain.BehaviorLog](t, rec).Mood)

	rec = env.do(t, http.MethodPatch, "/api/patients/p1/logs/missing", "c1", map[string]string{"mood": "calm"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/patients/p1/logs/"+created.LogID, "c1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/patients/p1/logs/"+created.LogID, "c1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutinesCRUD(t *testing.T) {
	env := newTestEnv(t)
	seedPatient(t, env, "p1", "")

	rec := env.do(t, http.MethodPost, "/api/patients/p1/routines", "c1", map[string]string{"time": "08:00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/patients/p1/routines", "c1", map[string]string{"title": "Walk", "time": "25:00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/patients/p1/routines", "c1", map[string]interface{}{
		"title": "Walk", "time": "17:30", "days": []string{"mon", "fri"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	walk := decode[domain.Routine](t, rec)
	assert.True(t, walk.Active)

	rec = env.do(t, http.MethodPost, "/api/patients/p1/routines", "c1", map[string]string{"title": "Medication", "time": "08:00"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/patients/p1/routines", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]domain.Routine](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Medication", list[0].Title)

	rec = env.do(t, http.MethodPatch, "/api/patients/p1/routines/"+walk.RoutineID, "c1", map[string]interface{}{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[domain.Routine](t, rec).Active)

	rec = env.do(t, http.MethodDelete, "/api/patients/p1/routines/"+walk.RoutineID, "c1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodPatch, "/api/patients/p1/routines/"+walk.RoutineID, "c1", map[string]interface{}{"active": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAlertFansOutToTeam(t *testing.T) {
	env := newTestEnv(t)
	seedPatient(t, env, "p1", "")

	for id, profile := range map[string]map[string]string{
		"author": {"name": "Author", "role": domain.RoleCaregiver, "deviceToken": "tok-author"},
		"mom":    {"name": "Mom", "role": domain.RoleFamily, "deviceToken": "tok-mom", "phone": "+15550003"},
		"doc":    {"name": "Doc", "role": domain.RoleDoctor, "phone": "+15550004"},
	} {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/caregivers/me", id, profile).Code)
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/patients/p1/team", id, nil).Code)
	}

	rec := env.do(t, http.MethodPost, "/api/patients/p1/feed", "author", map[string]string{"type": "rant", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/patients/p1/feed", "author", map[string]string{
		"type": "alert", "content": "Wandered outside",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode[struct {
		Post          domain.FeedPost       `json:"post"`
		Notifications []notify.FanoutResult `json:"notifications"`
	}](t, rec)
	assert.Equal(t, "author", body.Post.AuthorID)
	assert.Len(t, body.Notifications, 3)
	assert.NotContains(t, env.push.tokens, "tok-author")
	assert.ElementsMatch(t, []string{"tok-mom"}, env.push.tokens)
	assert.ElementsMatch(t, []string{"+15550003", "+15550004"}, env.sms.to)

	// Non-alert posts do not notify.
	rec = env.do(t, http.MethodPost, "/api/patients/p1/feed", "mom", map[string]string{
		"type": "note", "content": "Ate a full lunch",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, decode[struct {
		Notifications []notify.FanoutResult `json:"notifications"`
	}](t, rec).Notifications)
	assert.Len(t, env.sms.to, 2)

	rec = env.do(t, http.MethodGet, "/api/patients/p1/feed?type=alert", "mom", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[[]domain.FeedPost](t, rec)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Wandered outside", alerts[0].Content)

	rec = env.do(t, http.MethodGet, "/api/patients/p1/feed?type=bogus", "mom", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoredReport(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/patients/ghost/report", "c1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	seedPatient(t, env, "p1", "+15550001")
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/patients/p1/logs", "c1", map[string]string{"mood": "happy"}).Code)

	rec = env.do(t, http.MethodPost, "/api/patients/p1/report", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, domain.SMSStatusSent, body["smsStatus"])
	assert.Equal(t, []string{"+15550001"}, env.sms.to)

	rec = env.do(t, http.MethodGet, "/api/patients/p1/reports", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reports := decode[[]domain.ReportRecord](t, rec)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].EntryCount)

	stored, err := env.repo.ListReports(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
