package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePush struct {
	mu    sync.Mutex
	calls int
	token string
	title string
	fail  string
}

func (f *fakePush) SendPush(_ context.Context, token, title, _ string) shared.Result[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.token = token
	f.title = title
	if f.fail != "" {
		return shared.Err[string](shared.KindProviderFailure, f.fail)
	}
	return shared.Ok("push-msg-1")
}

type fakeSMS struct {
	mu    sync.Mutex
	calls int
	to    string
	body  string
	fail  string
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) shared.Result[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.to = to
	f.body = body
	if f.fail != "" {
		return shared.Err[string](shared.KindProviderFailure, f.fail)
	}
	return shared.Ok("SM123")
}

type fakeRecorder struct {
	records []*domain.NotificationRecord
	err     error
}

func (f *fakeRecorder) RecordNotification(_ context.Context, rec *domain.NotificationRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

func TestDispatchRoutesToExactlyOneTransport(t *testing.T) {
	cases := []struct {
		kind      domain.NotificationKind
		wantPush  int
		wantSMS   int
		wantProvi string
	}{
		{domain.KindPush, 1, 0, "push-msg-1"},
		{domain.KindSMS, 0, 1, "SM123"},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			push, sms := &fakePush{}, &fakeSMS{}
			d := NewDispatcher(push, sms)

			res, err := d.Dispatch(context.Background(), domain.NotificationRequest{
				Kind: tc.kind, Recipient: "+15551234567", Title: "t", Message: "Hi",
			})
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Equal(t, tc.wantProvi, res.ProviderID)
			assert.Equal(t, tc.wantPush, push.calls)
			assert.Equal(t, tc.wantSMS, sms.calls)
		})
	}
}

func TestDispatchSMSScenario(t *testing.T) {
	sms := &fakeSMS{}
	d := NewDispatcher(&fakePush{}, sms)

	res, err := d.Dispatch(context.Background(), domain.NotificationRequest{
		Kind: domain.KindSMS, Recipient: "+15551234567", Message: "Hi",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ProviderID)
	assert.Equal(t, "+15551234567", sms.to)
	assert.Equal(t, "Hi", sms.body)
}

func TestDispatchInvalidKind(t *testing.T) {
	for _, kind := range []domain.NotificationKind{"", "email", "PUSH"} {
		push, sms := &fakePush{}, &fakeSMS{}
		rec := &fakeRecorder{}
		d := NewDispatcher(push, sms, WithRecorder(rec))

		_, err := d.Dispatch(context.Background(), domain.NotificationRequest{
			Kind: kind, Recipient: "+15551234567", Message: "Hi",
		})
		require.Error(t, err, "kind %q", kind)
		assert.True(t, shared.IsKind(err, shared.KindInvalidRequest))
		assert.Zero(t, push.calls+sms.calls)
		assert.Empty(t, rec.records)
	}
}

func TestDispatchEmptyRecipientSkips(t *testing.T) {
	for _, kind := range []domain.NotificationKind{domain.KindPush, domain.KindSMS} {
		push, sms := &fakePush{}, &fakeSMS{}
		d := NewDispatcher(push, sms)

		res, err := d.Dispatch(context.Background(), domain.NotificationRequest{Kind: kind, Message: "Hi"})
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		assert.False(t, res.Success)
		assert.Zero(t, push.calls+sms.calls)
	}
}

func TestDispatchMissingMessage(t *testing.T) {
	sms := &fakeSMS{}
	d := NewDispatcher(nil, sms)

	_, err := d.Dispatch(context.Background(), domain.NotificationRequest{Kind: domain.KindSMS, Recipient: "+1555"})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindInvalidRequest))
	assert.Zero(t, sms.calls)
}

func TestDispatchCapturesProviderFailure(t *testing.T) {
	push := &fakePush{fail: "InvalidRegistration"}
	d := NewDispatcher(push, nil)

	res, err := d.Dispatch(context.Background(), domain.NotificationRequest{
		Kind: domain.KindPush, Recipient: "token", Message: "Hi",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "InvalidRegistration")
	assert.Equal(t, 1, push.calls)
}

func TestDispatchUnconfiguredTransport(t *testing.T) {
	d := NewDispatcher(nil, nil)

	res, err := d.Dispatch(context.Background(), domain.NotificationRequest{
		Kind: domain.KindSMS, Recipient: "+1555", Message: "Hi",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not configured")
	assert.False(t, d.SMSEnabled())
	assert.False(t, d.PushEnabled())
}

func TestDispatchRecorderFailureDoesNotChangeResult(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	d := NewDispatcher(nil, &fakeSMS{}, WithRecorder(rec))

	res, err := d.Dispatch(context.Background(), domain.NotificationRequest{
		Kind: domain.KindSMS, Recipient: "+1555", Message: "Hi",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, rec.records, 1)
	assert.Equal(t, "SM123", rec.records[0].ProviderID)
}

func TestFanoutContinuesPastFailures(t *testing.T) {
	push := &fakePush{fail: "NotRegistered"}
	sms := &fakeSMS{}
	d := NewDispatcher(push, sms)

	team := []*domain.Caregiver{
		{CaregiverID: "c1", DeviceToken: "tok-1", Phone: "+1001"},
		{CaregiverID: "c2", Phone: "+1002"},
		{CaregiverID: "c3"},
	}
	results := d.Fanout(context.Background(), team, "Alert", "Fall detected")

	require.Len(t, results, 3)
	assert.Equal(t, domain.KindPush, results[0].Kind)
	assert.False(t, results[0].Result.Success)
	assert.True(t, results[1].Result.Success)
	assert.Equal(t, "c2", results[2].CaregiverID)
	assert.True(t, results[2].Result.Success)
	assert.Equal(t, 1, push.calls)
	assert.Equal(t, 2, sms.calls)
}
