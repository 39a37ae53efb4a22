package channels

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/neurosync/internal/shared"
	"github.com/go-resty/resty/v2"
)

// TwilioConfig configures the Twilio Messages API transport.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
	Timeout    time.Duration
}

// Twilio sends SMS through the Twilio REST API using a fixed sender number.
type Twilio struct {
	client *resty.Client
	sid    string
	token  string
	from   string
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// NewTwilio creates a Twilio transport.
func NewTwilio(cfg TwilioConfig) *Twilio {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)

	return &Twilio{client: c, sid: cfg.AccountSID, token: cfg.AuthToken, from: cfg.FromNumber}
}

// SendSMS sends body to the phone number to.
func (t *Twilio) SendSMS(ctx context.Context, to, body string) shared.Result[string] {
	if t.sid == "" || t.token == "" || t.from == "" {
		return shared.Err[string](shared.KindProviderUnavailable, "twilio credentials not configured")
	}

	var out twilioMessage
	var apiErr twilioError
	resp, err := t.client.R().
		SetContext(ctx).
		SetBasicAuth(t.sid, t.token).
		SetFormData(map[string]string{
			"To":   to,
			"From": t.from,
			"Body": body,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", t.sid))
	if err != nil {
		return shared.ErrFrom[string](shared.KindProviderFailure, fmt.Errorf("twilio request: %w", err))
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = resp.String()
		}
		return shared.Err[string](shared.KindProviderFailure, fmt.Sprintf("twilio returned %d: %s", resp.StatusCode(), msg))
	}
	if out.SID == "" {
		return shared.Err[string](shared.KindProviderFailure, "twilio response missing message sid")
	}
	return shared.Ok(out.SID)
}
