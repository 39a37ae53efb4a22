// Package channels implements the outbound notification transports.
package channels

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/neurosync/internal/shared"
	"github.com/go-resty/resty/v2"
)

// FCMConfig configures the Firebase Cloud Messaging HTTP transport.
type FCMConfig struct {
	ServerKey string
	Endpoint  string
	Timeout   time.Duration
}

// FCM sends push notifications through the FCM HTTP API.
type FCM struct {
	client    *resty.Client
	endpoint  string
	serverKey string
}

type fcmNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmResponse struct {
	MulticastID int64 `json:"multicast_id"`
	Success     int   `json:"success"`
	Failure     int   `json:"failure"`
	Results     []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// NewFCM creates an FCM transport.
func NewFCM(cfg FCMConfig) *FCM {
	c := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &FCM{client: c, endpoint: cfg.Endpoint, serverKey: cfg.ServerKey}
}

// SendPush sends one notification to deviceToken.
func (f *FCM) SendPush(ctx context.Context, deviceToken, title, body string) shared.Result[string] {
	if f.serverKey == "" {
		return shared.Err[string](shared.KindProviderUnavailable, "fcm server key not configured")
	}

	msg := fcmMessage{
		To:           deviceToken,
		Notification: fcmNotification{Title: title, Body: body, Sound: "default"},
		Data:         map[string]string{"type": "general_alert"},
	}

	var out fcmResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "key="+f.serverKey).
		SetBody(msg).
		SetResult(&out).
		Post(f.endpoint)
	if err != nil {
		return shared.ErrFrom[string](shared.KindProviderFailure, fmt.Errorf("fcm request: %w", err))
	}
	if resp.IsError() {
		return shared.Err[string](shared.KindProviderFailure, fmt.Sprintf("fcm returned %d: %s", resp.StatusCode(), resp.String()))
	}
	if out.Failure > 0 || out.Success == 0 {
		reason := "unknown error"
		if len(out.Results) > 0 && out.Results[0].Error != "" {
			reason = out.Results[0].Error
		}
		return shared.Err[string](shared.KindProviderFailure, "fcm rejected message: "+reason)
	}

	if len(out.Results) > 0 && out.Results[0].MessageID != "" {
		return shared.Ok(out.Results[0].MessageID)
	}
	return shared.Ok(fmt.Sprintf("%d", out.MulticastID))
}
