package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Sender delivers a push notification to a user's devices.
type Sender interface {
	Send(ctx context.Context, userID, title, body string) error
	ProviderID() string
}

// WebhookSender forwards pushes to the delivery gateway that holds the
// device tokens.
type WebhookSender struct {
	url   string
	token string
	http  *http.Client
}

func NewWebhookSender(url, token string) *WebhookSender {
	return &WebhookSender{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *WebhookSender) ProviderID() string { return "push-webhook" }

func (s *WebhookSender) Send(ctx context.Context, userID, title, body string) error {
	if s.url == "" {
		return errors.New("push webhook url not configured")
	}
	raw, err := json.Marshal(map[string]string{
		"user_id": userID,
		"title":   title,
		"body":    body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("push webhook returned non-2xx")
	}
	return nil
}

// LogSender is the dev fallback: the notification row still lands in
// storage, the push itself only hits the log.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) ProviderID() string { return "push-log" }

func (s *LogSender) Send(_ context.Context, userID, title, body string) error {
	s.logger.Info("push notification", "user_id", userID, "title", title, "body", body)
	return nil
}
