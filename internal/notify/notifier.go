// internal/notify/notifier.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"propay-cashout/internal/config"
)

// Notification is the payload handed to the notification dispatcher, which
// independently attempts push delivery and falls back to email.
type Notification struct {
	UserID   string            `json:"user_id"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Priority string            `json:"priority"`
}

// Dispatcher delivers notifications out of band. The ledger never depends on
// its success; errors are logged and dropped by callers.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// NewDispatcher selects the dispatcher implementation from configuration.
// Without a URL, notifications are silently discarded.
func NewDispatcher(cfg config.NotifierConfig, logger *slog.Logger) Dispatcher {
	if cfg.URL == "" {
		logger.Warn("Notification dispatcher URL not configured, notifications disabled")
		return NoopDispatcher{}
	}
	return &HTTPDispatcher{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// NoopDispatcher discards all notifications.
type NoopDispatcher struct{}

// Dispatch does nothing.
func (NoopDispatcher) Dispatch(ctx context.Context, n Notification) error {
	return nil
}

// HTTPDispatcher posts notifications to the dispatcher service.
type HTTPDispatcher struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// Dispatch posts the notification. A non-2xx response is an error for the
// caller to log, not to act on.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification dispatch failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification dispatcher returned status %d", resp.StatusCode)
	}
	return nil
}
