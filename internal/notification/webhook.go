package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonathan/profiler/internal/types"
)

// DefaultWebhookTimeout bounds a single webhook delivery
const DefaultWebhookTimeout = 10 * time.Second

// Pusher delivers a stored notification to an external channel
type Pusher interface {
	Push(ctx context.Context, n *types.Notification) error
}

// WebhookError is a failed webhook delivery
type WebhookError struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *WebhookError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("webhook %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook %s: %s (status %d)", e.URL, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("webhook %s: %s", e.URL, e.Message)
}

func (e *WebhookError) Unwrap() error {
	return e.Cause
}

// webhookPayload is the JSON body posted to the webhook
type webhookPayload struct {
	Event        string              `json:"event"`
	Notification *types.Notification `json:"notification"`
	SentAt       time.Time           `json:"sent_at"`
}

// WebhookPusher POSTs notifications as JSON to a fixed URL
type WebhookPusher struct {
	url    string
	client *http.Client
}

// NewWebhookPusher creates a pusher; a non-positive timeout uses DefaultWebhookTimeout
func NewWebhookPusher(url string, timeout time.Duration) *WebhookPusher {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	return &WebhookPusher{url: url, client: &http.Client{Timeout: timeout}}
}

// Push implements Pusher. Any non-2xx response is an error.
func (p *WebhookPusher) Push(ctx context.Context, n *types.Notification) error {
	body, err := json.Marshal(webhookPayload{
		Event:        "notification." + n.Type,
		Notification: n,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		return &WebhookError{URL: p.url, Message: "failed to encode payload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return &WebhookError{URL: p.url, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "profiler-webhook/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return &WebhookError{URL: p.url, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &WebhookError{URL: p.url, StatusCode: resp.StatusCode, Message: "unexpected response"}
	}
	return nil
}
