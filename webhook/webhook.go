// Package webhook notifies external endpoints about harvest job progress.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event types emitted by harvest jobs.
const (
	EventPage      = "harvest.page"
	EventCompleted = "harvest.completed"
	EventFailed    = "harvest.failed"
)

// Event is the payload posted to the subscriber endpoint.
type Event struct {
	Type      string      `json:"type"`
	JobID     string      `json:"job_id"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Notifier delivers signed events for one subscription. A zero URL disables
// delivery so callers can hold a Notifier unconditionally.
type Notifier struct {
	url    string
	secret string
	client *http.Client

	// retryDelays precede attempts 2..n. Overridable in tests.
	retryDelays []time.Duration
}

// NewNotifier builds a notifier for the given endpoint. secret may be empty,
// in which case payloads are unsigned.
func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		url:         url,
		secret:      secret,
		client:      &http.Client{Timeout: 10 * time.Second},
		retryDelays: []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Enabled reports whether a subscription endpoint is configured.
func (n *Notifier) Enabled() bool { return n != nil && n.url != "" }

// Send posts one event synchronously. The body is signed with HMAC-SHA256
// when a secret is configured: X-Harvest-Signature: sha256=<hex>.
func (n *Notifier) Send(ctx context.Context, event *Event) error {
	if !n.Enabled() {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Harvest-Webhook/1.0")
	if n.secret != "" {
		req.Header.Set("X-Harvest-Signature", "sha256="+Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// SendAsync posts an event in the background, retrying with the notifier's
// delay schedule. Exhausted retries are logged, never surfaced: webhook
// trouble must not affect the job that triggered it.
func (n *Notifier) SendAsync(event *Event) {
	if !n.Enabled() {
		return
	}
	go func() {
		for attempt := 0; ; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := n.Send(ctx, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"event", event.Type, "job_id", event.JobID, "attempt", attempt+1)
				return
			}
			slog.Warn("webhook delivery failed",
				"event", event.Type, "job_id", event.JobID, "attempt", attempt+1, "error", err)
			if attempt >= len(n.retryDelays) {
				break
			}
			time.Sleep(n.retryDelays[attempt])
		}
		slog.Error("webhook delivery exhausted all retries",
			"event", event.Type, "job_id", event.JobID)
	}()
}

// Sign computes the hex HMAC-SHA256 of body under secret. Exposed so
// subscribers can verify payloads with the same code.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, jobID string, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		JobID:     jobID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
}
