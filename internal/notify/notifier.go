package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/blufield/blufmsgo/internal/config"
)

// Event is the payload POSTed to the configured webhook whenever a
// setup changes status. Consumers deduplicate on SetupID + Type; the
// setup service guarantees each transition fires at most once.
type Event struct {
	Type           string    `json:"type"` // setup_completed | setup_approved | setup_rejected
	SetupID        string    `json:"setup_id"`
	OrderID        string    `json:"order_id"`
	Status         string    `json:"status"`
	Region         string    `json:"region,omitempty"`
	RejectedReason string    `json:"rejected_reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Notifier delivers status events to an external webhook with a small
// retry cap and doubling backoff. Disabled when no URL is configured.
type Notifier struct {
	client   *resty.Client
	url      string
	secret   string
	attempts int
}

// New creates a notifier from webhook configuration
func New(cfg config.WebhookConfig) *Notifier {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return &Notifier{
		client:   resty.New().SetTimeout(10 * time.Second),
		url:      cfg.URL,
		secret:   cfg.Secret,
		attempts: attempts,
	}
}

// Enabled reports whether a webhook URL is configured
func (n *Notifier) Enabled() bool {
	return n.url != ""
}

// Send delivers one event, retrying transient failures with doubling
// backoff up to the configured attempt cap
func (n *Notifier) Send(ctx context.Context, event Event) error {
	if !n.Enabled() {
		return nil
	}

	backoff := 500 * time.Millisecond
	var lastErr error

	for attempt := 1; attempt <= n.attempts; attempt++ {
		req := n.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(event)
		if n.secret != "" {
			req.SetHeader("X-Webhook-Secret", n.secret)
		}

		resp, err := req.Post(n.url)
		if err == nil && !resp.IsError() {
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("webhook returned %s", resp.Status())
		}

		if attempt < n.attempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}

	return fmt.Errorf("webhook delivery failed after %d attempts: %w", n.attempts, lastErr)
}

// SendAsync fires Send on its own goroutine and logs failures. Status
// transitions never block or fail on webhook delivery.
func (n *Notifier) SendAsync(event Event) {
	if !n.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := n.Send(ctx, event); err != nil {
			log.Printf("⚠️ Webhook: %v", err)
		}
	}()
}
