package notify

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/resilience"
)

// WebhookNotifier sends notifications via HTTP webhook.
type WebhookNotifier struct {
	url     string
	client  *resty.Client
	breaker *resilience.CircuitBreaker
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "marketsim/1.0")

	return &WebhookNotifier{
		url:     url,
		client:  client,
		breaker: resilience.NewCircuitBreaker("webhook", resilience.DefaultCircuitBreakerConfig(), nil),
	}
}

// Name returns the name of the notifier.
func (w *WebhookNotifier) Name() string {
	return "webhook"
}

// IsEnabled returns whether the notifier is enabled.
func (w *WebhookNotifier) IsEnabled() bool {
	return w.url != ""
}

// Breaker returns the circuit breaker guarding the endpoint.
func (w *WebhookNotifier) Breaker() *resilience.CircuitBreaker {
	return w.breaker
}

// Send posts the notification as JSON. After repeated failures the endpoint
// is skipped until the breaker lets a trial request through.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	return w.breaker.Execute(func() error { return w.post(ctx, n) })
}

func (w *WebhookNotifier) post(ctx context.Context, n Notification) error {
	payload := map[string]interface{}{
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}

// Close releases the client's idle connections.
func (w *WebhookNotifier) Close() error {
	return w.client.Close()
}
