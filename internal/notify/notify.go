// Package notify delivers engine events to notification sinks.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/config"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/events"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/pkg/utils"
)

// NotificationChannel defines the interface for a notification channel.
type NotificationChannel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type    NotificationType
	Title   string
	Message string
	// Channel restricts delivery to the sink of that name. Empty means all sinks.
	Channel   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTrade    NotificationType = "trade"
	NotificationWorkflow NotificationType = "workflow"
	NotificationError    NotificationType = "error"
	NotificationInfo     NotificationType = "info"
)

// NotificationLevel represents the notification level filter.
type NotificationLevel string

const (
	LevelAll        NotificationLevel = "all"
	LevelTradesOnly NotificationLevel = "trades_only"
	LevelErrorsOnly NotificationLevel = "errors_only"
)

const defaultQueueSize = 256

// MultiNotifier sends notifications to multiple channels. Bus handlers only
// enqueue; a worker started with Start performs the sends.
type MultiNotifier struct {
	channels []NotificationChannel
	level    NotificationLevel
	logger   zerolog.Logger
	timeout  time.Duration
	mu       sync.RWMutex

	queue   chan Notification
	wg      conc.WaitGroup
	dropped uint64
	unsubs  []func()
}

// NewMultiNotifier creates a notifier with a log sink and, when a URL is
// configured, a webhook sink.
func NewMultiNotifier(cfg config.NotifyConfig, logger zerolog.Logger) *MultiNotifier {
	mn := &MultiNotifier{
		channels: make([]NotificationChannel, 0),
		level:    NotificationLevel(cfg.Level),
		logger:   logger.With().Str("component", "notify").Logger(),
		timeout:  cfg.Timeout,
		queue:    make(chan Notification, defaultQueueSize),
	}

	if mn.level == "" {
		mn.level = LevelAll
	}
	if mn.timeout <= 0 {
		mn.timeout = 5 * time.Second
	}

	mn.channels = append(mn.channels, NewLogNotifier(logger))
	if cfg.WebhookURL != "" {
		mn.channels = append(mn.channels, NewWebhookNotifier(cfg.WebhookURL, mn.timeout))
	}

	return mn
}

// AddChannel adds a notification channel.
func (mn *MultiNotifier) AddChannel(ch NotificationChannel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// Channels returns the names of the registered channels.
func (mn *MultiNotifier) Channels() []string {
	mn.mu.RLock()
	defer mn.mu.RUnlock()
	names := make([]string, 0, len(mn.channels))
	for _, ch := range mn.channels {
		names = append(names, ch.Name())
	}
	return names
}

// shouldSend checks if a notification should be sent based on the level filter.
func (mn *MultiNotifier) shouldSend(notifType NotificationType) bool {
	switch mn.level {
	case LevelTradesOnly:
		return notifType == NotificationTrade
	case LevelErrorsOnly:
		return notifType == NotificationError
	default:
		return true
	}
}

// Send delivers n to every enabled channel it targets and combines their errors.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if !mn.shouldSend(n.Type) {
		return nil
	}

	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs error
	matched := false
	for _, ch := range channels {
		if !ch.IsEnabled() || (n.Channel != "" && n.Channel != ch.Name()) {
			continue
		}
		matched = true
		if err := ch.Send(ctx, n); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	if !matched {
		mn.logger.Debug().Str("channel", n.Channel).Str("title", n.Title).Msg("No sink for notification")
	}
	return errs
}

// Enqueue hands n to the worker. When the queue is full the oldest queued
// notification is dropped.
func (mn *MultiNotifier) Enqueue(n Notification) {
	select {
	case mn.queue <- n:
		return
	default:
	}

	select {
	case <-mn.queue:
		mn.mu.Lock()
		mn.dropped++
		mn.mu.Unlock()
	default:
	}
	select {
	case mn.queue <- n:
	default:
	}
}

// Dropped returns how many queued notifications were discarded.
func (mn *MultiNotifier) Dropped() uint64 {
	mn.mu.RLock()
	defer mn.mu.RUnlock()
	return mn.dropped
}

// Start runs the delivery worker until ctx is done.
func (mn *MultiNotifier) Start(ctx context.Context) {
	mn.wg.Go(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-mn.queue:
				sctx, cancel := context.WithTimeout(ctx, mn.timeout)
				if err := mn.Send(sctx, n); err != nil {
					mn.logger.Warn().Err(err).Str("title", n.Title).Msg("Notification delivery failed")
				}
				cancel()
			}
		}
	})
}

// Wait blocks until the worker has exited.
func (mn *MultiNotifier) Wait() {
	mn.wg.Wait()
}

// Attach subscribes the notifier to the bus events that produce notifications.
func (mn *MultiNotifier) Attach(bus *events.Bus) {
	unsubs := []func(){
		events.Subscribe(bus, func(e events.Notification) { mn.Enqueue(FromWorkflow(e)) }),
		events.Subscribe(bus, func(e events.OrderFilled) { mn.Enqueue(FromFill(e.Order)) }),
		events.Subscribe(bus, func(e events.OrderRejected) { mn.Enqueue(FromRejection(e.Order, e.Reason)) }),
		events.Subscribe(bus, func(e events.WorkflowFailed) { mn.Enqueue(FromWorkflowFailure(e.Execution, e.Error)) }),
	}
	mn.mu.Lock()
	mn.unsubs = append(mn.unsubs, unsubs...)
	mn.mu.Unlock()
}

// Detach removes every bus subscription made by Attach.
func (mn *MultiNotifier) Detach() {
	mn.mu.Lock()
	unsubs := mn.unsubs
	mn.unsubs = nil
	mn.mu.Unlock()
	for _, off := range unsubs {
		off()
	}
}

// FromWorkflow converts a send_notification action event.
func FromWorkflow(e events.Notification) Notification {
	return Notification{
		Type:    NotificationWorkflow,
		Title:   "Workflow " + e.WorkflowID,
		Message: e.Message,
		Channel: e.Channel,
		Data: map[string]interface{}{
			"workflow_id": e.WorkflowID,
			"action_id":   e.ActionID,
		},
		Timestamp: e.Timestamp,
	}
}

// FromFill describes a filled order.
func FromFill(o models.TradingOrder) Notification {
	return Notification{
		Type:  NotificationTrade,
		Title: fmt.Sprintf("Order Filled: %s %s", o.Side, o.Symbol),
		Message: fmt.Sprintf("%s %v %s @ %s (commission %s)",
			o.Side, o.FillQuantity, o.Symbol, utils.FormatCurrency(o.FillPrice), utils.FormatCurrency(o.Commission)),
		Data: map[string]interface{}{
			"order_id":   o.ID,
			"symbol":     o.Symbol,
			"side":       o.Side,
			"quantity":   o.FillQuantity,
			"price":      o.FillPrice,
			"commission": o.Commission,
		},
		Timestamp: o.UpdatedAt,
	}
}

// FromRejection describes a rejected order.
func FromRejection(o models.TradingOrder, reason string) Notification {
	return Notification{
		Type:    NotificationError,
		Title:   fmt.Sprintf("Order Rejected: %s %s", o.Side, o.Symbol),
		Message: reason,
		Data: map[string]interface{}{
			"order_id": o.ID,
			"symbol":   o.Symbol,
			"reason":   reason,
		},
		Timestamp: o.UpdatedAt,
	}
}

// FromWorkflowFailure describes a failed execution.
func FromWorkflowFailure(exec models.WorkflowExecution, errMsg string) Notification {
	ts := exec.StartedAt
	if exec.EndedAt != nil {
		ts = *exec.EndedAt
	}
	return Notification{
		Type:    NotificationError,
		Title:   "Workflow Failed: " + exec.WorkflowID,
		Message: errMsg,
		Data: map[string]interface{}{
			"workflow_id":  exec.WorkflowID,
			"execution_id": exec.ID,
			"trigger_id":   exec.TriggerID,
		},
		Timestamp: ts,
	}
}
