// Package events defines the typed engine events and the bus that carries them.
package events

import (
	"time"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// Kind names an event variant.
type Kind string

const (
	KindOrderPlaced      Kind = "order_placed"
	KindOrderFilled      Kind = "order_filled"
	KindOrderRejected    Kind = "order_rejected"
	KindOrderCancelled   Kind = "order_cancelled"
	KindWorkflowExecuted Kind = "workflow_executed"
	KindWorkflowFailed   Kind = "workflow_failed"
	KindNotification     Kind = "notification"
)

// Event is implemented only by the variants in this package.
type Event interface {
	Kind() Kind
	isEvent()
}

// OrderPlaced is emitted when an order is accepted as pending.
type OrderPlaced struct {
	Order models.TradingOrder
}

func (OrderPlaced) Kind() Kind { return KindOrderPlaced }
func (OrderPlaced) isEvent() {}

// OrderFilled is emitted when an order fills.
type OrderFilled struct {
	Order models.TradingOrder
}

func (OrderFilled) Kind() Kind { return KindOrderFilled }
func (OrderFilled) isEvent() {}

// OrderRejected is emitted when resolution rejects an order.
type OrderRejected struct {
	Order  models.TradingOrder
	Reason string
}

func (OrderRejected) Kind() Kind { return KindOrderRejected }
func (OrderRejected) isEvent() {}

// OrderCancelled is emitted on explicit cancellation, expiry or an
// unfilled immediate-or-cancel attempt.
type OrderCancelled struct {
	Order  models.TradingOrder
	Reason string
}

func (OrderCancelled) Kind() Kind { return KindOrderCancelled }
func (OrderCancelled) isEvent() {}

// WorkflowExecuted is emitted when an execution completes.
type WorkflowExecuted struct {
	Execution models.WorkflowExecution
}

func (WorkflowExecuted) Kind() Kind { return KindWorkflowExecuted }
func (WorkflowExecuted) isEvent() {}

// WorkflowFailed is emitted when an execution fails.
type WorkflowFailed struct {
	Execution models.WorkflowExecution
	Error     string
}

func (WorkflowFailed) Kind() Kind { return KindWorkflowFailed }
func (WorkflowFailed) isEvent() {}

// Notification is emitted by send_notification actions.
type Notification struct {
	WorkflowID string
	ActionID   string
	Channel    string
	Message    string
	Timestamp  time.Time
}

func (Notification) Kind() Kind { return KindNotification }
func (Notification) isEvent() {}
