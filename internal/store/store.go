// Package store provides data persistence implementations.
package store

import (
	"context"
	"time"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// AuditStore records resolved orders and workflow executions.
type AuditStore interface {
	// Orders
	SaveOrder(ctx context.Context, order *models.TradingOrder) error
	GetOrders(ctx context.Context, filter OrderFilter) ([]models.TradingOrder, error)
	GetOrder(ctx context.Context, id string) (*models.TradingOrder, error)

	// Executions
	SaveExecution(ctx context.Context, exec *models.WorkflowExecution) error
	GetExecutions(ctx context.Context, filter ExecutionFilter) ([]models.WorkflowExecution, error)

	// Summary
	GetOrderStats(ctx context.Context, filter OrderFilter) (*OrderStats, error)

	Close() error
}

// OrderFilter contains filter options for order queries.
type OrderFilter struct {
	AccountID string
	Symbol    string
	Status    models.OrderStatus
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// ExecutionFilter contains filter options for execution queries.
type ExecutionFilter struct {
	WorkflowID string
	Status     models.ExecutionStatus
	Limit      int
}

// OrderStats summarizes recorded orders.
type OrderStats struct {
	Total           int
	Filled          int
	Rejected        int
	Cancelled       int
	TotalCommission float64
	TotalNotional   float64
}
