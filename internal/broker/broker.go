// Package broker simulates order execution against the generated market and
// keeps the resulting account and position ledgers.
package broker

import (
	"context"
	"time"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/config"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// Broker defines the order operations the rest of the system depends on.
type Broker interface {
	// Orders
	PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.TradingOrder, error)
	CancelOrder(ctx context.Context, orderID string) error
	Order(orderID string) (*models.TradingOrder, bool)
	Orders(accountID string) []*models.TradingOrder

	// Account
	Positions(accountID string) []models.Position
	Account(accountID string) (models.TradingAccount, bool)
}

// MarketData is the quote source orders are resolved against.
type MarketData interface {
	Ticker(symbol string) (models.Ticker, bool)
	OrderBook(symbol string) (models.OrderBook, bool)
}

// Recorder persists orders once they reach a terminal state.
type Recorder interface {
	SaveOrder(ctx context.Context, order *models.TradingOrder) error
}

// DefaultAccountID is used when a request names no account.
const DefaultAccountID = "default"

// Config holds paper broker settings.
type Config struct {
	MinLatency  time.Duration
	MaxLatency  time.Duration
	InitialCash float64
	AccountType models.AccountType
}

// DefaultConfig returns the default paper broker configuration.
func DefaultConfig() Config {
	return Config{
		MinLatency:  500 * time.Millisecond,
		MaxLatency:  2500 * time.Millisecond,
		InitialCash: 100000,
		AccountType: models.AccountMargin,
	}
}

// ConfigFromSettings maps the [orders] config section onto a broker config.
func ConfigFromSettings(o config.OrdersConfig) Config {
	return Config{
		MinLatency:  o.MinLatency,
		MaxLatency:  o.MaxLatency,
		InitialCash: o.InitialCash,
		AccountType: models.AccountType(o.AccountType),
	}
}
