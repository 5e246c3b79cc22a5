// Package cache keeps the latest market snapshots outside the generator.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/config"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// Cache stores the latest ticker and order book per symbol. Getters return
// nil without error on a miss.
type Cache interface {
	SetTicker(ctx context.Context, t models.Ticker) error
	GetTicker(ctx context.Context, symbol string) (*models.Ticker, error)
	SetOrderBook(ctx context.Context, ob models.OrderBook) error
	GetOrderBook(ctx context.Context, symbol string) (*models.OrderBook, error)
	Invalidate(ctx context.Context, symbol string) error
	Close() error
}

func tickerKey(symbol string) string { return "ticker:" + symbol }
func bookKey(symbol string) string   { return "ob:" + symbol }

// New builds the cache selected by cfg.Driver.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(clock.New(), cfg.TTL), nil
	case "redis":
		return NewRedisCache(cfg.Addr, cfg.Password, cfg.DB, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", cfg.Driver)
	}
}

// expired reports whether an entry stored at storedAt has outlived ttl.
// A non-positive ttl never expires.
func expired(storedAt, now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(storedAt) >= ttl
}
