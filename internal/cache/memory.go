package cache

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Memory is an in-process Cache with the same expiry semantics as Redis.
type Memory struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	tickers map[string]entry[models.Ticker]
	books   map[string]entry[models.OrderBook]
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty cache. Entries expire ttl after they are set.
func NewMemory(clk clock.Clock, ttl time.Duration) *Memory {
	if clk == nil {
		clk = clock.New()
	}
	return &Memory{
		clock:   clk,
		ttl:     ttl,
		tickers: make(map[string]entry[models.Ticker]),
		books:   make(map[string]entry[models.OrderBook]),
	}
}

func (c *Memory) SetTicker(ctx context.Context, t models.Ticker) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickers[t.Symbol] = entry[models.Ticker]{value: t, storedAt: c.clock.Now()}
	return nil
}

func (c *Memory) GetTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.tickers[symbol]
	if !ok {
		return nil, nil
	}
	if expired(e.storedAt, c.clock.Now(), c.ttl) {
		delete(c.tickers, symbol)
		return nil, nil
	}
	t := e.value
	return &t, nil
}

func (c *Memory) SetOrderBook(ctx context.Context, ob models.OrderBook) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.books[ob.Symbol] = entry[models.OrderBook]{value: cloneBook(ob), storedAt: c.clock.Now()}
	return nil
}

func (c *Memory) GetOrderBook(ctx context.Context, symbol string) (*models.OrderBook, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.books[symbol]
	if !ok {
		return nil, nil
	}
	if expired(e.storedAt, c.clock.Now(), c.ttl) {
		delete(c.books, symbol)
		return nil, nil
	}
	ob := cloneBook(e.value)
	return &ob, nil
}

func (c *Memory) Invalidate(ctx context.Context, symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tickers, symbol)
	delete(c.books, symbol)
	return nil
}

func (c *Memory) Close() error { return nil }

func cloneBook(ob models.OrderBook) models.OrderBook {
	ob.Bids = append([]models.OrderBookLevel(nil), ob.Bids...)
	ob.Asks = append([]models.OrderBookLevel(nil), ob.Asks...)
	return ob
}
