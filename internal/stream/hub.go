// Package stream provides real-time data streaming and distribution functionality.
package stream

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
)

// Channel name prefixes.
const (
	PrefixTicker    = "ticker"
	PrefixCandles   = "candles"
	PrefixOrderBook = "orderbook"
	PrefixTrades    = "trades"

	// TickerAll receives every symbol's ticker updates.
	TickerAll = "ticker:all"
)

// TickerChannel returns the ticker channel for symbol.
func TickerChannel(symbol string) string { return PrefixTicker + ":" + symbol }

// CandlesChannel returns the candles channel for symbol.
func CandlesChannel(symbol string) string { return PrefixCandles + ":" + symbol }

// OrderBookChannel returns the order book channel for symbol.
func OrderBookChannel(symbol string) string { return PrefixOrderBook + ":" + symbol }

// TradesChannel returns the trade tape channel for symbol.
func TradesChannel(symbol string) string { return PrefixTrades + ":" + symbol }

// ParseChannel splits a channel name into its prefix and symbol.
func ParseChannel(channel string) (prefix, symbol string, ok bool) {
	prefix, symbol, ok = strings.Cut(channel, ":")
	if !ok || symbol == "" {
		return "", "", false
	}
	switch prefix {
	case PrefixTicker, PrefixCandles, PrefixOrderBook, PrefixTrades:
		return prefix, symbol, true
	}
	return "", "", false
}

// Callback receives a published payload. Payload types per channel:
// ticker models.Ticker, candles []models.Candle, orderbook models.OrderBook,
// trades []models.Trade.
type Callback func(payload any)

// subscriber represents one registered callback.
type subscriber struct {
	id  uint64
	key string
	fn  Callback
}

// Hub is a channel-keyed set of callbacks. Publish invokes every current
// subscriber of a channel exactly once, synchronously, on the publishing
// goroutine. A panicking callback is recovered and logged.
type Hub struct {
	logger zerolog.Logger

	mu          sync.RWMutex
	nextID      uint64
	subscribers map[string]map[uint64]*subscriber
	keys        map[string]map[string]uint64

	// Metrics
	published uint64
	delivered uint64
	panicked  uint64
	metricsMu sync.Mutex
}

// HubMetrics contains hub counters.
type HubMetrics struct {
	Published   uint64
	Delivered   uint64
	Panics      uint64
	Subscribers int
	Channels    int
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:      logger.With().Str("component", "hub").Logger(),
		subscribers: make(map[string]map[uint64]*subscriber),
		keys:        make(map[string]map[string]uint64),
	}
}

// Subscribe registers fn on channel. Every call creates a new subscription.
// The returned function removes it and is safe to call repeatedly.
func (h *Hub) Subscribe(channel string, fn Callback) (unsubscribe func()) {
	return h.SubscribeKey(channel, "", fn)
}

// SubscribeKey registers fn on channel under key. If key is already
// subscribed on channel the call is a no-op and the returned function
// removes the existing subscription. An empty key never deduplicates.
func (h *Hub) SubscribeKey(channel, key string, fn Callback) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if key != "" {
		if id, ok := h.keys[channel][key]; ok {
			return h.unsubscriber(channel, id)
		}
	}

	h.nextID++
	sub := &subscriber{id: h.nextID, key: key, fn: fn}

	subs, ok := h.subscribers[channel]
	if !ok {
		subs = make(map[uint64]*subscriber)
		h.subscribers[channel] = subs
	}
	subs[sub.id] = sub

	if key != "" {
		if h.keys[channel] == nil {
			h.keys[channel] = make(map[string]uint64)
		}
		h.keys[channel][key] = sub.id
	}

	return h.unsubscriber(channel, sub.id)
}

func (h *Hub) unsubscriber(channel string, id uint64) func() {
	var once sync.Once
	return func() {
		once.Do(func() { h.remove(channel, id) })
	}
}

// remove deletes one subscription and prunes the channel once empty.
func (h *Hub) remove(channel string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[channel]
	if !ok {
		return
	}
	sub, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	if sub.key != "" {
		delete(h.keys[channel], sub.key)
		if len(h.keys[channel]) == 0 {
			delete(h.keys, channel)
		}
	}
	if len(subs) == 0 {
		delete(h.subscribers, channel)
	}
}

// Publish delivers payload to a snapshot of the channel's subscribers.
// Subscribers added or removed by a callback take effect on the next publish.
func (h *Hub) Publish(channel string, payload any) {
	h.mu.RLock()
	subs := h.subscribers[channel]
	snapshot := make([]*subscriber, 0, len(subs))
	for _, sub := range subs {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	var delivered, panicked uint64
	for _, sub := range snapshot {
		var pc panics.Catcher
		pc.Try(func() { sub.fn(payload) })
		if r := pc.Recovered(); r != nil {
			panicked++
			h.logger.Error().
				Str("channel", channel).
				Err(r.AsError()).
				Msg("Recovered panic in subscriber")
			continue
		}
		delivered++
	}

	h.metricsMu.Lock()
	h.published++
	h.delivered += delivered
	h.panicked += panicked
	h.metricsMu.Unlock()
}

// Clear drops every subscription.
func (h *Hub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers = make(map[string]map[uint64]*subscriber)
	h.keys = make(map[string]map[string]uint64)
}

// SubscriberCount returns the number of subscribers on channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}

// TotalSubscriberCount returns the number of subscribers across all channels.
func (h *Hub) TotalSubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, subs := range h.subscribers {
		count += len(subs)
	}
	return count
}

// Channels returns all channels with subscribers, sorted.
func (h *Hub) Channels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	channels := make([]string, 0, len(h.subscribers))
	for ch := range h.subscribers {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return channels
}

// Metrics returns hub metrics.
func (h *Hub) Metrics() HubMetrics {
	h.metricsMu.Lock()
	m := HubMetrics{
		Published: h.published,
		Delivered: h.delivered,
		Panics:    h.panicked,
	}
	h.metricsMu.Unlock()

	m.Subscribers = h.TotalSubscriberCount()
	m.Channels = len(h.Channels())
	return m
}
