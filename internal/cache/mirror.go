package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
)

const mirrorKey = "cache-mirror"

// Mirror copies hub ticker and order book updates into a Cache. Hub
// callbacks only record the latest snapshot per symbol; a worker goroutine
// writes them out so a slow cache never stalls the tick loop.
type Mirror struct {
	cache   Cache
	hub     *stream.Hub
	logger  zerolog.Logger
	timeout time.Duration

	mu      sync.Mutex
	tickers map[string]models.Ticker
	books   map[string]models.OrderBook
	unsubs  []func()

	wake     chan struct{}
	done     chan struct{}
	wg       conc.WaitGroup
	started  bool
	stopOnce sync.Once
}

// NewMirror creates a mirror writing to c. Each cache write is bounded by timeout.
func NewMirror(c Cache, hub *stream.Hub, timeout time.Duration, logger zerolog.Logger) *Mirror {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Mirror{
		cache:   c,
		hub:     hub,
		logger:  logger.With().Str("component", "cache_mirror").Logger(),
		timeout: timeout,
		tickers: make(map[string]models.Ticker),
		books:   make(map[string]models.OrderBook),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Attach subscribes to the all-symbols ticker channel and to the order book
// channel of each symbol. Repeated calls do not duplicate subscriptions, and
// a stopped mirror stays detached.
func (m *Mirror) Attach(symbols []string) {
	select {
	case <-m.done:
		return
	default:
	}
	unsubs := []func(){m.hub.SubscribeKey(stream.TickerAll, mirrorKey, m.onTicker)}
	for _, sym := range symbols {
		unsubs = append(unsubs, m.hub.SubscribeKey(stream.OrderBookChannel(sym), mirrorKey, m.onBook))
	}

	m.mu.Lock()
	m.unsubs = unsubs
	m.mu.Unlock()
}

func (m *Mirror) onTicker(payload any) {
	t, ok := payload.(models.Ticker)
	if !ok {
		return
	}
	m.mu.Lock()
	m.tickers[t.Symbol] = t
	m.mu.Unlock()
	m.signal()
}

func (m *Mirror) onBook(payload any) {
	ob, ok := payload.(models.OrderBook)
	if !ok {
		return
	}
	m.mu.Lock()
	m.books[ob.Symbol] = ob
	m.mu.Unlock()
	m.signal()
}

func (m *Mirror) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Start launches the writer goroutine.
func (m *Mirror) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	m.wg.Go(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.done:
				return
			case <-m.wake:
				if err := m.Flush(ctx); err != nil {
					m.logger.Warn().Err(err).Msg("Cache write failed")
				}
			}
		}
	})
}

// Flush writes every pending snapshot and returns the combined write errors.
func (m *Mirror) Flush(ctx context.Context) error {
	m.mu.Lock()
	tickers := m.tickers
	books := m.books
	m.tickers = make(map[string]models.Ticker)
	m.books = make(map[string]models.OrderBook)
	m.mu.Unlock()

	var errs error
	for _, t := range tickers {
		wctx, cancel := context.WithTimeout(ctx, m.timeout)
		errs = multierr.Append(errs, m.cache.SetTicker(wctx, t))
		cancel()
	}
	for _, ob := range books {
		wctx, cancel := context.WithTimeout(ctx, m.timeout)
		errs = multierr.Append(errs, m.cache.SetOrderBook(wctx, ob))
		cancel()
	}
	return errs
}

// Stop unsubscribes, stops the writer and flushes what is left.
func (m *Mirror) Stop(ctx context.Context) error {
	m.mu.Lock()
	unsubs := m.unsubs
	m.unsubs = nil
	m.mu.Unlock()
	for _, off := range unsubs {
		off()
	}

	m.stopOnce.Do(func() { close(m.done) })
	m.wg.Wait()
	return m.Flush(ctx)
}
