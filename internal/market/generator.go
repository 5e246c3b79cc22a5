// Package market generates a continuously moving simulated market for every
// instrument in the registry and publishes it on the stream hub.
package market

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/config"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/derivatives"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/instruments"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/scheduler"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
)

// Config holds generator cadence and buffer sizes.
type Config struct {
	TickerInterval time.Duration
	CandleInterval time.Duration
	BookInterval   time.Duration
	TradeInterval  time.Duration
	CandleBucket   time.Duration
	CandleCap      int
	HistoryCandles int
	TapeCap        int
	InitialTrades  int
	BookDepth      int
	PublishCandles int
	PublishTrades  int
}

// DefaultConfig returns the default generator configuration.
func DefaultConfig() Config {
	return Config{
		TickerInterval: time.Second,
		CandleInterval: 5 * time.Second,
		BookInterval:   500 * time.Millisecond,
		TradeInterval:  2 * time.Second,
		CandleBucket:   time.Minute,
		CandleCap:      1000,
		HistoryCandles: 100,
		TapeCap:        100,
		InitialTrades:  50,
		BookDepth:      20,
		PublishCandles: 100,
		PublishTrades:  20,
	}
}

// ConfigFromSettings maps the [market] config section onto a generator config.
func ConfigFromSettings(m config.MarketConfig) Config {
	cfg := DefaultConfig()
	cfg.TickerInterval = m.TickerInterval
	cfg.CandleInterval = m.CandleInterval
	cfg.BookInterval = m.BookInterval
	cfg.TradeInterval = m.TradeInterval
	cfg.CandleBucket = m.CandleBucket
	cfg.CandleCap = m.CandleCap
	cfg.HistoryCandles = m.HistoryCandles
	cfg.TapeCap = m.TapeCap
	cfg.BookDepth = m.BookDepth
	if cfg.InitialTrades > cfg.TapeCap {
		cfg.InitialTrades = cfg.TapeCap
	}
	return cfg
}

// symbolState is the mutable market of one symbol. Only the generator writes
// it; getters copy out under the read lock.
type symbolState struct {
	mu       sync.RWMutex
	cfg      models.InstrumentConfig
	ticker   models.Ticker
	candles  []models.Candle
	book     models.OrderBook
	trades   []models.Trade
	tradeSeq uint64
}

// Generator owns per-symbol market state and advances it on scheduler timers.
type Generator struct {
	cfg      Config
	registry *instruments.Registry
	hub      *stream.Hub
	sched    scheduler.Scheduler
	logger   zerolog.Logger
	pricer   *derivatives.Pricer

	rngMu sync.Mutex
	rng   *rand.Rand

	// states is built once in New and never resized.
	states map[string]*symbolState

	mu        sync.Mutex
	connected bool
	cancels   []scheduler.Cancel
	onConnect []func()
}

// New creates a generator and seeds the market of every registry symbol.
func New(cfg Config, registry *instruments.Registry, hub *stream.Hub, sched scheduler.Scheduler, rng *rand.Rand, logger zerolog.Logger) *Generator {
	g := &Generator{
		cfg:      cfg,
		registry: registry,
		hub:      hub,
		sched:    sched,
		logger:   logger.With().Str("component", "market").Logger(),
		rng:      rng,
		pricer:   derivatives.NewPricer(rand.New(rand.NewSource(rng.Int63()))),
		states:   make(map[string]*symbolState, registry.Len()),
	}

	now := sched.Now()
	for _, sym := range registry.Symbols() {
		inst, _ := registry.Get(sym)
		g.states[sym] = g.seed(inst, now)
	}

	g.logger.Info().Int("symbols", len(g.states)).Msg("Market initialized")
	return g
}

// OnConnect registers fn to run after every Connect that starts the timers.
// Consumers use it to resubscribe after Disconnect cleared the hub.
func (g *Generator) OnConnect(fn func()) {
	g.mu.Lock()
	g.onConnect = append(g.onConnect, fn)
	g.mu.Unlock()
}

// Connect starts the four tick timers of every symbol. It is idempotent.
func (g *Generator) Connect() {
	g.mu.Lock()
	if g.connected {
		g.mu.Unlock()
		return
	}

	for _, sym := range g.registry.Symbols() {
		st := g.states[sym]
		g.cancels = append(g.cancels,
			g.sched.Every(stream.TickerChannel(sym), g.cfg.TickerInterval, func() { g.tickTicker(st) }),
			g.sched.Every(stream.CandlesChannel(sym), g.cfg.CandleInterval, func() { g.tickCandles(st) }),
			g.sched.Every(stream.OrderBookChannel(sym), g.cfg.BookInterval, func() { g.tickBook(st) }),
			g.sched.Every(stream.TradesChannel(sym), g.cfg.TradeInterval, func() { g.tickTrades(st) }),
		)
	}
	g.connected = true
	timers := len(g.cancels)
	hooks := append([]func(){}, g.onConnect...)
	g.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	g.logger.Info().Int("timers", timers).Int("hooks", len(hooks)).Msg("Market connected")
}

// Disconnect cancels every timer and clears all hub subscriptions. It is
// idempotent. Market state is kept, so a later Connect resumes from it.
func (g *Generator) Disconnect() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connected {
		return
	}

	for _, cancel := range g.cancels {
		cancel()
	}
	g.cancels = nil
	g.hub.Clear()
	g.connected = false

	g.logger.Info().Msg("Market disconnected")
}

// IsConnected reports whether the tick timers are running.
func (g *Generator) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

// Config returns the generator configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// uniform returns a value in [lo, hi).
func (g *Generator) uniform(lo, hi float64) float64 {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) coin() bool {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return g.rng.Intn(2) == 0
}
