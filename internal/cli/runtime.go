package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/automation"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/broker"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/cache"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/config"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/events"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/instruments"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/market"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/notify"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/scheduler"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/store"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
	"github.com/danielweickdag/kairo-quantum-sub006/pkg/utils"
)

// Runtime is the wired simulator: market, order engine, automation and the
// optional store, cache and notification sinks around them.
type Runtime struct {
	Config     *config.Config
	Registry   *instruments.Registry
	Scheduler  scheduler.Scheduler
	Hub        *stream.Hub
	Bus        *events.Bus
	Market     *market.Generator
	Broker     *broker.PaperBroker
	Automation *automation.Engine
	Store      *store.SQLiteStore // nil when disabled
	Cache      cache.Cache
	Mirror     *cache.Mirror
	Notifier   *notify.MultiNotifier

	logger zerolog.Logger
	loop   *scheduler.Loop // nil for a manual scheduler
	cancel context.CancelFunc
}

// newRegistry builds the instrument registry, restricted to the configured
// symbols when any are listed.
func newRegistry(cfg *config.Config, now time.Time) (*instruments.Registry, error) {
	reg := instruments.Default(now)
	if len(cfg.Market.Symbols) == 0 {
		return reg, nil
	}
	return reg.Restrict(cfg.Market.Symbols, now)
}

// newRand seeds from the config, or from the clock when the seed is 0.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// newMarket builds the registry and a seeded generator on sched.
func newMarket(cfg *config.Config, hub *stream.Hub, sched scheduler.Scheduler, rng *rand.Rand, logger zerolog.Logger) (*market.Generator, error) {
	reg, err := newRegistry(cfg, sched.Now())
	if err != nil {
		return nil, err
	}
	return market.New(market.ConfigFromSettings(cfg.Market), reg, hub, sched, rng, logger), nil
}

// openStore opens the SQLite audit store, creating its directory.
func openStore(path string) (*store.SQLiteStore, error) {
	if path != store.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	st, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

// NewRuntime wires every component on sched. A nil sched creates a real-time
// event loop that Start launches.
func NewRuntime(cfg *config.Config, sched scheduler.Scheduler, logger zerolog.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, logger: logger}

	if sched == nil {
		rt.loop = scheduler.NewLoop(clock.New(), logger)
		sched = rt.loop
	}
	rt.Scheduler = sched

	rng := newRand(cfg.Market.Seed)
	rt.Hub = stream.NewHub(logger)
	gen, err := newMarket(cfg, rt.Hub, sched, rng, logger)
	if err != nil {
		return nil, err
	}
	rt.Market = gen
	rt.Registry = gen.Registry()
	rt.Bus = events.NewBus(logger)

	var orderRecorder broker.Recorder
	var execRecorder automation.Recorder
	if cfg.Store.Enabled {
		st, err := openStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		rt.Store = st
		orderRecorder = st
		execRecorder = st
		logger.Debug().Str("path", cfg.Store.Path).Msg("SQLite store initialized")
	}

	rt.Broker = broker.NewPaperBroker(broker.PaperBrokerConfig{
		Settings:  broker.ConfigFromSettings(cfg.Orders),
		Registry:  rt.Registry,
		Market:    rt.Market,
		Hub:       rt.Hub,
		Scheduler: sched,
		Bus:       rt.Bus,
		Recorder:  orderRecorder,
		Rand:      rand.New(rand.NewSource(rng.Int63())),
		Logger:    logger,
	})

	rt.Automation = automation.NewEngine(automation.EngineConfig{
		Settings:  automation.ConfigFromSettings(cfg.Automation),
		Quotes:    rt.Market,
		Broker:    rt.Broker,
		Scheduler: sched,
		Bus:       rt.Bus,
		Recorder:  execRecorder,
		Logger:    logger,
	})
	workflows, err := automation.LoadWorkflows(cfg.Automation.WorkflowsFile)
	if err != nil {
		rt.closeStore()
		return nil, err
	}
	if err := rt.Automation.Load(workflows); err != nil {
		rt.closeStore()
		return nil, err
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		rt.closeStore()
		return nil, err
	}
	rt.Cache = pingCache(c, cfg.Cache, logger)
	rt.Mirror = cache.NewMirror(c, rt.Hub, time.Second, logger)

	// Disconnect clears the hub; both consumers resubscribe on reconnect.
	symbols := rt.Market.Symbols()
	rt.Market.OnConnect(rt.Broker.Reattach)
	rt.Market.OnConnect(func() { rt.Mirror.Attach(symbols) })

	rt.Notifier = notify.NewMultiNotifier(cfg.Notify, logger)

	return rt, nil
}

// Start connects the market and launches the loop, workers and automation.
func (rt *Runtime) Start(ctx context.Context) {
	ctx, rt.cancel = context.WithCancel(ctx)

	if rt.loop != nil {
		rt.loop.Start(ctx)
	}
	rt.Market.Connect()
	rt.Mirror.Start(ctx)

	rt.Notifier.Attach(rt.Bus)
	rt.Notifier.Start(ctx)

	if rt.Config.Automation.Enabled {
		rt.Automation.Start()
	}

	rt.logger.Info().
		Int("symbols", rt.Registry.Len()).
		Int("workflows", len(rt.Automation.All())).
		Bool("store", rt.Store != nil).
		Msg("Simulator started")
}

// Close stops every component in reverse start order and releases the
// cache and store.
func (rt *Runtime) Close() error {
	rt.Automation.Stop()
	rt.Market.Disconnect()
	if rt.loop != nil {
		rt.loop.Stop()
		rt.loop.Wait()
	}

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFlush()
	errs := rt.Mirror.Stop(flushCtx)

	rt.Notifier.Detach()
	if rt.cancel != nil {
		rt.cancel()
	}
	rt.Notifier.Wait()

	errs = multierr.Append(errs, rt.Cache.Close())
	if rt.Store != nil {
		errs = multierr.Append(errs, rt.Store.Close())
	}
	return errs
}

// pingCache checks a Redis cache with retries and falls back to the
// in-memory cache when the server stays unreachable.
func pingCache(c cache.Cache, cfg config.CacheConfig, logger zerolog.Logger) cache.Cache {
	rc, ok := c.(*cache.RedisCache)
	if !ok {
		return c
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := utils.Retry(ctx, utils.DefaultRetryConfig(), func() error { return rc.Ping(ctx) })
	if err == nil {
		return c
	}
	logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unreachable, using in-memory cache")
	rc.Close()
	return cache.NewMemory(clock.New(), cfg.TTL)
}

func (rt *Runtime) closeStore() {
	if rt.Store != nil {
		rt.Store.Close()
	}
}
