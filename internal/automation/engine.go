// Package automation runs user-defined workflows: it polls their triggers
// against the simulated market and portfolio and executes their actions.
package automation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/broker"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/config"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/events"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/logging"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/scheduler"
)

// Recorder persists finished executions.
type Recorder interface {
	SaveExecution(ctx context.Context, exec *models.WorkflowExecution) error
}

// Config holds engine settings.
type Config struct {
	PollInterval     time.Duration
	ActionsPerSecond int // 0 = unlimited
	HistoryLimit     int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:     5 * time.Second,
		ActionsPerSecond: 10,
		HistoryLimit:     1000,
	}
}

// ConfigFromSettings maps the [automation] config section onto an engine config.
func ConfigFromSettings(a config.AutomationConfig) Config {
	return Config{
		PollInterval:     a.PollInterval,
		ActionsPerSecond: a.ActionsPerSecond,
		HistoryLimit:     a.HistoryLimit,
	}
}

// EngineConfig holds the dependencies of an engine.
type EngineConfig struct {
	Settings  Config
	Quotes    Quotes
	Broker    broker.Broker
	Scheduler scheduler.Scheduler
	Bus       *events.Bus
	Recorder  Recorder          // optional
	Limiter   ratelimit.Limiter // optional; built from Settings when nil
	Logger    zerolog.Logger
}

// Engine owns the workflow set and its execution history.
type Engine struct {
	cfg      Config
	quotes   Quotes
	broker   broker.Broker
	sched    scheduler.Scheduler
	bus      *events.Bus
	recorder Recorder
	limiter  ratelimit.Limiter
	logger   zerolog.Logger

	mu          sync.RWMutex
	workflows   map[string]*models.AutomationWorkflow
	order       []string
	executions  []models.WorkflowExecution
	unsupported map[string]struct{}
	cancel      scheduler.Cancel
}

// NewEngine creates an engine with no workflows.
func NewEngine(cfg EngineConfig) *Engine {
	limiter := cfg.Limiter
	if limiter == nil {
		if cfg.Settings.ActionsPerSecond > 0 {
			var opts []ratelimit.Option
			// Pace in scheduler time so logical runs never sleep on the wall clock.
			if clk, ok := cfg.Scheduler.(ratelimit.Clock); ok {
				opts = append(opts, ratelimit.WithClock(clk))
			}
			limiter = ratelimit.New(cfg.Settings.ActionsPerSecond, opts...)
		} else {
			limiter = ratelimit.NewUnlimited()
		}
	}

	return &Engine{
		cfg:         cfg.Settings,
		quotes:      cfg.Quotes,
		broker:      cfg.Broker,
		sched:       cfg.Scheduler,
		bus:         cfg.Bus,
		recorder:    cfg.Recorder,
		limiter:     limiter,
		logger:      logging.WithComponent(cfg.Logger, "automation"),
		workflows:   make(map[string]*models.AutomationWorkflow),
		unsupported: make(map[string]struct{}),
	}
}

// Start begins polling triggers. It is idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		return
	}
	e.cancel = e.sched.Every("automation", e.cfg.PollInterval, func() {
		e.Poll(context.Background())
	})
	e.logger.Info().Dur("interval", e.cfg.PollInterval).Msg("Automation started")
}

// Stop ends polling. It is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel == nil {
		return
	}
	e.cancel()
	e.cancel = nil
	e.logger.Info().Msg("Automation stopped")
}

// IsRunning reports whether the poll timer is active.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cancel != nil
}

// Poll evaluates every active trigger of every active workflow once and
// executes the workflows whose triggers fired.
func (e *Engine) Poll(ctx context.Context) {
	for _, wf := range e.Active() {
		for _, trigger := range wf.Triggers {
			if !trigger.Active {
				continue
			}
			switch Evaluate(trigger, e.quotes, e.broker) {
			case Fired:
				e.Execute(ctx, wf.ID, trigger.ID)
			case Unsupported:
				e.noteUnsupported(wf.ID, trigger)
			}
		}
	}
}

// noteUnsupported logs an unsupported trigger the first time it is seen.
func (e *Engine) noteUnsupported(workflowID string, trigger models.WorkflowTrigger) {
	e.mu.Lock()
	_, seen := e.unsupported[trigger.ID]
	e.unsupported[trigger.ID] = struct{}{}
	e.mu.Unlock()

	if !seen {
		l := logging.WithWorkflow(e.logger, workflowID)
		l.Warn().
			Str("trigger_id", trigger.ID).
			Str("kind", string(trigger.Kind)).
			Msg("Trigger kind is not supported and will never fire")
	}
}
