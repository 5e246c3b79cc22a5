package broker

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/errors"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/events"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/instruments"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/logging"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/scheduler"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
)

const subscriberKey = "paper-broker"

// PaperBroker implements the Broker interface for paper trading simulation.
// Orders resolve after a simulated latency against the live book, and
// unfilled limit, stop and trailing orders stand until a later ticker
// crosses them.
type PaperBroker struct {
	cfg      Config
	registry *instruments.Registry
	market   MarketData
	hub      *stream.Hub
	sched    scheduler.Scheduler
	bus      *events.Bus
	recorder Recorder
	logger   zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	mu       sync.RWMutex
	orders   map[string]*models.TradingOrder
	sequence []string
	standing map[string][]*standingOrder // by symbol
	accounts map[string]*models.TradingAccount
}

// PaperBrokerConfig holds the dependencies of a paper broker.
type PaperBrokerConfig struct {
	Settings  Config
	Registry  *instruments.Registry
	Market    MarketData
	Hub       *stream.Hub
	Scheduler scheduler.Scheduler
	Bus       *events.Bus
	Recorder  Recorder // optional
	Rand      *rand.Rand
	Logger    zerolog.Logger
}

// NewPaperBroker creates a new paper trading broker.
func NewPaperBroker(cfg PaperBrokerConfig) *PaperBroker {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Settings.MaxLatency < cfg.Settings.MinLatency {
		cfg.Settings.MaxLatency = cfg.Settings.MinLatency
	}

	p := &PaperBroker{
		cfg:      cfg.Settings,
		registry: cfg.Registry,
		market:   cfg.Market,
		hub:      cfg.Hub,
		sched:    cfg.Scheduler,
		bus:      cfg.Bus,
		recorder: cfg.Recorder,
		logger:   logging.WithComponent(cfg.Logger, "broker"),
		rng:      rng,
		orders:   make(map[string]*models.TradingOrder),
		standing: make(map[string][]*standingOrder),
		accounts: make(map[string]*models.TradingAccount),
	}
	p.attach()
	return p
}

// Reattach resubscribes the broker to ticker updates after the hub was
// cleared, so standing orders and open positions keep following the market.
func (p *PaperBroker) Reattach() {
	p.attach()
}

// attach (re)subscribes the broker to ticker updates. The hub deduplicates
// by key, so repeated calls are cheap.
func (p *PaperBroker) attach() {
	if p.hub != nil {
		p.hub.SubscribeKey(stream.TickerAll, subscriberKey, p.onTicker)
	}
}

// PlaceOrder validates req and stores it as pending. Resolution runs after
// the simulated latency; the returned order reflects the pending state.
func (p *PaperBroker) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.TradingOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req = normalize(req)
	now := p.sched.Now()
	if err := validateOrder(p.registry, req, now); err != nil {
		p.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("Order failed validation")
		return nil, err
	}
	inst, _ := p.registry.Get(req.Symbol)

	order := &models.TradingOrder{
		ID:              p.newID(),
		AccountID:       req.AccountID,
		Symbol:          req.Symbol,
		AssetClass:      inst.AssetClass,
		Side:            req.Side,
		Type:            req.Type,
		Quantity:        req.Quantity,
		LimitPrice:      req.LimitPrice,
		StopPrice:       req.StopPrice,
		TrailingAmount:  req.TrailingAmount,
		TrailingPercent: req.TrailingPercent,
		TimeInForce:     req.TimeInForce,
		TakeProfit:      req.TakeProfit,
		StopLoss:        req.StopLoss,
		Status:          models.OrderPending,
		Metadata:        req.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order = order.Clone()

	p.mu.Lock()
	p.orders[order.ID] = order
	p.sequence = append(p.sequence, order.ID)
	acct := p.account(order.AccountID, now)
	acct.OrderIDs = append(acct.OrderIDs, order.ID)
	out := order.Clone()
	p.mu.Unlock()

	p.attach()
	id := order.ID
	p.sched.After(p.latency(), func() { p.resolve(id) })

	logging.LogOrder(p.logger, out.ID, out.Symbol, string(out.Side), string(out.Status))
	p.publish(events.OrderPlaced{Order: *out})
	return out, nil
}

// CancelOrder cancels a pending order.
func (p *PaperBroker) CancelOrder(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	order, ok := p.orders[orderID]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", errors.ErrOrderNotFound, orderID)
	}
	if order.Status.Terminal() {
		p.mu.Unlock()
		return errors.NewOrderError(orderID, order.Symbol, "cancel", "order is "+string(order.Status), errors.ErrOrderTerminal)
	}
	ev := p.cancel(order, "cancelled by user", p.sched.Now())
	p.mu.Unlock()

	p.publish(ev)
	return nil
}

// Order returns a copy of the order with id.
func (p *PaperBroker) Order(orderID string) (*models.TradingOrder, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	order, ok := p.orders[orderID]
	if !ok {
		return nil, false
	}
	return order.Clone(), true
}

// Orders returns copies of the orders of accountID in placement order.
// An empty accountID returns every order.
func (p *PaperBroker) Orders(accountID string) []*models.TradingOrder {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*models.TradingOrder, 0, len(p.sequence))
	for _, id := range p.sequence {
		order := p.orders[id]
		if accountID != "" && order.AccountID != accountID {
			continue
		}
		out = append(out, order.Clone())
	}
	return out
}

// Positions returns the positions of accountID sorted by symbol.
func (p *PaperBroker) Positions(accountID string) []models.Position {
	if accountID == "" {
		accountID = DefaultAccountID
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	acct, ok := p.accounts[accountID]
	if !ok {
		return nil
	}
	out := make([]models.Position, 0, len(acct.Positions))
	for _, pos := range acct.Positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Account returns a copy of the account ledger.
func (p *PaperBroker) Account(accountID string) (models.TradingAccount, bool) {
	if accountID == "" {
		accountID = DefaultAccountID
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	acct, ok := p.accounts[accountID]
	if !ok {
		return models.TradingAccount{}, false
	}
	out := *acct
	out.Positions = make(map[string]*models.Position, len(acct.Positions))
	for sym, pos := range acct.Positions {
		cp := *pos
		out.Positions[sym] = &cp
	}
	out.OrderIDs = append([]string(nil), acct.OrderIDs...)
	return out, true
}

// publish emits events and records terminal orders. Callers must not hold p.mu.
func (p *PaperBroker) publish(evs ...events.Event) {
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		if p.bus != nil {
			p.bus.Emit(ev)
		}
		if p.recorder == nil {
			continue
		}

		var order *models.TradingOrder
		switch e := ev.(type) {
		case events.OrderFilled:
			order = &e.Order
		case events.OrderRejected:
			order = &e.Order
		case events.OrderCancelled:
			order = &e.Order
		}
		if order == nil {
			continue
		}
		if err := p.recorder.SaveOrder(context.Background(), order); err != nil {
			l := logging.WithOrderID(p.logger, order.ID)
			l.Error().Err(err).Msg("Failed to record order")
		}
	}
}

// latency draws the simulated resolution delay.
func (p *PaperBroker) latency() time.Duration {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	span := p.cfg.MaxLatency - p.cfg.MinLatency
	return p.cfg.MinLatency + time.Duration(p.rng.Float64()*float64(span))
}

func (p *PaperBroker) newID() string {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	id, err := uuid.NewRandomFromReader(p.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Ensure PaperBroker implements Broker interface
var _ Broker = (*PaperBroker)(nil)
