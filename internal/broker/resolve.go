package broker

import (
	"math"
	"time"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/events"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/logging"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/pkg/utils"
)

// standingOrder is a pending order waiting for the market to cross it.
type standingOrder struct {
	order     *models.TradingOrder
	triggered bool      // stop leg of a stop-limit has fired
	extreme   float64   // best price seen by a trailing stop
	expiresAt time.Time // zero unless time in force is day
	expiry    func()
}

// resolve runs the first fill attempt of an order once its latency elapsed.
func (p *PaperBroker) resolve(orderID string) {
	p.mu.Lock()
	order, ok := p.orders[orderID]
	if !ok || order.Status != models.OrderPending {
		p.mu.Unlock()
		return
	}
	now := p.sched.Now()

	var ev events.Event
	ticker, hasTicker := p.market.Ticker(order.Symbol)
	book, hasBook := p.market.OrderBook(order.Symbol)
	switch {
	case !hasTicker || !hasBook || book.BestBid() <= 0 || book.BestAsk() <= 0:
		ev = p.reject(order, "no market data", now)
	case order.Type == models.OrderTypeOCO || order.Type == models.OrderTypeBracket:
		// Accepted without a fill path; they stay pending until cancelled.
	default:
		st := &standingOrder{order: order, extreme: ticker.Price}
		if price, ok := st.attempt(ticker.Price, book); ok {
			ev = p.fill(order, price, now)
		} else if order.TimeInForce == models.TIFIOC || order.TimeInForce == models.TIFFOK {
			ev = p.cancel(order, "not filled immediately", now)
		} else {
			ev = p.stand(st, now)
		}
	}
	p.mu.Unlock()

	p.publish(ev)
}

// attempt reports whether the order fills against last and book, and at
// which price. Stop-limit and trailing state advances as a side effect.
func (st *standingOrder) attempt(last float64, book models.OrderBook) (float64, bool) {
	o := st.order
	buy := o.Side == models.OrderSideBuy
	fillPrice := book.BestBid()
	if buy {
		fillPrice = book.BestAsk()
	}

	switch o.Type {
	case models.OrderTypeMarket:
		return fillPrice, true

	case models.OrderTypeLimit:
		return fillPrice, limitCrossed(buy, fillPrice, o.LimitPrice)

	case models.OrderTypeStop:
		return fillPrice, stopTriggered(buy, last, o.StopPrice)

	case models.OrderTypeStopLimit:
		if !st.triggered && stopTriggered(buy, last, o.StopPrice) {
			st.triggered = true
		}
		return fillPrice, st.triggered && limitCrossed(buy, fillPrice, o.LimitPrice)

	case models.OrderTypeTrailingStop:
		if buy {
			st.extreme = math.Min(st.extreme, last)
		} else {
			st.extreme = math.Max(st.extreme, last)
		}
		offset := o.TrailingAmount
		if offset <= 0 {
			offset = st.extreme * o.TrailingPercent / 100
		}
		if buy {
			return fillPrice, last >= st.extreme+offset
		}
		return fillPrice, last <= st.extreme-offset
	}
	return 0, false
}

func limitCrossed(buy bool, price, limit float64) bool {
	if buy {
		return price <= limit
	}
	return price >= limit
}

func stopTriggered(buy bool, last, stop float64) bool {
	if buy {
		return last >= stop
	}
	return last <= stop
}

// stand parks an unfilled order until a later ticker crosses it. Day orders
// expire at the close of the session they were placed in.
func (p *PaperBroker) stand(st *standingOrder, now time.Time) events.Event {
	o := st.order
	if o.TimeInForce == models.TIFDay {
		inst, _ := p.registry.Get(o.Symbol)
		st.expiresAt = utils.SessionClose(inst.Hours, o.CreatedAt)
		if !now.Before(st.expiresAt) {
			return p.cancel(o, "expired", now)
		}
		id := o.ID
		st.expiry = p.sched.After(st.expiresAt.Sub(now), func() { p.expire(id) })
	}
	p.standing[o.Symbol] = append(p.standing[o.Symbol], st)
	p.attach()
	return nil
}

// expire cancels a day order whose session closed.
func (p *PaperBroker) expire(orderID string) {
	p.mu.Lock()
	order, ok := p.orders[orderID]
	if !ok || order.Status != models.OrderPending {
		p.mu.Unlock()
		return
	}
	ev := p.cancel(order, "expired", p.sched.Now())
	p.mu.Unlock()

	p.publish(ev)
}

// onTicker marks positions to market and re-checks standing orders of the
// ticker's symbol.
func (p *PaperBroker) onTicker(payload any) {
	ticker, ok := payload.(models.Ticker)
	if !ok {
		return
	}

	p.mu.Lock()
	now := p.sched.Now()
	p.markToMarket(ticker, now)

	var evs []events.Event
	if list := p.standing[ticker.Symbol]; len(list) > 0 {
		book, hasBook := p.market.OrderBook(ticker.Symbol)
		for _, st := range append([]*standingOrder(nil), list...) {
			if st.order.Status != models.OrderPending {
				continue
			}
			if !st.expiresAt.IsZero() && !now.Before(st.expiresAt) {
				evs = append(evs, p.cancel(st.order, "expired", now))
				continue
			}
			if !hasBook {
				continue
			}
			if price, ok := st.attempt(ticker.Price, book); ok {
				evs = append(evs, p.fill(st.order, price, now))
			}
		}
	}
	p.mu.Unlock()

	p.publish(evs...)
}

// fill executes order at price and books it on the account. A buy that
// exceeds buying power is rejected instead.
func (p *PaperBroker) fill(order *models.TradingOrder, price float64, now time.Time) events.Event {
	inst, _ := p.registry.Get(order.Symbol)
	commission := Commission(inst.AssetClass, order.Quantity, price)
	acct := p.account(order.AccountID, now)

	if order.Side == models.OrderSideBuy && price*order.Quantity+commission > acct.BuyingPower {
		return p.reject(order, "insufficient buying power", now)
	}

	order.Status = models.OrderFilled
	order.FillPrice = price
	order.FillQuantity = order.Quantity
	order.Commission = commission
	order.UpdatedAt = now
	filledAt := now
	order.FilledAt = &filledAt
	p.dropStanding(order)

	p.applyFill(acct, inst, order, now)

	logging.LogFill(p.logger, order.ID, order.Symbol, string(order.Side), order.Quantity, price, commission)
	return events.OrderFilled{Order: *order.Clone()}
}

func (p *PaperBroker) reject(order *models.TradingOrder, reason string, now time.Time) events.Event {
	order.Status = models.OrderRejected
	order.Reason = reason
	order.UpdatedAt = now
	p.dropStanding(order)

	l := logging.WithOrderID(p.logger, order.ID)
	l.Warn().Str("reason", reason).Msg("Order rejected")
	return events.OrderRejected{Order: *order.Clone(), Reason: reason}
}

func (p *PaperBroker) cancel(order *models.TradingOrder, reason string, now time.Time) events.Event {
	order.Status = models.OrderCancelled
	order.Reason = reason
	order.UpdatedAt = now
	p.dropStanding(order)

	logging.LogOrder(p.logger, order.ID, order.Symbol, string(order.Side), string(order.Status))
	return events.OrderCancelled{Order: *order.Clone(), Reason: reason}
}

// dropStanding removes order from the standing set and stops its expiry timer.
func (p *PaperBroker) dropStanding(order *models.TradingOrder) {
	list := p.standing[order.Symbol]
	for i, st := range list {
		if st.order.ID != order.ID {
			continue
		}
		if st.expiry != nil {
			st.expiry()
		}
		list = append(list[:i:i], list[i+1:]...)
		break
	}
	if len(list) == 0 {
		delete(p.standing, order.Symbol)
	} else {
		p.standing[order.Symbol] = list
	}
}

// StandingOrders returns the number of orders waiting on a later ticker.
func (p *PaperBroker) StandingOrders() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, list := range p.standing {
		n += len(list)
	}
	return n
}
