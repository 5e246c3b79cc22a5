package broker

import (
	"math"
	"time"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

const (
	qtyEpsilon = 1e-9

	marginMultiplier    = 2
	dayTradeMultiplier  = 4
	maintenanceFraction = 0.25
)

// account returns the ledger of id, opening it with the initial cash on
// first use. Caller holds p.mu.
func (p *PaperBroker) account(id string, now time.Time) *models.TradingAccount {
	if acct, ok := p.accounts[id]; ok {
		return acct
	}
	acct := &models.TradingAccount{
		ID:          id,
		Type:        p.cfg.AccountType,
		CashBalance: p.cfg.InitialCash,
		Positions:   make(map[string]*models.Position),
		CreatedAt:   now,
	}
	revalue(acct, now)
	p.accounts[id] = acct
	return acct
}

// applyFill books a filled order: position quantity, average price and
// realized P&L, then cash and account totals.
func (p *PaperBroker) applyFill(acct *models.TradingAccount, inst models.InstrumentConfig, order *models.TradingOrder, now time.Time) {
	price, qty := order.FillPrice, order.FillQuantity

	pos, ok := acct.Positions[order.Symbol]
	if !ok {
		pos = &models.Position{
			Symbol:       order.Symbol,
			AssetClass:   inst.AssetClass,
			DayOpenPrice: price,
		}
		acct.Positions[order.Symbol] = pos
	}

	signed := qty
	if order.Side == models.OrderSideSell {
		signed = -qty
	}

	switch {
	case math.Abs(pos.Quantity) < qtyEpsilon || (pos.Quantity > 0) == (signed > 0):
		held := math.Abs(pos.Quantity)
		pos.AveragePrice = (pos.AveragePrice*held + price*qty) / (held + qty)
		pos.Quantity += signed
	default:
		closing := math.Min(math.Abs(pos.Quantity), qty)
		direction := 1.0
		if pos.Quantity < 0 {
			direction = -1
		}
		pos.RealizedPnL += (price - pos.AveragePrice) * closing * direction
		pos.Quantity += signed
		switch {
		case math.Abs(pos.Quantity) < qtyEpsilon:
			pos.Quantity = 0
			pos.AveragePrice = 0
		case (pos.Quantity > 0) != (direction > 0):
			// Flipped through flat; the remainder opened at price.
			pos.AveragePrice = price
		}
	}
	pos.CostBasis = pos.AveragePrice * math.Abs(pos.Quantity)
	pos.Mark(price, now)

	notional := price * qty
	if order.Side == models.OrderSideBuy {
		acct.CashBalance -= notional + order.Commission
	} else {
		acct.CashBalance += notional - order.Commission
	}
	revalue(acct, now)
}

// markToMarket revalues every position in ticker's symbol. Caller holds p.mu.
func (p *PaperBroker) markToMarket(ticker models.Ticker, now time.Time) {
	for _, acct := range p.accounts {
		pos, ok := acct.Positions[ticker.Symbol]
		if !ok {
			continue
		}
		pos.Mark(ticker.Price, now)
		revalue(acct, now)
	}
}

// revalue recomputes total value, buying power and margin from cash and
// position market values.
func revalue(acct *models.TradingAccount, now time.Time) {
	var marketValue, gross float64
	for _, pos := range acct.Positions {
		marketValue += pos.MarketValue
		gross += math.Abs(pos.MarketValue)
	}
	acct.TotalValue = acct.CashBalance + marketValue

	cash := math.Max(0, acct.CashBalance)
	switch acct.Type {
	case models.AccountMargin:
		acct.BuyingPower = cash * marginMultiplier
		acct.DayTradingBuyingPower = cash * dayTradeMultiplier
		acct.MaintenanceMargin = gross * maintenanceFraction
	default:
		acct.BuyingPower = cash
		acct.DayTradingBuyingPower = 0
		acct.MaintenanceMargin = 0
	}
	acct.UpdatedAt = now
}
