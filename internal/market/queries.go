package market

import (
	"math"
	"sort"
	"time"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/analysis/indicators"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/instruments"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

func (g *Generator) state(symbol string) (*symbolState, bool) {
	st, ok := g.states[symbol]
	return st, ok
}

// Registry returns the instrument registry the generator was built from.
func (g *Generator) Registry() *instruments.Registry {
	return g.registry
}

// Symbols returns every simulated symbol, sorted.
func (g *Generator) Symbols() []string {
	return g.registry.Symbols()
}

// Ticker returns the latest ticker of symbol.
func (g *Generator) Ticker(symbol string) (models.Ticker, bool) {
	st, ok := g.state(symbol)
	if !ok {
		return models.Ticker{}, false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.ticker, true
}

// Tickers returns the latest ticker of every symbol, sorted by symbol.
func (g *Generator) Tickers() []models.Ticker {
	out := make([]models.Ticker, 0, len(g.states))
	for _, sym := range g.registry.Symbols() {
		if t, ok := g.Ticker(sym); ok {
			out = append(out, t)
		}
	}
	return out
}

// Candles returns up to limit of the most recent candles, oldest first.
// A limit <= 0 returns the whole history.
func (g *Generator) Candles(symbol string, limit int) ([]models.Candle, bool) {
	st, ok := g.state(symbol)
	if !ok {
		return nil, false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return tail(st.candles, limit), true
}

// OrderBook returns a deep copy of the book of symbol.
func (g *Generator) OrderBook(symbol string) (models.OrderBook, bool) {
	st, ok := g.state(symbol)
	if !ok {
		return models.OrderBook{}, false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return copyBook(st.book), true
}

// Trades returns up to limit of the most recent tape entries, oldest first.
func (g *Generator) Trades(symbol string, limit int) ([]models.Trade, bool) {
	st, ok := g.state(symbol)
	if !ok {
		return nil, false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return tail(st.trades, limit), true
}

// Indicators computes the technical indicators of symbol from its candles.
func (g *Generator) Indicators(symbol string) (models.TechnicalIndicators, bool) {
	candles, ok := g.Candles(symbol, 0)
	if !ok {
		return models.TechnicalIndicators{}, false
	}
	return indicators.Snapshot(symbol, candles), true
}

// Derivative prices an option or future. Spot instruments and unknown
// symbols return false.
func (g *Generator) Derivative(symbol string) (models.DerivativeInfo, bool) {
	inst, ok := g.registry.Get(symbol)
	if !ok {
		return models.DerivativeInfo{}, false
	}
	t, _ := g.Ticker(symbol)
	now := g.sched.Now()

	switch inst.Kind {
	case models.KindOption:
		underlying, ok := g.Ticker(inst.Option.Underlying)
		if !ok {
			return models.DerivativeInfo{}, false
		}
		return g.pricer.Option(inst, t.Price, underlying.Price, now), true
	case models.KindFuture:
		underlying, ok := g.Ticker(inst.Future.Underlying)
		return g.pricer.Future(inst, t.Price, underlying.Price, ok, now), true
	}
	return models.DerivativeInfo{}, false
}

// Stats24h aggregates the candles younger than 24 hours. TradeCount is the
// number of candles in the window.
func (g *Generator) Stats24h(symbol string) (models.Stats24h, bool) {
	candles, ok := g.Candles(symbol, 0)
	if !ok {
		return models.Stats24h{}, false
	}
	stats := models.Stats24h{Symbol: symbol}
	cutoff := g.sched.Now().Add(-24 * time.Hour)

	for _, c := range candles {
		if !c.Timestamp.After(cutoff) {
			continue
		}
		if stats.TradeCount == 0 {
			stats.Open = c.Open
			stats.High = c.High
			stats.Low = c.Low
		}
		stats.TradeCount++
		stats.Volume += c.Volume
		stats.Close = c.Close
		stats.High = math.Max(stats.High, c.High)
		stats.Low = math.Min(stats.Low, c.Low)
	}
	return stats, true
}

// sortTickers orders tickers by descending absolute percent change.
func sortTickers(tickers []models.Ticker) {
	sort.SliceStable(tickers, func(i, j int) bool {
		return math.Abs(tickers[i].ChangePercent) > math.Abs(tickers[j].ChangePercent)
	})
}

// Movers returns the n tickers with the largest absolute percent change.
func (g *Generator) Movers(n int) []models.Ticker {
	tickers := g.Tickers()
	sortTickers(tickers)
	if n > 0 && n < len(tickers) {
		tickers = tickers[:n]
	}
	return tickers
}
