package market

import (
	"fmt"
	"math"
	"time"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// seed builds the initial market of one instrument at now.
func (g *Generator) seed(inst models.InstrumentConfig, now time.Time) *symbolState {
	price := inst.BasePrice * (1 + g.uniform(-0.05, 0.05))
	st := &symbolState{cfg: inst}

	st.candles = g.seedCandles(inst, price, now)
	var volume float64
	for _, c := range st.candles {
		volume += c.Volume
	}

	st.ticker = models.Ticker{
		Symbol:    inst.Symbol,
		Price:     price,
		Volume24h: volume,
		High24h:   price * (1 + g.uniform(0, 0.05)),
		Low24h:    price * (1 - g.uniform(0, 0.05)),
		MarketCap: inst.MarketCap,
		UpdatedAt: now,
	}

	st.book = g.seedBook(inst, price, now)

	n := g.cfg.InitialTrades
	st.trades = make([]models.Trade, 0, g.cfg.TapeCap)
	for i := n; i > 0; i-- {
		at := now.Add(-time.Duration(i) * g.cfg.TradeInterval)
		st.trades = append(st.trades, g.newTrade(st, price, at))
	}

	return st
}

// seedCandles walks backwards from price so the newest candle closes at the
// seed price. The newest candle is the active bucket containing now.
func (g *Generator) seedCandles(inst models.InstrumentConfig, price float64, now time.Time) []models.Candle {
	n := g.cfg.HistoryCandles
	candles := make([]models.Candle, n, max(n, g.cfg.CandleCap))
	bucket := now.Truncate(g.cfg.CandleBucket)
	scale := sizeScale(inst)

	closePrice := price
	for i := n - 1; i >= 0; i-- {
		open := closePrice * (1 + inst.Volatility*g.uniform(-0.5, 0.5))
		high := math.Max(open, closePrice) * (1 + g.uniform(0, inst.Volatility*0.25))
		low := math.Min(open, closePrice) * (1 - g.uniform(0, inst.Volatility*0.25))
		candles[i] = models.Candle{
			Timestamp: bucket.Add(-time.Duration(n-1-i) * g.cfg.CandleBucket),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    g.uniform(10, 1000) * scale,
		}
		closePrice = open
	}
	return candles
}

// seedBook lays out depth levels per side at 0.1% steps from price.
func (g *Generator) seedBook(inst models.InstrumentConfig, price float64, now time.Time) models.OrderBook {
	depth := g.cfg.BookDepth
	book := models.OrderBook{
		Symbol:    inst.Symbol,
		Bids:      make([]models.OrderBookLevel, depth),
		Asks:      make([]models.OrderBookLevel, depth),
		UpdatedAt: now,
	}
	scale := sizeScale(inst)
	for i := 0; i < depth; i++ {
		step := 0.001 * float64(i+1)
		book.Bids[i] = models.OrderBookLevel{
			Price: floorTick(price*(1-step), inst.TickSize),
			Size:  g.uniform(0.1, 10) * scale,
		}
		book.Asks[i] = models.OrderBookLevel{
			Price: ceilTick(price*(1+step), inst.TickSize),
			Size:  g.uniform(0.1, 10) * scale,
		}
	}
	normalizeBook(&book)
	return book
}

// newTrade synthesizes one tape entry within 0.5% of price. Caller holds
// st.mu or owns st exclusively.
func (g *Generator) newTrade(st *symbolState, price float64, at time.Time) models.Trade {
	st.tradeSeq++
	side := models.TradeBuy
	if g.coin() {
		side = models.TradeSell
	}
	return models.Trade{
		ID:        fmt.Sprintf("T-%s-%d", st.cfg.Symbol, st.tradeSeq),
		Symbol:    st.cfg.Symbol,
		Price:     price * (1 + g.uniform(-0.005, 0.005)),
		Size:      g.uniform(0.01, 5) * sizeScale(st.cfg),
		Side:      side,
		Timestamp: at,
	}
}

// sizeScale maps asset class to a plausible lot size.
func sizeScale(inst models.InstrumentConfig) float64 {
	switch inst.AssetClass {
	case models.AssetCrypto:
		return 1
	case models.AssetForex:
		return 10000
	case models.AssetStock, models.AssetETF, models.AssetBond:
		return 100
	default:
		return 10
	}
}
