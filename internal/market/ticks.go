package market

import (
	"math"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
)

// tickTicker random-walks the last price and publishes the new ticker on the
// symbol channel and on ticker:all.
func (g *Generator) tickTicker(st *symbolState) {
	now := g.sched.Now()

	st.mu.Lock()
	prev := st.ticker
	delta := prev.Price * st.cfg.Volatility * 0.1 * g.uniform(-0.5, 0.5)
	price := prev.Price + delta
	if price <= 0 {
		price = prev.Price
	}

	next := prev
	next.Price = price
	next.Change = price - prev.Price
	if prev.Price != 0 {
		next.ChangePercent = next.Change / prev.Price * 100
	}
	next.Volume24h += g.uniform(0, 10) * sizeScale(st.cfg)
	next.High24h = math.Max(prev.High24h, price)
	next.Low24h = math.Min(prev.Low24h, price)
	next.UpdatedAt = now
	st.ticker = next
	st.mu.Unlock()

	g.hub.Publish(stream.TickerChannel(st.cfg.Symbol), next)
	g.hub.Publish(stream.TickerAll, next)
}

// tickCandles rolls the active candle, opening a new bucket once the
// current one has elapsed, and publishes the most recent candles.
func (g *Generator) tickCandles(st *symbolState) {
	now := g.sched.Now()

	st.mu.Lock()
	price := st.ticker.Price
	volume := g.uniform(1, 100) * sizeScale(st.cfg)

	n := len(st.candles)
	if n == 0 || !now.Before(st.candles[n-1].Timestamp.Add(g.cfg.CandleBucket)) {
		open := price
		if n > 0 {
			open = st.candles[n-1].Close
		}
		st.candles = append(st.candles, models.Candle{
			Timestamp: now.Truncate(g.cfg.CandleBucket),
			Open:      open,
			High:      math.Max(open, price),
			Low:       math.Min(open, price),
			Close:     price,
			Volume:    volume,
		})
		if over := len(st.candles) - g.cfg.CandleCap; over > 0 {
			st.candles = append(st.candles[:0:0], st.candles[over:]...)
		}
	} else {
		c := &st.candles[n-1]
		c.Close = price
		c.High = math.Max(c.High, price)
		c.Low = math.Min(c.Low, price)
		c.Volume += volume
	}
	out := tail(st.candles, g.cfg.PublishCandles)
	st.mu.Unlock()

	g.hub.Publish(stream.CandlesChannel(st.cfg.Symbol), out)
}

// tickBook jitters level sizes and re-anchors every level around the
// current price so the book stays uncrossed.
func (g *Generator) tickBook(st *symbolState) {
	now := g.sched.Now()

	st.mu.Lock()
	price := st.ticker.Price
	scale := sizeScale(st.cfg)
	tick := st.cfg.TickSize
	book := &st.book

	for i := range book.Bids {
		lvl := &book.Bids[i]
		lvl.Size = math.Max(sizeFloor, lvl.Size+g.uniform(-0.5, 0.5)*scale)
		lvl.Price = floorTick(price*(1-g.uniform(0.0001, 0.01)), tick)
	}
	for i := range book.Asks {
		lvl := &book.Asks[i]
		lvl.Size = math.Max(sizeFloor, lvl.Size+g.uniform(-0.5, 0.5)*scale)
		lvl.Price = ceilTick(price*(1+g.uniform(0.0001, 0.01)), tick)
	}
	normalizeBook(book)
	book.UpdatedAt = now
	out := copyBook(*book)
	st.mu.Unlock()

	g.hub.Publish(stream.OrderBookChannel(st.cfg.Symbol), out)
}

// tickTrades appends one trade to the tape and publishes the latest trades.
func (g *Generator) tickTrades(st *symbolState) {
	now := g.sched.Now()

	st.mu.Lock()
	st.trades = append(st.trades, g.newTrade(st, st.ticker.Price, now))
	if over := len(st.trades) - g.cfg.TapeCap; over > 0 {
		st.trades = append(st.trades[:0:0], st.trades[over:]...)
	}
	out := tail(st.trades, g.cfg.PublishTrades)
	st.mu.Unlock()

	g.hub.Publish(stream.TradesChannel(st.cfg.Symbol), out)
}

// tail returns a copy of the last n elements of s, or all of s when n <= 0.
func tail[T any](s []T, n int) []T {
	if n <= 0 || n > len(s) {
		n = len(s)
	}
	return append([]T(nil), s[len(s)-n:]...)
}

