package market

import (
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/instruments"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/scheduler"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
)

// Wednesday, inside the New York session.
var start = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T, cfg Config, seed int64, symbols ...string) (*Generator, *scheduler.Manual, *stream.Hub) {
	t.Helper()
	reg := instruments.Default(start)
	if len(symbols) > 0 {
		var err error
		reg, err = reg.Restrict(symbols, start)
		if err != nil {
			t.Fatalf("Restrict: %v", err)
		}
	}
	sched := scheduler.NewManual(start)
	hub := stream.NewHub(zerolog.Nop())
	g := New(cfg, reg, hub, sched, rand.New(rand.NewSource(seed)), zerolog.Nop())
	return g, sched, hub
}

func TestSeededMarket(t *testing.T) {
	g, _, _ := newTestGenerator(t, DefaultConfig(), 1)

	for _, sym := range g.Symbols() {
		inst, _ := g.Registry().Get(sym)
		tk, ok := g.Ticker(sym)
		if !ok {
			t.Fatalf("%s: no ticker", sym)
		}
		if tk.Price < inst.BasePrice*0.95 || tk.Price > inst.BasePrice*1.05 {
			t.Errorf("%s: seed price %v outside ±5%% of %v", sym, tk.Price, inst.BasePrice)
		}
		if tk.Low24h > tk.Price || tk.High24h < tk.Price {
			t.Errorf("%s: price %v outside [%v, %v]", sym, tk.Price, tk.Low24h, tk.High24h)
		}

		candles, _ := g.Candles(sym, 0)
		if len(candles) != 100 {
			t.Errorf("%s: %d seed candles, want 100", sym, len(candles))
		}
		if last := candles[len(candles)-1]; last.Close != tk.Price {
			t.Errorf("%s: last close %v != price %v", sym, last.Close, tk.Price)
		}

		book, _ := g.OrderBook(sym)
		if len(book.Bids) != 20 || len(book.Asks) != 20 {
			t.Errorf("%s: book depth %d/%d", sym, len(book.Bids), len(book.Asks))
		}

		trades, _ := g.Trades(sym, 0)
		if len(trades) != 50 {
			t.Errorf("%s: %d seed trades, want 50", sym, len(trades))
		}
	}
}

func TestSameSeedSameMarket(t *testing.T) {
	a, sa, _ := newTestGenerator(t, DefaultConfig(), 7, "AAPL", "BTCUSD")
	b, sb, _ := newTestGenerator(t, DefaultConfig(), 7, "AAPL", "BTCUSD")
	a.Connect()
	b.Connect()
	sa.Advance(30 * time.Second)
	sb.Advance(30 * time.Second)

	for _, sym := range a.Symbols() {
		ta, _ := a.Ticker(sym)
		tb, _ := b.Ticker(sym)
		if ta != tb {
			t.Errorf("%s: tickers diverged: %+v vs %+v", sym, ta, tb)
		}
	}
}

// Property: For any seed and any run length, every ticker stays inside its
// 24h band and every book stays sorted and uncrossed.
func TestProperty_TickerBandAndBookOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("low24h <= price <= high24h and best bid < best ask", prop.ForAll(
		func(seed int64, seconds int) bool {
			g, sched, hub := newTestGenerator(t, DefaultConfig(), seed, "AAPL", "EURUSD", "BTC-PERP", "SPY-P-480-20270618")

			ok := true
			hub.Subscribe(stream.TickerAll, func(payload any) {
				tk := payload.(models.Ticker)
				if tk.Low24h > tk.Price || tk.Price > tk.High24h {
					ok = false
				}
			})
			for _, sym := range g.Symbols() {
				hub.Subscribe(stream.OrderBookChannel(sym), func(payload any) {
					if !bookOrdered(payload.(models.OrderBook)) {
						ok = false
					}
				})
			}

			g.Connect()
			sched.Advance(time.Duration(seconds) * time.Second)
			return ok
		},
		gen.Int64Range(1, 1<<40),
		gen.IntRange(1, 120),
	))

	properties.TestingRun(t)
}

func bookOrdered(book models.OrderBook) bool {
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return false
	}
	if book.BestBid() >= book.BestAsk() {
		return false
	}
	var total float64
	for i, lvl := range book.Bids {
		if i > 0 && lvl.Price > book.Bids[i-1].Price {
			return false
		}
		if lvl.Size < sizeFloor {
			return false
		}
		total += lvl.Size
		if diff := lvl.Total - total; diff > 1e-6 || diff < -1e-6 {
			return false
		}
	}
	for i, lvl := range book.Asks {
		if i > 0 && lvl.Price < book.Asks[i-1].Price {
			return false
		}
		if lvl.Size < sizeFloor {
			return false
		}
	}
	return true
}

// Property: The candle history never exceeds its cap, stays in time order,
// and evicts the oldest candles first.
func TestProperty_CandleCapFIFO(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("len(candles) <= cap with oldest evicted", prop.ForAll(
		func(capacity int, ticks int) bool {
			cfg := DefaultConfig()
			cfg.CandleBucket = 5 * time.Second
			cfg.CandleInterval = 5 * time.Second
			cfg.CandleCap = capacity
			g, sched, _ := newTestGenerator(t, cfg, 3, "MSFT")

			seeded, _ := g.Candles("MSFT", 0)
			g.Connect()
			sched.Advance(time.Duration(ticks) * cfg.CandleInterval)

			candles, _ := g.Candles("MSFT", 0)
			total := len(seeded) + ticks
			want := min(total, capacity)
			if len(candles) != want {
				return false
			}
			for i := 1; i < len(candles); i++ {
				if !candles[i].Timestamp.After(candles[i-1].Timestamp) {
					return false
				}
			}
			evicted := total - len(candles)
			if evicted < len(seeded) {
				return candles[0].Timestamp.Equal(seeded[evicted].Timestamp)
			}
			return true
		},
		gen.IntRange(100, 160),
		gen.IntRange(1, 120),
	))

	properties.TestingRun(t)
}

func TestCandleUpdatesWithinBucket(t *testing.T) {
	g, sched, hub := newTestGenerator(t, DefaultConfig(), 5, "AAPL")
	before, _ := g.Candles("AAPL", 0)

	hub.Subscribe(stream.CandlesChannel("AAPL"), func(payload any) {
		candles := payload.([]models.Candle)
		tk, _ := g.Ticker("AAPL")
		if last := candles[len(candles)-1]; last.Close != tk.Price {
			t.Errorf("active candle close %v != price %v", last.Close, tk.Price)
		}
	})

	g.Connect()
	// Four candle ticks at 5s stay inside the active one-minute bucket.
	sched.Advance(20 * time.Second)

	after, _ := g.Candles("AAPL", 0)
	if len(after) != len(before) {
		t.Fatalf("candle count changed inside a bucket: %d -> %d", len(before), len(after))
	}
	last := after[len(after)-1]
	if last.Low > last.Close || last.Close > last.High {
		t.Errorf("active candle close %v outside [%v, %v]", last.Close, last.Low, last.High)
	}
	if last.Volume <= before[len(before)-1].Volume {
		t.Errorf("active candle volume did not grow")
	}

	sched.Advance(time.Minute)
	after, _ = g.Candles("AAPL", 0)
	if len(after) != len(before)+1 {
		t.Errorf("expected one new candle after the bucket elapsed, got %d", len(after)-len(before))
	}
}

func TestTradeTapeCap(t *testing.T) {
	cfg := DefaultConfig()
	g, sched, hub := newTestGenerator(t, cfg, 9, "ETHUSD")

	var published []models.Trade
	hub.Subscribe(stream.TradesChannel("ETHUSD"), func(payload any) {
		published = payload.([]models.Trade)
	})

	g.Connect()
	sched.Advance(200 * time.Second)

	trades, _ := g.Trades("ETHUSD", 0)
	if len(trades) != cfg.TapeCap {
		t.Errorf("tape length = %d, want %d", len(trades), cfg.TapeCap)
	}
	if len(published) != cfg.PublishTrades {
		t.Errorf("published %d trades, want %d", len(published), cfg.PublishTrades)
	}
	if published[len(published)-1].ID != trades[len(trades)-1].ID {
		t.Errorf("published tail does not end at the newest trade")
	}
	if latest, _ := g.Trades("ETHUSD", 5); len(latest) != 5 {
		t.Errorf("Trades(limit=5) returned %d", len(latest))
	}
}

func TestTickerPublishesSymbolAndAll(t *testing.T) {
	g, sched, hub := newTestGenerator(t, DefaultConfig(), 11, "AAPL", "MSFT")

	perSymbol, all := 0, 0
	hub.Subscribe(stream.TickerChannel("AAPL"), func(any) { perSymbol++ })
	hub.Subscribe(stream.TickerAll, func(any) { all++ })

	g.Connect()
	sched.Advance(3 * time.Second)

	if perSymbol != 3 {
		t.Errorf("ticker:AAPL published %d times, want 3", perSymbol)
	}
	if all != 6 {
		t.Errorf("ticker:all published %d times, want 6", all)
	}
}

func TestConnectDisconnectIdempotent(t *testing.T) {
	g, sched, hub := newTestGenerator(t, DefaultConfig(), 13, "AAPL")

	g.Connect()
	g.Connect()
	if sched.Pending() != 4 {
		t.Fatalf("pending timers = %d, want 4", sched.Pending())
	}

	calls := 0
	hub.Subscribe(stream.TickerChannel("AAPL"), func(any) { calls++ })
	sched.Advance(time.Second)
	if calls != 1 {
		t.Fatalf("ticker published %d times in one interval", calls)
	}

	g.Disconnect()
	g.Disconnect()
	if g.IsConnected() {
		t.Error("still connected after Disconnect")
	}
	if sched.Pending() != 0 {
		t.Errorf("pending timers after Disconnect = %d", sched.Pending())
	}
	if hub.TotalSubscriberCount() != 0 {
		t.Errorf("hub still has %d subscribers", hub.TotalSubscriberCount())
	}

	before, _ := g.Ticker("AAPL")
	sched.Advance(10 * time.Second)
	after, _ := g.Ticker("AAPL")
	if before != after {
		t.Error("market moved while disconnected")
	}
}

func TestOnConnectRestoresSubscriptions(t *testing.T) {
	g, sched, hub := newTestGenerator(t, DefaultConfig(), 13, "AAPL")

	calls, hooks := 0, 0
	subscribe := func() {
		hooks++
		hub.SubscribeKey(stream.TickerAll, "consumer", func(any) { calls++ })
	}
	g.OnConnect(subscribe)
	subscribe()

	g.Connect()
	g.Connect()
	if hooks != 2 {
		t.Fatalf("hook ran %d times, want once per effective Connect", hooks-1)
	}

	g.Disconnect()
	if hub.SubscriberCount(stream.TickerAll) != 0 {
		t.Fatal("Disconnect kept subscriptions")
	}
	g.Connect()
	if hub.SubscriberCount(stream.TickerAll) != 1 {
		t.Fatalf("subscribers after reconnect = %d, want 1", hub.SubscriberCount(stream.TickerAll))
	}

	sched.Advance(time.Second)
	if calls != 1 {
		t.Errorf("ticker delivered %d times after reconnect, want 1", calls)
	}
}

func TestUnknownSymbol(t *testing.T) {
	g, _, _ := newTestGenerator(t, DefaultConfig(), 1, "AAPL")

	if _, ok := g.Ticker("NOPE"); ok {
		t.Error("Ticker(NOPE) ok")
	}
	if c, ok := g.Candles("NOPE", 10); ok || c != nil {
		t.Error("Candles(NOPE) ok")
	}
	if _, ok := g.OrderBook("NOPE"); ok {
		t.Error("OrderBook(NOPE) ok")
	}
	if _, ok := g.Trades("NOPE", 10); ok {
		t.Error("Trades(NOPE) ok")
	}
	if _, ok := g.Indicators("NOPE"); ok {
		t.Error("Indicators(NOPE) ok")
	}
	if _, ok := g.Derivative("NOPE"); ok {
		t.Error("Derivative(NOPE) ok")
	}
	if _, ok := g.Stats24h("NOPE"); ok {
		t.Error("Stats24h(NOPE) ok")
	}
}

func TestOrderBookIsCopied(t *testing.T) {
	g, _, _ := newTestGenerator(t, DefaultConfig(), 1, "AAPL")

	book, _ := g.OrderBook("AAPL")
	book.Bids[0].Price = -1
	again, _ := g.OrderBook("AAPL")
	if again.Bids[0].Price == -1 {
		t.Error("OrderBook returned shared backing storage")
	}
}

func TestDerivative(t *testing.T) {
	g, _, _ := newTestGenerator(t, DefaultConfig(), 1, "AAPL-C-200-20271217", "BTC-PERP", "AAPL")

	opt, ok := g.Derivative("AAPL-C-200-20271217")
	if !ok {
		t.Fatal("option derivative missing")
	}
	aapl, _ := g.Ticker("AAPL")
	if opt.UnderlyingPrice != aapl.Price || opt.Strike != 200 || opt.Greeks == nil {
		t.Errorf("option info = %+v", opt)
	}

	perp, ok := g.Derivative("BTC-PERP")
	if !ok || !perp.Perpetual {
		t.Errorf("perp info = %+v, ok=%v", perp, ok)
	}

	if _, ok := g.Derivative("AAPL"); ok {
		t.Error("spot instrument priced as derivative")
	}
}

func TestStats24h(t *testing.T) {
	g, _, _ := newTestGenerator(t, DefaultConfig(), 1, "AAPL")

	stats, ok := g.Stats24h("AAPL")
	if !ok {
		t.Fatal("Stats24h missing")
	}
	candles, _ := g.Candles("AAPL", 0)
	if stats.TradeCount != len(candles) {
		t.Errorf("TradeCount = %d, want %d", stats.TradeCount, len(candles))
	}
	if stats.Open != candles[0].Open || stats.Close != candles[len(candles)-1].Close {
		t.Errorf("open/close = %v/%v", stats.Open, stats.Close)
	}
	if stats.High < stats.Low {
		t.Errorf("high %v < low %v", stats.High, stats.Low)
	}
}

func TestIndicators(t *testing.T) {
	g, _, _ := newTestGenerator(t, DefaultConfig(), 1, "AAPL")

	ind, ok := g.Indicators("AAPL")
	if !ok {
		t.Fatal("Indicators missing")
	}
	if ind.SMA20 == 0 || ind.SMA50 == 0 || ind.MACD == 0 {
		t.Errorf("indicators with 100 candles should be populated: %+v", ind)
	}
	if ind.RSI14 < 0 || ind.RSI14 > 100 {
		t.Errorf("RSI14 = %v", ind.RSI14)
	}
}
