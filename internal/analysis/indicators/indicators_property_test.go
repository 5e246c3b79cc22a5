package indicators

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// candleGen generates valid candle data with realistic OHLCV values
func candleGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Candle{}), map[string]gopter.Gen{
		"Timestamp": gen.TimeRange(time.Now().Add(-365*24*time.Hour), time.Hour),
		"Open":      gen.Float64Range(100.0, 1000.0),
		"High":      gen.Float64Range(100.0, 1000.0),
		"Low":       gen.Float64Range(100.0, 1000.0),
		"Close":     gen.Float64Range(100.0, 1000.0),
		"Volume":    gen.Float64Range(1000, 10000000),
	}).Map(normalizeCandle)
}

// normalizeCandle enforces Low <= Open, Close <= High with a non-empty range.
func normalizeCandle(c models.Candle) models.Candle {
	if c.Open <= 0 {
		c.Open = 100.0
	}
	if c.Close <= 0 {
		c.Close = 100.0
	}
	c.High = math.Max(c.High, math.Max(c.Open, c.Close))
	c.Low = math.Min(c.Low, math.Min(c.Open, c.Close))
	if c.Low <= 0 {
		c.Low = math.Min(c.Open, c.Close)
	}
	if c.High <= c.Low {
		c.High = c.Low + 1.0
	}
	return c
}

// candleSliceGen generates a time-ordered slice of valid candles
func candleSliceGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, candleGen()).Map(func(candles []models.Candle) []models.Candle {
		for len(candles) < minLen {
			if len(candles) == 0 {
				candles = append(candles, normalizeCandle(models.Candle{Open: 100, High: 101, Low: 99, Close: 100}))
				continue
			}
			candles = append(candles, candles[len(candles)-1])
		}
		start := time.Now()
		for i := range candles {
			candles[i] = normalizeCandle(candles[i])
			candles[i].Timestamp = start.Add(time.Duration(i) * time.Minute)
		}
		return candles
	})
}

// Property: RSI is always within [0, 100].
func TestProperty_RSIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values are within [0, 100]", prop.ForAll(
		func(candles []models.Candle) bool {
			values, err := NewRSI(14).Calculate(candles)
			if err != nil {
				return false
			}
			for _, v := range values[14:] {
				if v < 0 || v > 100 || math.IsNaN(v) {
					return false
				}
			}
			return true
		},
		candleSliceGen(20, 60),
	))

	properties.TestingRun(t)
}

// Property: SMA at every defined index is the mean of the window of closes.
func TestProperty_SMAIsAverageOfPrices(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("SMA is the arithmetic mean of closing prices over the period", prop.ForAll(
		func(candles []models.Candle) bool {
			period := 10
			values, err := NewSMA(period).Calculate(candles)
			if err != nil {
				return false
			}

			closes := closePrices(candles)
			for i := period - 1; i < len(values); i++ {
				expected := mean(closes[i-period+1 : i+1])
				if math.Abs(values[i]-expected) > 1e-6 {
					return false
				}
			}
			return true
		},
		candleSliceGen(15, 50),
	))

	properties.TestingRun(t)
}

// Property: EMA stays within the range of the closes it smooths.
func TestProperty_EMAWithinCloseRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("EMA is bounded by min and max close", prop.ForAll(
		func(candles []models.Candle) bool {
			values, err := NewEMA(12).Calculate(candles)
			if err != nil {
				return false
			}
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, c := range candles {
				lo = math.Min(lo, c.Close)
				hi = math.Max(hi, c.Close)
			}
			for _, v := range values[11:] {
				if v < lo-1e-9 || v > hi+1e-9 {
					return false
				}
			}
			return true
		},
		candleSliceGen(15, 50),
	))

	properties.TestingRun(t)
}

// Property: MACD histogram equals MACD minus signal wherever defined.
func TestProperty_MACDHistogram(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("histogram = macd - signal", prop.ForAll(
		func(candles []models.Candle) bool {
			m := NewMACD(12, 26, 9)
			res, err := m.Calculate(candles)
			if err != nil {
				return false
			}
			for i := m.Period() - 1; i < len(candles); i++ {
				if math.Abs(res.Histogram[i]-(res.MACD[i]-res.Signal[i])) > 1e-9 {
					return false
				}
			}
			return true
		},
		candleSliceGen(40, 80),
	))

	properties.TestingRun(t)
}

func TestRSIMonotonicSeries(t *testing.T) {
	candles := make([]models.Candle, 30)
	for i := range candles {
		p := 100 + float64(i)
		candles[i] = models.Candle{Open: p, High: p, Low: p, Close: p}
	}
	values, err := NewRSI(14).Calculate(candles)
	if err != nil {
		t.Fatal(err)
	}
	if last(values) != 100 {
		t.Errorf("RSI of a rising series = %v, want 100", last(values))
	}

	for i := range candles {
		candles[i].Close = 100
	}
	values, _ = NewRSI(14).Calculate(candles)
	if last(values) != 50 {
		t.Errorf("RSI of a flat series = %v, want 50", last(values))
	}
}

func TestSnapshotInsufficientData(t *testing.T) {
	candles := make([]models.Candle, 30)
	for i := range candles {
		candles[i] = models.Candle{Close: 100 + float64(i%3)}
	}

	snap := Snapshot("AAPL", candles)
	if snap.Symbol != "AAPL" {
		t.Errorf("Symbol = %s", snap.Symbol)
	}
	if snap.SMA20 == 0 || snap.EMA26 == 0 || snap.RSI14 == 0 {
		t.Errorf("short windows should be defined: %+v", snap)
	}
	if snap.SMA50 != 0 {
		t.Errorf("SMA50 with 30 candles = %v, want 0", snap.SMA50)
	}
	if snap.MACDSignal != 0 {
		t.Errorf("MACD signal with 30 candles = %v, want 0", snap.MACDSignal)
	}

	empty := Snapshot("AAPL", nil)
	if empty.SMA20 != 0 || empty.RSI14 != 0 || empty.MACD != 0 {
		t.Errorf("empty snapshot = %+v", empty)
	}
}

func TestInvalidPeriods(t *testing.T) {
	candles := make([]models.Candle, 10)
	if _, err := NewSMA(0).Calculate(candles); err != ErrInvalidPeriod {
		t.Errorf("SMA(0) error = %v", err)
	}
	if _, err := NewMACD(26, 12, 9).Calculate(candles); err != ErrInvalidPeriod {
		t.Errorf("MACD(26,12,9) error = %v", err)
	}
	if _, err := NewEMA(20).Calculate(candles); err != ErrInsufficientData {
		t.Errorf("EMA(20) on 10 candles error = %v", err)
	}
}
