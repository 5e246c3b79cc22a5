// Package indicators provides technical indicator calculations on candle series.
package indicators

import (
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// Indicator defines the interface for single-value technical indicators.
type Indicator interface {
	Name() string
	Calculate(candles []models.Candle) ([]float64, error)
	Period() int
}

var (
	sma20 = NewSMA(20)
	sma50 = NewSMA(50)
	ema12 = NewEMA(12)
	ema26 = NewEMA(26)
	rsi14 = NewRSI(14)
	macd  = NewMACD(12, 26, 9)
)

// Latest returns the most recent value of ind, or 0 when there is not
// enough data.
func Latest(ind Indicator, candles []models.Candle) float64 {
	values, err := ind.Calculate(candles)
	if err != nil {
		return 0
	}
	return last(values)
}

// Snapshot computes the standard indicator set from candles. Fields whose
// indicator lacks data are left at zero.
func Snapshot(symbol string, candles []models.Candle) models.TechnicalIndicators {
	out := models.TechnicalIndicators{
		Symbol: symbol,
		SMA20:  Latest(sma20, candles),
		SMA50:  Latest(sma50, candles),
		EMA12:  Latest(ema12, candles),
		EMA26:  Latest(ema26, candles),
		RSI14:  Latest(rsi14, candles),
	}

	if res, err := macd.Calculate(candles); err == nil {
		out.MACD = last(res.MACD)
		out.MACDSignal = last(res.Signal)
	}

	return out
}
