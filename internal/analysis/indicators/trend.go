package indicators

import (
	"fmt"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// SMA calculates Simple Moving Average over closes.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

// Calculate returns one value per candle; entries before the first full
// window are zero.
func (s *SMA) Calculate(candles []models.Candle) ([]float64, error) {
	if s.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < s.period {
		return nil, ErrInsufficientData
	}

	closes := closePrices(candles)
	result := make([]float64, len(closes))

	// Rolling window sum
	window := sum(closes[:s.period])
	result[s.period-1] = window / float64(s.period)
	for i := s.period; i < len(closes); i++ {
		window += closes[i] - closes[i-s.period]
		result[i] = window / float64(s.period)
	}

	return result, nil
}

// EMA calculates Exponential Moving Average over closes, seeded with the SMA
// of the first period.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

func (e *EMA) Period() int {
	return e.period
}

func (e *EMA) Calculate(candles []models.Candle) ([]float64, error) {
	if e.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < e.period {
		return nil, ErrInsufficientData
	}
	return CalculateEMA(closePrices(candles), e.period), nil
}

// CalculateEMA calculates EMA on raw values. It returns nil when values is
// shorter than period.
func CalculateEMA(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}

	result := make([]float64, len(values))
	k := 2.0 / float64(period+1)

	result[period-1] = mean(values[:period])
	for i := period; i < len(values); i++ {
		result[i] = values[i]*k + result[i-1]*(1-k)
	}

	return result
}

// MACD calculates Moving Average Convergence Divergence.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// MACDResult holds the three MACD series.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// NewMACD creates a new MACD indicator. The conventional periods are 12, 26, 9.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

// Period is the number of candles needed for the first signal value.
func (m *MACD) Period() int {
	return m.slowPeriod + m.signalPeriod - 1
}

func (m *MACD) Calculate(candles []models.Candle) (*MACDResult, error) {
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 || m.signalPeriod <= 0 || m.fastPeriod >= m.slowPeriod {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < m.Period() {
		return nil, ErrInsufficientData
	}

	closes := closePrices(candles)
	fast := CalculateEMA(closes, m.fastPeriod)
	slow := CalculateEMA(closes, m.slowPeriod)

	n := len(closes)
	res := &MACDResult{
		MACD:      make([]float64, n),
		Signal:    make([]float64, n),
		Histogram: make([]float64, n),
	}

	start := m.slowPeriod - 1
	for i := start; i < n; i++ {
		res.MACD[i] = fast[i] - slow[i]
	}

	// Signal is the EMA of the MACD line from its first defined value.
	signal := CalculateEMA(res.MACD[start:], m.signalPeriod)
	for i, v := range signal {
		res.Signal[start+i] = v
	}
	for i := m.Period() - 1; i < n; i++ {
		res.Histogram[i] = res.MACD[i] - res.Signal[i]
	}

	return res, nil
}
