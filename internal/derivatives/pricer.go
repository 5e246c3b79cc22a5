package derivatives

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

const (
	// DefaultRiskFreeRate is the annual rate used for option pricing.
	DefaultRiskFreeRate = 0.05
	// MinTimeToExpiry floors T so expiring options still price.
	MinTimeToExpiry = 1.0 / 365.0

	minIV = 0.2
	maxIV = 0.6
)

// Pricer derives DerivativeInfo for futures and options. Implied volatility
// is drawn per request from [0.2, 0.6).
type Pricer struct {
	mu   sync.Mutex
	rng  *rand.Rand
	rate float64
}

// NewPricer creates a pricer drawing volatility from rng.
func NewPricer(rng *rand.Rand) *Pricer {
	return &Pricer{rng: rng, rate: DefaultRiskFreeRate}
}

func (p *Pricer) impliedVol() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return minIV + p.rng.Float64()*(maxIV-minIV)
}

// YearsToExpiry returns the time from now to exp in years, floored at one day.
func YearsToExpiry(exp, now time.Time) float64 {
	t := exp.Sub(now).Hours() / 24 / 365
	return math.Max(t, MinTimeToExpiry)
}

// Option prices an option instrument. price is the option's own simulated
// price and underlying the underlying's last price.
func (p *Pricer) Option(cfg models.InstrumentConfig, price, underlying float64, now time.Time) models.DerivativeInfo {
	spec := cfg.Option
	t := YearsToExpiry(spec.Expiration, now)
	iv := p.impliedVol()

	res := BlackScholes(Inputs{
		Type:   spec.Type,
		Spot:   underlying,
		Strike: spec.Strike,
		T:      t,
		Sigma:  iv,
		Rate:   p.rate,
	})
	greeks := res.Greeks

	return models.DerivativeInfo{
		Symbol:            cfg.Symbol,
		Kind:              models.KindOption,
		UnderlyingPrice:   underlying,
		Price:             price,
		Strike:            spec.Strike,
		OptionType:        spec.Type,
		Expiration:        spec.Expiration,
		DaysToExpiry:      t * 365,
		ImpliedVolatility: iv,
		TheoreticalPrice:  res.Price,
		IntrinsicValue:    res.Intrinsic,
		TimeValue:         res.TimeValue,
		Greeks:            &greeks,
		ContractSize:      spec.ContractSize,
		TickSize:          cfg.TickSize,
	}
}

// Future describes a futures or perpetual instrument. hasUnderlying reports
// whether underlying is a live price; basis is only set when it is.
func (p *Pricer) Future(cfg models.InstrumentConfig, price, underlying float64, hasUnderlying bool, now time.Time) models.DerivativeInfo {
	spec := cfg.Future
	info := models.DerivativeInfo{
		Symbol:            cfg.Symbol,
		Kind:              models.KindFuture,
		Price:             price,
		ContractSize:      spec.ContractSize,
		MarginRequirement: spec.MarginRequirement,
		TickSize:          spec.TickSize,
		Perpetual:         spec.Perpetual,
	}
	if !spec.Perpetual {
		info.Expiration = spec.Expiration
		info.LastTradingDay = spec.LastTradingDay
		info.DaysToExpiry = math.Max(0, spec.LastTradingDay.Sub(now).Hours()/24)
	}
	if hasUnderlying {
		info.UnderlyingPrice = underlying
		info.Basis = price - underlying
	}
	return info
}
