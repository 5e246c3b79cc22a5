// Package derivatives prices options with Black-Scholes and derives futures
// contract metadata.
package derivatives

import (
	"math"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// Abramowitz and Stegun formula 7.1.26 coefficients.
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// Erf approximates the error function with a maximum error of about 1.5e-7.
func Erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}
	t := 1.0 / (1.0 + erfP*x)
	y := 1.0 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)
	return sign * y
}

// NormCDF is the standard normal cumulative distribution.
func NormCDF(x float64) float64 {
	return 0.5 * (1 + Erf(x/math.Sqrt2))
}

// NormPDF is the standard normal density.
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// Inputs are the Black-Scholes parameters. T is in years, Sigma and Rate are
// annualized decimals.
type Inputs struct {
	Type   models.OptionType
	Spot   float64
	Strike float64
	T      float64
	Sigma  float64
	Rate   float64
}

// Result is a Black-Scholes valuation. Theta is per calendar day, Vega and
// Rho are per one percentage point.
type Result struct {
	Price     float64
	Intrinsic float64
	TimeValue float64
	Greeks    models.OptionGreeks
}

// Intrinsic returns max(0, S-K) for calls and max(0, K-S) for puts.
func Intrinsic(typ models.OptionType, spot, strike float64) float64 {
	if typ == models.OptionPut {
		return math.Max(0, strike-spot)
	}
	return math.Max(0, spot-strike)
}

// BlackScholes values a European option. Degenerate inputs (non-positive
// spot, strike, T or sigma) return intrinsic value with zero Greeks.
func BlackScholes(in Inputs) Result {
	intrinsic := Intrinsic(in.Type, in.Spot, in.Strike)
	if in.Spot <= 0 || in.Strike <= 0 || in.T <= 0 || in.Sigma <= 0 {
		return Result{Price: intrinsic, Intrinsic: intrinsic}
	}

	sqrtT := math.Sqrt(in.T)
	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate+0.5*in.Sigma*in.Sigma)*in.T) / (in.Sigma * sqrtT)
	d2 := d1 - in.Sigma*sqrtT
	discount := math.Exp(-in.Rate * in.T)
	pdf := NormPDF(d1)

	var res Result
	common := -in.Spot * pdf * in.Sigma / (2 * sqrtT)

	if in.Type == models.OptionPut {
		res.Price = in.Strike*discount*NormCDF(-d2) - in.Spot*NormCDF(-d1)
		res.Greeks.Delta = NormCDF(d1) - 1
		res.Greeks.Theta = (common + in.Rate*in.Strike*discount*NormCDF(-d2)) / 365
		res.Greeks.Rho = -in.Strike * in.T * discount * NormCDF(-d2) / 100
	} else {
		res.Price = in.Spot*NormCDF(d1) - in.Strike*discount*NormCDF(d2)
		res.Greeks.Delta = NormCDF(d1)
		res.Greeks.Theta = (common - in.Rate*in.Strike*discount*NormCDF(d2)) / 365
		res.Greeks.Rho = in.Strike * in.T * discount * NormCDF(d2) / 100
	}
	res.Greeks.Gamma = pdf / (in.Spot * in.Sigma * sqrtT)
	res.Greeks.Vega = in.Spot * pdf * sqrtT / 100

	if res.Price < 0 {
		res.Price = 0
	}
	res.Intrinsic = intrinsic
	res.TimeValue = math.Max(0, res.Price-intrinsic)
	return res
}
