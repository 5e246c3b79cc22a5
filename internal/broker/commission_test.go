package broker

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/instruments"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

func TestCommission(t *testing.T) {
	tests := []struct {
		class models.AssetClass
		qty   float64
		price float64
		want  float64
	}{
		{models.AssetStock, 10, 101, 1.00},
		{models.AssetStock, 1000, 50, 5.00},
		{models.AssetCrypto, 2, 1000, 2.00},
		{models.AssetForex, 100000, 1.1, 2.20},
		{models.AssetFutures, 3, 5000, 6.75},
		{models.AssetOptions, 10, 4.5, 6.50},
		{models.AssetETF, 10, 480, 0.99},
		{models.AssetBond, 10, 95, 0.99},
	}
	for _, tt := range tests {
		if got := Commission(tt.class, tt.qty, tt.price); got != tt.want {
			t.Errorf("Commission(%s, %v, %v) = %v, want %v", tt.class, tt.qty, tt.price, got, tt.want)
		}
	}
}

// Property: Stock commission is never below the $1.00 minimum and grows with
// share count above 200 shares.
func TestProperty_StockCommissionMinimum(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("stock commission = max(1, 0.005 * qty)", prop.ForAll(
		func(qty int, price float64) bool {
			got := Commission(models.AssetStock, float64(qty), price)
			want := math.Max(1, float64(qty)*0.005)
			return got >= 1 && math.Abs(got-want) <= 0.005+1e-9
		},
		gen.IntRange(1, 10000),
		gen.Float64Range(1, 5000),
	))

	properties.TestingRun(t)
}

// Property: Any limit price on the tick grid passes tick validation, and any
// price half a tick off the grid fails it.
func TestProperty_TickAlignment(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	reg := instruments.Default(start)
	symbols := []string{"AAPL", "ES-FUT", "EURUSD", "BTC-PERP"}

	properties.Property("grid prices validate, off-grid prices do not", prop.ForAll(
		func(symbolIdx int, ticks int) bool {
			inst, _ := reg.Get(symbols[symbolIdx])
			req := models.OrderRequest{
				AccountID:   DefaultAccountID,
				Symbol:      inst.Symbol,
				Side:        models.OrderSideBuy,
				Type:        models.OrderTypeLimit,
				Quantity:    inst.MinQuantity,
				TimeInForce: models.TIFGTC,
			}

			req.LimitPrice = priceOnGrid(ticks, inst.TickSize)
			if err := validateOrder(reg, req, start); err != nil {
				return false
			}

			req.LimitPrice = priceOnGrid(ticks, inst.TickSize) + inst.TickSize/2
			err := validateOrder(reg, req, start)
			return err != nil && strings.Contains(err.Error(), "not aligned to tick size")
		},
		gen.IntRange(0, len(symbols)-1),
		gen.IntRange(1, 1000000),
	))

	properties.TestingRun(t)
}

// priceOnGrid builds n*tick without accumulating float error.
func priceOnGrid(n int, tick float64) float64 {
	decimals := 0
	for scaled := tick; math.Abs(scaled-math.Round(scaled)) > 1e-9; scaled *= 10 {
		decimals++
	}
	scale := math.Pow(10, float64(decimals))
	return float64(n) * math.Round(tick*scale) / scale
}
