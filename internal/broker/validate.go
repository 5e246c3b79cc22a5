package broker

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/errors"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/instruments"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// normalize fills request defaults before validation.
func normalize(req models.OrderRequest) models.OrderRequest {
	if req.AccountID == "" {
		req.AccountID = DefaultAccountID
	}
	if req.TimeInForce == "" {
		req.TimeInForce = models.TIFGTC
	}
	return req
}

// validateOrder checks req against the instrument table and returns every
// violation in one error matching errors.ErrInvalidOrder.
func validateOrder(reg *instruments.Registry, req models.OrderRequest, now time.Time) error {
	v := errors.NewValidationErrors(errors.ErrInvalidOrder)

	inst, known := reg.Get(req.Symbol)
	if !known {
		v.Add("symbol", req.Symbol, errors.ErrSymbolNotFound.Error())
	}

	numbers := []struct {
		field string
		value float64
	}{
		{"quantity", req.Quantity},
		{"limitPrice", req.LimitPrice},
		{"stopPrice", req.StopPrice},
		{"trailingAmount", req.TrailingAmount},
		{"trailingPercent", req.TrailingPercent},
		{"takeProfit", req.TakeProfit},
		{"stopLoss", req.StopLoss},
	}
	for _, n := range numbers {
		if !isFinite(n.value) {
			v.Add(n.field, n.value, "must be a finite number")
		}
	}

	switch req.Side {
	case models.OrderSideBuy, models.OrderSideSell:
	default:
		v.Add("side", req.Side, "must be buy or sell")
	}

	switch req.Type {
	case models.OrderTypeMarket, models.OrderTypeOCO, models.OrderTypeBracket:
	case models.OrderTypeLimit:
		requirePositive(v, "limitPrice", req.LimitPrice)
	case models.OrderTypeStop:
		requirePositive(v, "stopPrice", req.StopPrice)
	case models.OrderTypeStopLimit:
		requirePositive(v, "limitPrice", req.LimitPrice)
		requirePositive(v, "stopPrice", req.StopPrice)
	case models.OrderTypeTrailingStop:
		switch {
		case req.TrailingAmount < 0 || req.TrailingPercent < 0:
			v.Add("trailing", req.TrailingAmount, "must not be negative")
		case req.TrailingAmount == 0 && req.TrailingPercent == 0:
			v.Add("trailing", 0, "trailingAmount or trailingPercent is required")
		case req.TrailingPercent >= 100:
			v.Add("trailingPercent", req.TrailingPercent, "must be below 100")
		}
	default:
		v.Add("type", req.Type, "unknown order type")
	}

	switch req.TimeInForce {
	case models.TIFDay, models.TIFGTC, models.TIFIOC, models.TIFFOK:
	default:
		v.Add("timeInForce", req.TimeInForce, "must be day, gtc, ioc or fok")
	}

	switch {
	case !isFinite(req.Quantity):
	case req.Quantity <= 0:
		v.Add("quantity", req.Quantity, "must be positive")
	case known:
		if req.Quantity < inst.MinQuantity {
			v.Add("quantity", req.Quantity, fmt.Sprintf("below minimum quantity %v", inst.MinQuantity))
		}
		if req.Quantity > inst.MaxQuantity {
			v.Add("quantity", req.Quantity, fmt.Sprintf("above maximum quantity %v", inst.MaxQuantity))
		}
	}

	if known {
		checkTick(v, "limitPrice", req.LimitPrice, inst.TickSize)
		checkTick(v, "stopPrice", req.StopPrice, inst.TickSize)
		checkTick(v, "takeProfit", req.TakeProfit, inst.TickSize)
		checkTick(v, "stopLoss", req.StopLoss, inst.TickSize)

		if req.Type == models.OrderTypeMarket && !inst.IsCrypto() && !reg.IsTradingOpen(req.Symbol, now) {
			v.Add("symbol", req.Symbol, errors.ErrMarketClosed.Error())
		}
	}

	return v.Err()
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func requirePositive(v *errors.ValidationErrors, field string, price float64) {
	if isFinite(price) && price <= 0 {
		v.Add(field, price, "is required and must be positive")
	}
}

// checkTick reports a supplied price that is not a multiple of the tick size.
// Non-positive and non-finite prices are either absent or reported elsewhere.
func checkTick(v *errors.ValidationErrors, field string, price, tick float64) {
	if !isFinite(price) || price <= 0 || tick <= 0 {
		return
	}
	if !decimal.NewFromFloat(price).Mod(decimal.NewFromFloat(tick)).IsZero() {
		v.Add(field, price, fmt.Sprintf("not aligned to tick size %v", tick))
	}
}
