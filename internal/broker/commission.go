package broker

import (
	"github.com/shopspring/decimal"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

var (
	stockPerShare  = decimal.RequireFromString("0.005")
	stockMinimum   = decimal.RequireFromString("1.00")
	cryptoRate     = decimal.RequireFromString("0.001")
	forexRate      = decimal.RequireFromString("0.00002")
	futuresPerUnit = decimal.RequireFromString("2.25")
	optionsPerUnit = decimal.RequireFromString("0.65")
	flatCommission = decimal.RequireFromString("0.99")
)

// Commission returns the fee for filling quantity at price, rounded to cents.
//
//	stock:   max($1.00, $0.005 per share)
//	crypto:  0.1% of notional
//	forex:   0.002% of notional
//	futures: $2.25 per contract
//	options: $0.65 per contract
//	other:   $0.99 flat
func Commission(class models.AssetClass, quantity, price float64) float64 {
	qty := decimal.NewFromFloat(quantity)
	notional := qty.Mul(decimal.NewFromFloat(price))

	var fee decimal.Decimal
	switch class {
	case models.AssetStock:
		fee = decimal.Max(stockMinimum, qty.Mul(stockPerShare))
	case models.AssetCrypto:
		fee = notional.Mul(cryptoRate)
	case models.AssetForex:
		fee = notional.Mul(forexRate)
	case models.AssetFutures:
		fee = qty.Mul(futuresPerUnit)
	case models.AssetOptions:
		fee = qty.Mul(optionsPerUnit)
	default:
		fee = flatCommission
	}
	return fee.Round(2).InexactFloat64()
}
