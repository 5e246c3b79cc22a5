package automation

import (
	"math"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// equalsEpsilon is the tolerance of the equals comparison.
const equalsEpsilon = 0.01

// Outcome is the result of evaluating one trigger.
type Outcome int

const (
	NotFired Outcome = iota
	Fired
	// Unsupported marks trigger kinds that are accepted but never evaluated.
	Unsupported
)

func (o Outcome) String() string {
	switch o {
	case Fired:
		return "fired"
	case Unsupported:
		return "unsupported"
	default:
		return "not_fired"
	}
}

// Quotes supplies last prices to price alerts.
type Quotes interface {
	Ticker(symbol string) (models.Ticker, bool)
}

// Portfolio supplies positions to portfolio thresholds.
type Portfolio interface {
	Positions(accountID string) []models.Position
}

// Evaluate decides whether trigger fires against the current market and
// portfolio.
func Evaluate(trigger models.WorkflowTrigger, quotes Quotes, portfolio Portfolio) Outcome {
	cond := trigger.Condition

	switch trigger.Kind {
	case models.TriggerPriceAlert:
		ticker, ok := quotes.Ticker(cond.Symbol)
		if !ok {
			return NotFired
		}
		return outcome(compare(ticker.Price, cond.Comparison, cond.Price))

	case models.TriggerPortfolioThreshold:
		var pnl float64
		for _, pos := range portfolio.Positions(cond.AccountID) {
			pnl += pos.UnrealizedPnL
		}

		var value float64
		switch cond.PortfolioMetric {
		case models.MetricUnrealizedLoss:
			value = -pnl
		case models.MetricUnrealizedProfit, models.MetricTotalPnL:
			value = pnl
		default:
			return NotFired
		}
		return outcome(compare(value, cond.Comparison, cond.ThresholdValue))

	default:
		return Unsupported
	}
}

// compare applies a strict above/below or an epsilon equals.
func compare(value float64, cmp models.Comparison, threshold float64) bool {
	switch cmp {
	case models.CompareAbove:
		return value > threshold
	case models.CompareBelow:
		return value < threshold
	case models.CompareEquals:
		return math.Abs(value-threshold) <= equalsEpsilon
	}
	return false
}

func outcome(fired bool) Outcome {
	if fired {
		return Fired
	}
	return NotFired
}
