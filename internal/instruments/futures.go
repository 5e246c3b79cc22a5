package instruments

import "github.com/danielweickdag/kairo-quantum-sub006/internal/models"

// futuresSpecs is keyed by contract root. MarginRequirement is a fraction of notional.
var futuresSpecs = map[string]models.FutureSpec{
	"ES":  {Root: "ES", ContractSize: 50, MarginRequirement: 0.05, TickSize: 0.25},
	"NQ":  {Root: "NQ", ContractSize: 20, MarginRequirement: 0.06, TickSize: 0.25},
	"CL":  {Root: "CL", ContractSize: 1000, MarginRequirement: 0.08, TickSize: 0.01},
	"GC":  {Root: "GC", ContractSize: 100, MarginRequirement: 0.06, TickSize: 0.1},
	"BTC": {Root: "BTC", Underlying: "BTCUSD", ContractSize: 1, MarginRequirement: 0.1, TickSize: 0.5},
	"ETH": {Root: "ETH", Underlying: "ETHUSD", ContractSize: 1, MarginRequirement: 0.1, TickSize: 0.05},
}

// FuturesSpec returns the static contract spec of root, or a generic spec
// for unknown roots.
func FuturesSpec(root string) models.FutureSpec {
	if spec, ok := futuresSpecs[root]; ok {
		return spec
	}
	return models.FutureSpec{
		Root:              root,
		ContractSize:      1,
		MarginRequirement: 0.1,
		TickSize:          0.01,
	}
}
