package models

import "time"

// InstrumentKind discriminates the derivative shape of an instrument.
type InstrumentKind string

const (
	KindSpot   InstrumentKind = "spot"
	KindFuture InstrumentKind = "future"
	KindOption InstrumentKind = "option"
)

// OptionType is call or put.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// TradingHours is the daily session window in a named timezone.
// An empty window means the instrument trades around the clock.
type TradingHours struct {
	Start    string `json:"start"` // HH:MM
	End      string `json:"end"`   // HH:MM
	Timezone string `json:"timezone"`
}

// Always reports whether the window is unbounded.
func (h TradingHours) Always() bool {
	return h.Start == "" && h.End == ""
}

// FutureSpec carries futures and perpetual contract fields.
type FutureSpec struct {
	Root              string    `json:"root"`
	Underlying        string    `json:"underlying,omitempty"`
	ContractSize      float64   `json:"contractSize"`
	Expiration        time.Time `json:"expiration,omitempty"`
	LastTradingDay    time.Time `json:"lastTradingDay,omitempty"`
	MarginRequirement float64   `json:"marginRequirement"`
	TickSize          float64   `json:"tickSize"`
	Perpetual         bool      `json:"perpetual"`
}

// OptionSpec carries option contract fields.
type OptionSpec struct {
	Underlying   string     `json:"underlying"`
	Type         OptionType `json:"type"`
	Strike       float64    `json:"strike"`
	Expiration   time.Time  `json:"expiration"`
	ContractSize float64    `json:"contractSize"`
}

// InstrumentConfig is the immutable per-symbol configuration.
// Exactly one of Future and Option is set when Kind is not KindSpot.
type InstrumentConfig struct {
	Symbol            string         `json:"symbol"`
	Name              string         `json:"name"`
	AssetClass        AssetClass     `json:"assetClass"`
	Exchange          Exchange       `json:"exchange"`
	TickSize          float64        `json:"tickSize"`
	MinQuantity       float64        `json:"minQuantity"`
	MaxQuantity       float64        `json:"maxQuantity"`
	Hours             TradingHours   `json:"tradingHours"`
	MarginRequirement float64        `json:"marginRequirement,omitempty"`
	BasePrice         float64        `json:"basePrice"`
	Volatility        float64        `json:"volatility"`
	MarketCap         float64        `json:"marketCap,omitempty"`
	Kind              InstrumentKind `json:"kind"`
	Future            *FutureSpec    `json:"future,omitempty"`
	Option            *OptionSpec    `json:"option,omitempty"`
}

// IsCrypto reports whether the instrument trades 24/7 as a crypto asset.
func (c InstrumentConfig) IsCrypto() bool {
	return c.AssetClass == AssetCrypto
}
