package models

import "time"

// OptionGreeks represents option Greeks.
type OptionGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// DerivativeInfo is the derived pricing snapshot for a futures or options symbol.
type DerivativeInfo struct {
	Symbol            string         `json:"symbol"`
	Kind              InstrumentKind `json:"kind"`
	UnderlyingPrice   float64        `json:"underlyingPrice"`
	Price             float64        `json:"price"`
	Strike            float64        `json:"strike,omitempty"`
	OptionType        OptionType     `json:"optionType,omitempty"`
	Expiration        time.Time      `json:"expiration,omitempty"`
	DaysToExpiry      float64        `json:"daysToExpiry"`
	ImpliedVolatility float64        `json:"impliedVolatility,omitempty"`
	TheoreticalPrice  float64        `json:"theoreticalPrice,omitempty"`
	IntrinsicValue    float64        `json:"intrinsicValue,omitempty"`
	TimeValue         float64        `json:"timeValue,omitempty"`
	Greeks            *OptionGreeks  `json:"greeks,omitempty"`
	ContractSize      float64        `json:"contractSize"`
	MarginRequirement float64        `json:"marginRequirement,omitempty"`
	TickSize          float64        `json:"tickSize,omitempty"`
	LastTradingDay    time.Time      `json:"lastTradingDay,omitempty"`
	Basis             float64        `json:"basis,omitempty"`
	Perpetual         bool           `json:"perpetual,omitempty"`
}
