// Package models provides domain models for the simulated market.
package models

import (
	"time"
)

// AssetClass represents the asset class of an instrument.
type AssetClass string

const (
	AssetSpot    AssetClass = "spot"
	AssetFutures AssetClass = "futures"
	AssetOptions AssetClass = "options"
	AssetForex   AssetClass = "forex"
	AssetStock   AssetClass = "stock"
	AssetCrypto  AssetClass = "crypto"
	AssetETF     AssetClass = "etf"
	AssetBond    AssetClass = "bond"
)

// Valid reports whether the asset class is known.
func (a AssetClass) Valid() bool {
	switch a {
	case AssetSpot, AssetFutures, AssetOptions, AssetForex, AssetStock, AssetCrypto, AssetETF, AssetBond:
		return true
	}
	return false
}

// Exchange represents a venue tag.
type Exchange string

const (
	NASDAQ  Exchange = "NASDAQ"
	NYSE    Exchange = "NYSE"
	CME     Exchange = "CME"
	CBOE    Exchange = "CBOE"
	Binance Exchange = "BINANCE"
	FXCM    Exchange = "FXCM"
)

// Ticker is the live last-price-and-change snapshot for a symbol.
type Ticker struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume24h     float64   `json:"volume24h"`
	High24h       float64   `json:"high24h"`
	Low24h        float64   `json:"low24h"`
	MarketCap     float64   `json:"marketCap,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Candle represents OHLCV data for a time bucket.
type Candle struct {
	Timestamp time.Time `json:"timestamp" csv:"timestamp"`
	Open      float64   `json:"open" csv:"open"`
	High      float64   `json:"high" csv:"high"`
	Low       float64   `json:"low" csv:"low"`
	Close     float64   `json:"close" csv:"close"`
	Volume    float64   `json:"volume" csv:"volume"`
}

// OrderBookLevel is one rung of the bid/ask ladder.
type OrderBookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
	Total float64 `json:"total"`
}

// OrderBook holds bids sorted descending and asks sorted ascending by price.
type OrderBook struct {
	Symbol    string           `json:"symbol"`
	Bids      []OrderBookLevel `json:"bids"`
	Asks      []OrderBookLevel `json:"asks"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// BestBid returns the top bid price, or 0 when the side is empty.
func (b OrderBook) BestBid() float64 {
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// BestAsk returns the top ask price, or 0 when the side is empty.
func (b OrderBook) BestAsk() float64 {
	if len(b.Asks) == 0 {
		return 0
	}
	return b.Asks[0].Price
}

// Spread returns best ask minus best bid.
func (b OrderBook) Spread() float64 {
	return b.BestAsk() - b.BestBid()
}

// Stats24h is the rolling 24h aggregate computed from candles.
type Stats24h struct {
	Symbol     string  `json:"symbol"`
	Volume     float64 `json:"volume"`
	TradeCount int     `json:"tradeCount"`
	Open       float64 `json:"open"`
	Close      float64 `json:"close"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
}

// TechnicalIndicators holds the derived analytics for a symbol.
type TechnicalIndicators struct {
	Symbol     string  `json:"symbol"`
	SMA20      float64 `json:"sma20"`
	SMA50      float64 `json:"sma50"`
	EMA12      float64 `json:"ema12"`
	EMA26      float64 `json:"ema26"`
	RSI14      float64 `json:"rsi14"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macdSignal"`
}
