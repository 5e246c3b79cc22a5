package models

import "time"

// TradeSide is the aggressor side of a tape entry.
type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// Trade represents a tape entry.
type Trade struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Side      TradeSide `json:"side"`
	Timestamp time.Time `json:"timestamp"`
}
