package models

import "time"

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket       OrderType = "market"
	OrderTypeLimit        OrderType = "limit"
	OrderTypeStop         OrderType = "stop"
	OrderTypeStopLimit    OrderType = "stop_limit"
	OrderTypeTrailingStop OrderType = "trailing_stop"
	OrderTypeOCO          OrderType = "oco"
	OrderTypeBracket      OrderType = "bracket"
)

// TimeInForce controls how long an unfilled order stands.
type TimeInForce string

const (
	TIFDay TimeInForce = "day"
	TIFGTC TimeInForce = "gtc"
	TIFIOC TimeInForce = "ioc"
	TIFFOK TimeInForce = "fok"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFilled    OrderStatus = "filled"
	OrderPartial   OrderStatus = "partial"
	OrderCancelled OrderStatus = "cancelled"
	OrderRejected  OrderStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderFilled || s == OrderCancelled || s == OrderRejected
}

// OrderRequest is the caller-supplied specification of a new order.
type OrderRequest struct {
	AccountID       string            `json:"accountId"`
	Symbol          string            `json:"symbol"`
	Side            OrderSide         `json:"side"`
	Type            OrderType         `json:"type"`
	Quantity        float64           `json:"quantity"`
	LimitPrice      float64           `json:"limitPrice,omitempty"`
	StopPrice       float64           `json:"stopPrice,omitempty"`
	TrailingAmount  float64           `json:"trailingAmount,omitempty"`
	TrailingPercent float64           `json:"trailingPercent,omitempty"`
	TimeInForce     TimeInForce       `json:"timeInForce,omitempty"`
	TakeProfit      float64           `json:"takeProfit,omitempty"`
	StopLoss        float64           `json:"stopLoss,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// TradingOrder represents a simulated order and its resolution.
type TradingOrder struct {
	ID              string            `json:"id"`
	AccountID       string            `json:"accountId"`
	Symbol          string            `json:"symbol"`
	AssetClass      AssetClass        `json:"assetClass"`
	Side            OrderSide         `json:"side"`
	Type            OrderType         `json:"type"`
	Quantity        float64           `json:"quantity"`
	LimitPrice      float64           `json:"limitPrice,omitempty"`
	StopPrice       float64           `json:"stopPrice,omitempty"`
	TrailingAmount  float64           `json:"trailingAmount,omitempty"`
	TrailingPercent float64           `json:"trailingPercent,omitempty"`
	TimeInForce     TimeInForce       `json:"timeInForce"`
	TakeProfit      float64           `json:"takeProfit,omitempty"`
	StopLoss        float64           `json:"stopLoss,omitempty"`
	Status          OrderStatus       `json:"status"`
	FillPrice       float64           `json:"fillPrice,omitempty"`
	FillQuantity    float64           `json:"fillQuantity,omitempty"`
	Commission      float64           `json:"commission,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	FilledAt        *time.Time        `json:"filledAt,omitempty"`
}

// Clone returns a deep copy safe to hand to callers.
func (o *TradingOrder) Clone() *TradingOrder {
	c := *o
	if o.Metadata != nil {
		c.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			c.Metadata[k] = v
		}
	}
	if o.FilledAt != nil {
		t := *o.FilledAt
		c.FilledAt = &t
	}
	return &c
}

// Position represents a holding in one symbol.
type Position struct {
	Symbol        string     `json:"symbol"`
	AssetClass    AssetClass `json:"assetClass"`
	Quantity      float64    `json:"quantity"`
	AveragePrice  float64    `json:"averagePrice"`
	CurrentPrice  float64    `json:"currentPrice"`
	MarketValue   float64    `json:"marketValue"`
	UnrealizedPnL float64    `json:"unrealizedPnl"`
	RealizedPnL   float64    `json:"realizedPnl"`
	DayPnL        float64    `json:"dayPnl"`
	CostBasis     float64    `json:"costBasis"`
	DayOpenPrice  float64    `json:"dayOpenPrice"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Mark revalues the position at price.
func (p *Position) Mark(price float64, at time.Time) {
	p.CurrentPrice = price
	p.MarketValue = price * p.Quantity
	p.UnrealizedPnL = (price - p.AveragePrice) * p.Quantity
	if p.DayOpenPrice > 0 {
		p.DayPnL = (price - p.DayOpenPrice) * p.Quantity
	}
	p.UpdatedAt = at
}

// AccountType represents the kind of simulated account.
type AccountType string

const (
	AccountCash   AccountType = "cash"
	AccountMargin AccountType = "margin"
)

// TradingAccount is a simulated user's ledger.
type TradingAccount struct {
	ID                    string               `json:"id"`
	Type                  AccountType          `json:"type"`
	TotalValue            float64              `json:"totalValue"`
	CashBalance           float64              `json:"cashBalance"`
	BuyingPower           float64              `json:"buyingPower"`
	DayTradingBuyingPower float64              `json:"dayTradingBuyingPower"`
	MaintenanceMargin     float64              `json:"maintenanceMargin"`
	DayTradeCount         int                  `json:"dayTradeCount"`
	Positions             map[string]*Position `json:"positions"`
	OrderIDs              []string             `json:"orderIds"`
	CreatedAt             time.Time            `json:"createdAt"`
	UpdatedAt             time.Time            `json:"updatedAt"`
}
