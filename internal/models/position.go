package models

import (
	"math"
	"time"
)

// QuantityEpsilon is the share count below which a position is snapped to
// exactly zero. Zero rows persist for book-keeping but are excluded from
// open-position queries.
const QuantityEpsilon = 1e-4

// Position is the (account, symbol) holding. Quantity is signed:
// positive = long, negative = short.
type Position struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AccountID     uint      `gorm:"uniqueIndex:idx_account_symbol;not null" json:"account_id"`
	Symbol        string    `gorm:"uniqueIndex:idx_account_symbol;index;not null" json:"symbol"`
	Quantity      float64   `json:"quantity"`
	AvgCost       float64   `json:"avg_cost"`
	CurrentPrice  float64   `json:"current_price"`
	UnrealizedPnL float64   `gorm:"column:unrealized_pnl" json:"unrealized_pnl"`
	LastUpdated   time.Time `json:"last_updated"`
}

// IsOpen reports whether the position holds a non-zero quantity.
func (p *Position) IsOpen() bool {
	return math.Abs(p.Quantity) >= QuantityEpsilon
}

// MarketValue is the signed market value; negative for shorts.
func (p *Position) MarketValue() float64 {
	return p.Quantity * p.CurrentPrice
}

// ComputeUnrealizedPnL is (current - avg_cost) * quantity, which is
// sign-correct for shorts: a falling price on a negative quantity yields
// a positive P&L.
func (p *Position) ComputeUnrealizedPnL() float64 {
	return (p.CurrentPrice - p.AvgCost) * p.Quantity
}
