package models

import "time"

// Trade sides. COVER and SHORT are derived by the engine from the existing
// position, never supplied by callers.
const (
	SideBuy   = "BUY"
	SideSell  = "SELL"
	SideShort = "SHORT"
	SideCover = "COVER"
)

// Execution providers recorded on each trade.
const (
	ProviderPaper  = "Paper"
	ProviderAlpaca = "Alpaca"
)

// Trade is an immutable append-only record of one executed fill.
type Trade struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AccountID    uint     `gorm:"index;not null" json:"account_id"`
	Symbol       string   `gorm:"index;not null" json:"symbol"`
	Side         string   `gorm:"not null" json:"side"`
	Quantity     float64  `gorm:"not null" json:"quantity"`
	Price        float64  `gorm:"not null" json:"price"`
	TotalValue   float64  `gorm:"not null" json:"total_value"`
	Provider     string   `gorm:"not null" json:"provider"`
	AITriggered  bool     `gorm:"default:false" json:"ai_triggered"`
	AIConfidence *float64 `json:"ai_confidence,omitempty"`
	Reasoning    string   `gorm:"type:text" json:"reasoning,omitempty"`

	Timestamp time.Time `gorm:"index" json:"timestamp"`
}
