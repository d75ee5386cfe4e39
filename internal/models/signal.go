package models

import "time"

// Signal actions.
const (
	ActionBuy   = "BUY"
	ActionSell  = "SELL"
	ActionShort = "SHORT"
	ActionCover = "COVER"
	ActionHold  = "HOLD"
)

// Signal is one AI trading recommendation. The engine treats it as an
// opaque input; a copy is logged per analysis cycle.
type Signal struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AccountID         uint     `gorm:"index" json:"account_id"`
	Symbol            string   `gorm:"index;not null" json:"symbol"`
	Action            string   `gorm:"not null" json:"signal"`
	Confidence        float64  `json:"confidence"`
	TargetPrice       *float64 `json:"target_price,omitempty"`
	StopLoss          *float64 `json:"stop_loss,omitempty"`
	RecommendedWeight float64  `json:"recommended_weight_pct,omitempty"`
	Reasoning         string   `gorm:"type:text" json:"reasoning"`
	ModelUsed         string   `json:"model_used"`

	Timestamp time.Time `json:"timestamp"`
}
