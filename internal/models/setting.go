package models

// Per-account setting keys.
const (
	SettingAutoTradeEnabled  = "auto_trade_enabled"
	SettingMinConfidence     = "auto_trade_min_confidence"
	SettingRiskPerTradePct   = "risk_per_trade_pct"
	SettingAllowShortSelling = "allow_short_selling"
	SettingAlpacaAPIKey      = "alpaca_api_key"
	SettingAlpacaSecretKey   = "alpaca_secret_key"
	SettingAlpacaPaperMode   = "alpaca_paper_mode"
)

// Setting is one per-account key-value configuration entry. Brokerage
// credentials and auto-trade flags live here rather than in the config
// file so they can change between scheduler cycles.
type Setting struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	AccountID uint   `gorm:"uniqueIndex:idx_account_key;not null" json:"account_id"`
	Key       string `gorm:"uniqueIndex:idx_account_key;not null" json:"key"`
	Value     string `gorm:"type:text" json:"value"`
}
