package ledger

import (
	"context"
	"strconv"

	"stock-trade-bot-go/internal/models"
)

// AccountSettings is the typed view of an account's key-value settings,
// loaded fresh on every engine construction so credential or flag changes
// take effect on the next cycle.
type AccountSettings struct {
	AutoTradeEnabled  bool
	MinConfidence     float64
	RiskPerTradePct   float64
	AllowShortSelling bool
	AlpacaAPIKey      string
	AlpacaSecretKey   string
	AlpacaPaperMode   bool
}

// AccountSettings loads the typed settings for one account, applying
// defaults for unset keys.
func (s *Store) AccountSettings(ctx context.Context, accountID uint) (*AccountSettings, error) {
	settings := &AccountSettings{}

	enabled, err := s.GetSetting(ctx, accountID, models.SettingAutoTradeEnabled, "false")
	if err != nil {
		return nil, err
	}
	settings.AutoTradeEnabled = enabled == "true"

	minConf, err := s.GetSetting(ctx, accountID, models.SettingMinConfidence, "0.75")
	if err != nil {
		return nil, err
	}
	settings.MinConfidence = parseFloatOr(minConf, 0.75)

	risk, err := s.GetSetting(ctx, accountID, models.SettingRiskPerTradePct, "2.0")
	if err != nil {
		return nil, err
	}
	settings.RiskPerTradePct = parseFloatOr(risk, 2.0)

	allowShort, err := s.GetSetting(ctx, accountID, models.SettingAllowShortSelling, "false")
	if err != nil {
		return nil, err
	}
	settings.AllowShortSelling = allowShort == "true"

	if settings.AlpacaAPIKey, err = s.GetSetting(ctx, accountID, models.SettingAlpacaAPIKey, ""); err != nil {
		return nil, err
	}
	if settings.AlpacaSecretKey, err = s.GetSetting(ctx, accountID, models.SettingAlpacaSecretKey, ""); err != nil {
		return nil, err
	}
	paper, err := s.GetSetting(ctx, accountID, models.SettingAlpacaPaperMode, "true")
	if err != nil {
		return nil, err
	}
	settings.AlpacaPaperMode = paper == "true"

	return settings, nil
}

// UseAlpaca reports whether live-brokerage credentials are configured.
func (s *AccountSettings) UseAlpaca() bool {
	return s.AlpacaAPIKey != "" && s.AlpacaSecretKey != ""
}

func parseFloatOr(s string, def float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}
