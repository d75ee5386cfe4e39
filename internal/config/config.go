package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
// Per-account runtime settings (auto-trade flags, brokerage credentials)
// live in the database settings table, not here: they can change between
// scheduler cycles without a restart.
type Config struct {
	Trading    Trading    `mapstructure:"trading"`
	MarketData MarketData `mapstructure:"market_data"`
	AI         AI         `mapstructure:"ai"`
	Telegram   Telegram   `mapstructure:"telegram"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
}

// Trading holds the scheduler and account defaults.
type Trading struct {
	InitialCash     float64  `mapstructure:"initial_cash"`
	Watchlist       []string `mapstructure:"watchlist"`
	RefreshInterval int      `mapstructure:"refresh_interval"` // seconds between price refresh cycles
	TradeInterval   int      `mapstructure:"trade_interval"`   // seconds between auto-trade cycles
	SymbolDelay     int      `mapstructure:"symbol_delay"`     // seconds between per-symbol AI calls
}

// MarketData holds the configuration for the quote provider.
type MarketData struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	StalenessSecs  int     `mapstructure:"staleness_seconds"`
}

// AI holds the configuration for the signal generator.
type AI struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Telegram holds the configuration for trade notifications.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("trading.initial_cash", 100000.0)
	viper.SetDefault("trading.watchlist", []string{
		"NVDA", "AAPL", "MSFT", "GOOGL", "AMZN", "META", "TSLA", "AMD", "SPY", "QQQ",
	})
	viper.SetDefault("trading.refresh_interval", 30)
	viper.SetDefault("trading.trade_interval", 3600)
	viper.SetDefault("trading.symbol_delay", 5)
	viper.SetDefault("market_data.base_url", "https://query1.finance.yahoo.com")
	viper.SetDefault("market_data.rate_limit", 5) // requests per second
	viper.SetDefault("market_data.rate_limit_burst", 2)
	viper.SetDefault("market_data.staleness_seconds", 300)
	viper.SetDefault("ai.base_url", "https://api.deepseek.com/v1")
	viper.SetDefault("ai.model", "deepseek-reasoner")
	viper.SetDefault("ai.timeout_seconds", 120)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "trading_platform.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

// RefreshIntervalDuration returns the price refresh cadence as a duration.
func (t Trading) RefreshIntervalDuration() time.Duration {
	return time.Duration(t.RefreshInterval) * time.Second
}

// TradeIntervalDuration returns the auto-trade cadence as a duration.
func (t Trading) TradeIntervalDuration() time.Duration {
	return time.Duration(t.TradeInterval) * time.Second
}

// SymbolDelayDuration returns the per-symbol pacing delay as a duration.
func (t Trading) SymbolDelayDuration() time.Duration {
	return time.Duration(t.SymbolDelay) * time.Second
}

// Staleness returns the quote cache staleness window as a duration.
func (m MarketData) Staleness() time.Duration {
	return time.Duration(m.StalenessSecs) * time.Second
}

// Timeout returns the AI request timeout as a duration.
func (a AI) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}
