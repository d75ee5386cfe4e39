package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stock-trade-bot-go/internal/config"
	"stock-trade-bot-go/internal/models"
)

// NewDatabase opens the sqlite ledger and migrates the schema.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	// WAL mode so the UI can read while the scheduler writes.
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Position{},
		&models.Trade{},
		&models.Signal{},
		&models.WatchedStock{},
		&models.Setting{},
	); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return db, nil
}

// Seed creates the default account, its settings, and the configured
// watchlist if they do not exist yet. Existing rows are left untouched.
func Seed(db *gorm.DB, cfg *config.Config) error {
	account := models.Account{Name: "default"}
	if err := db.Where(models.Account{Name: "default"}).
		Attrs(models.Account{
			CashBalance: cfg.Trading.InitialCash,
			InitialCash: cfg.Trading.InitialCash,
		}).
		FirstOrCreate(&account).Error; err != nil {
		return fmt.Errorf("failed to seed default account: %w", err)
	}

	defaults := map[string]string{
		models.SettingAutoTradeEnabled:  "false",
		models.SettingMinConfidence:     "0.75",
		models.SettingRiskPerTradePct:   "2.0",
		models.SettingAllowShortSelling: "false",
		models.SettingAlpacaAPIKey:      "",
		models.SettingAlpacaSecretKey:   "",
		models.SettingAlpacaPaperMode:   "true",
	}
	for key, value := range defaults {
		setting := models.Setting{AccountID: account.ID, Key: key}
		if err := db.Where(models.Setting{AccountID: account.ID, Key: key}).
			Attrs(models.Setting{Value: value}).
			FirstOrCreate(&setting).Error; err != nil {
			return fmt.Errorf("failed to seed setting %q: %w", key, err)
		}
	}

	for _, symbol := range cfg.Trading.Watchlist {
		watched := models.WatchedStock{Symbol: symbol}
		if err := db.Where(models.WatchedStock{Symbol: symbol}).
			FirstOrCreate(&watched).Error; err != nil {
			return fmt.Errorf("failed to seed watchlist symbol %q: %w", symbol, err)
		}
	}

	return nil
}
