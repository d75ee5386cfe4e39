package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stock-trade-bot-go/internal/models"
)

func setupStore(t *testing.T) (*Store, uint) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.Account{},
		&models.Position{},
		&models.Trade{},
		&models.Signal{},
		&models.WatchedStock{},
		&models.Setting{},
	)
	assert.NoError(t, err)

	store := NewStore(db)
	account, err := store.CreateAccount(context.Background(), "test", 100000)
	assert.NoError(t, err)
	return store, account.ID
}

func TestAccountSettings_Defaults(t *testing.T) {
	store, accountID := setupStore(t)

	settings, err := store.AccountSettings(context.Background(), accountID)

	assert.NoError(t, err)
	assert.False(t, settings.AutoTradeEnabled)
	assert.Equal(t, 0.75, settings.MinConfidence)
	assert.Equal(t, 2.0, settings.RiskPerTradePct)
	assert.False(t, settings.AllowShortSelling)
	assert.True(t, settings.AlpacaPaperMode)
	assert.False(t, settings.UseAlpaca())
}

func TestAccountSettings_UseAlpacaNeedsBothCredentials(t *testing.T) {
	store, accountID := setupStore(t)
	ctx := context.Background()

	assert.NoError(t, store.SetSetting(ctx, accountID, models.SettingAlpacaAPIKey, "key"))
	settings, err := store.AccountSettings(ctx, accountID)
	assert.NoError(t, err)
	assert.False(t, settings.UseAlpaca())

	assert.NoError(t, store.SetSetting(ctx, accountID, models.SettingAlpacaSecretKey, "secret"))
	settings, err = store.AccountSettings(ctx, accountID)
	assert.NoError(t, err)
	assert.True(t, settings.UseAlpaca())
}

func TestSetSetting_Upserts(t *testing.T) {
	store, accountID := setupStore(t)
	ctx := context.Background()

	assert.NoError(t, store.SetSetting(ctx, accountID, models.SettingMinConfidence, "0.8"))
	assert.NoError(t, store.SetSetting(ctx, accountID, models.SettingMinConfidence, "0.9"))

	value, err := store.GetSetting(ctx, accountID, models.SettingMinConfidence, "0.75")
	assert.NoError(t, err)
	assert.Equal(t, "0.9", value)
}

func TestGetPosition_AbsentIsNil(t *testing.T) {
	store, accountID := setupStore(t)

	position, err := store.GetPosition(context.Background(), accountID, "AAPL")

	assert.NoError(t, err)
	assert.Nil(t, position)
}

func TestOpenPositions_ExcludesSnappedRows(t *testing.T) {
	store, accountID := setupStore(t)
	ctx := context.Background()

	assert.NoError(t, store.SavePosition(ctx, &models.Position{
		AccountID: accountID, Symbol: "AAPL", Quantity: 10, AvgCost: 150,
	}))
	assert.NoError(t, store.SavePosition(ctx, &models.Position{
		AccountID: accountID, Symbol: "TSLA", Quantity: -5, AvgCost: 300,
	}))
	// Snapped-to-zero row persists for book-keeping but is never "open".
	assert.NoError(t, store.SavePosition(ctx, &models.Position{
		AccountID: accountID, Symbol: "MSFT", Quantity: 0, AvgCost: 100,
	}))

	open, err := store.OpenPositions(ctx, accountID)
	assert.NoError(t, err)
	assert.Len(t, open, 2)

	// The zero row is still readable directly.
	msft, err := store.GetPosition(ctx, accountID, "MSFT")
	assert.NoError(t, err)
	assert.NotNil(t, msft)
	assert.Equal(t, 0.0, msft.Quantity)
}

func TestResetAccount(t *testing.T) {
	// Arrange: mutate cash and add positions and trades
	store, accountID := setupStore(t)
	ctx := context.Background()

	account, err := store.GetAccount(ctx, accountID)
	assert.NoError(t, err)
	account.CashBalance = 50000
	assert.NoError(t, store.SaveAccount(ctx, account))
	assert.NoError(t, store.SavePosition(ctx, &models.Position{AccountID: accountID, Symbol: "AAPL", Quantity: 10}))
	assert.NoError(t, store.SaveTrade(ctx, &models.Trade{
		AccountID: accountID, Symbol: "AAPL", Side: models.SideBuy,
		Quantity: 10, Price: 150, TotalValue: 1500, Provider: models.ProviderPaper,
		Timestamp: time.Now(),
	}))

	// Act
	assert.NoError(t, store.ResetAccount(ctx, accountID))

	// Assert: cash restored, positions and trades purged, account survives
	account, err = store.GetAccount(ctx, accountID)
	assert.NoError(t, err)
	assert.Equal(t, 100000.0, account.CashBalance)

	open, err := store.OpenPositions(ctx, accountID)
	assert.NoError(t, err)
	assert.Empty(t, open)

	count, err := store.CountTrades(ctx, accountID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRecentTrades_NewestFirst(t *testing.T) {
	store, accountID := setupStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		assert.NoError(t, store.SaveTrade(ctx, &models.Trade{
			AccountID: accountID, Symbol: "AAPL", Side: models.SideBuy,
			Quantity: float64(i + 1), Price: 150, TotalValue: 150 * float64(i+1),
			Provider: models.ProviderPaper, Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	trades, err := store.RecentTrades(ctx, accountID, 2)
	assert.NoError(t, err)
	assert.Len(t, trades, 2)
	assert.Equal(t, 3.0, trades[0].Quantity)
	assert.Equal(t, 2.0, trades[1].Quantity)
}

func TestWatchlist_AddIdempotentAndRemove(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	assert.NoError(t, store.AddWatchedStock(ctx, "NVDA", "NVIDIA"))
	assert.NoError(t, store.AddWatchedStock(ctx, "NVDA", "NVIDIA"))

	watched, err := store.Watchlist(ctx)
	assert.NoError(t, err)
	assert.Len(t, watched, 1)

	assert.NoError(t, store.RemoveWatchedStock(ctx, "NVDA"))
	watched, err = store.Watchlist(ctx)
	assert.NoError(t, err)
	assert.Empty(t, watched)
}

func TestWithTx_RollbackDiscardsWrites(t *testing.T) {
	store, accountID := setupStore(t)
	ctx := context.Background()

	err := store.DB().Transaction(func(tx *gorm.DB) error {
		txCtx := WithTx(ctx, tx)
		account, err := store.GetAccount(txCtx, accountID)
		assert.NoError(t, err)
		account.CashBalance = 1
		assert.NoError(t, store.SaveAccount(txCtx, account))
		return assert.AnError
	})
	assert.Error(t, err)

	account, err := store.GetAccount(ctx, accountID)
	assert.NoError(t, err)
	assert.Equal(t, 100000.0, account.CashBalance)
}
