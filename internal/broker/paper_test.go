package broker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stock-trade-bot-go/internal/ledger"
	"stock-trade-bot-go/internal/models"
)

func setupPaperTest(t *testing.T) (*ledger.Store, *PaperBackend, uint) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	err = db.AutoMigrate(&models.Account{}, &models.Position{}, &models.Trade{})
	assert.NoError(t, err)

	store := ledger.NewStore(db)
	account, err := store.CreateAccount(context.Background(), "test", 100000)
	assert.NoError(t, err)

	return store, NewPaperBackend(store, account.ID), account.ID
}

func TestPaperBackend_SnapshotWithMixedPositions(t *testing.T) {
	// Arrange: one long, one short, one snapped-to-zero row
	store, backend, accountID := setupPaperTest(t)
	ctx := context.Background()
	assert.NoError(t, store.SavePosition(ctx, &models.Position{
		AccountID: accountID, Symbol: "AAPL", Quantity: 10, AvgCost: 150, CurrentPrice: 160,
	}))
	assert.NoError(t, store.SavePosition(ctx, &models.Position{
		AccountID: accountID, Symbol: "TSLA", Quantity: -5, AvgCost: 300, CurrentPrice: 280,
	}))
	assert.NoError(t, store.SavePosition(ctx, &models.Position{
		AccountID: accountID, Symbol: "MSFT", Quantity: 0, AvgCost: 100, CurrentPrice: 120,
	}))

	// Act
	snapshot, err := backend.GetAccountSnapshot(ctx)
	assert.NoError(t, err)
	positions, err := backend.GetPositions(ctx)
	assert.NoError(t, err)

	cash, err := backend.GetBalance(ctx)
	assert.NoError(t, err)
	assert.InDelta(t, 100000, cash, 1e-9)

	// Assert: equity = 100000 + 10*160 - 5*280; zero row excluded
	assert.InDelta(t, 100000, snapshot.Cash, 1e-9)
	assert.InDelta(t, 100200, snapshot.Equity, 1e-9)
	assert.InDelta(t, 200200, snapshot.BuyingPower, 1e-9)
	assert.Len(t, positions, 2)

	bySymbol := map[string]PositionInfo{}
	for _, p := range positions {
		bySymbol[p.Symbol] = p
	}
	assert.InDelta(t, 100, bySymbol["AAPL"].UnrealizedPnL, 1e-9)  // (160-150)*10
	assert.InDelta(t, 100, bySymbol["TSLA"].UnrealizedPnL, 1e-9)  // (280-300)*-5
	assert.InDelta(t, -1400, bySymbol["TSLA"].MarketValue, 1e-9)
}

func TestPaperBackend_SubmitOrderCashDelta(t *testing.T) {
	store, backend, accountID := setupPaperTest(t)
	ctx := context.Background()

	ack, err := backend.SubmitOrder(ctx, OrderRequest{Symbol: "AAPL", Quantity: 10, Price: 150, Side: OrderSideBuy})
	assert.NoError(t, err)
	assert.NotEmpty(t, ack.OrderID)

	account, err := store.GetAccount(ctx, accountID)
	assert.NoError(t, err)
	assert.InDelta(t, 98500, account.CashBalance, 1e-9)

	_, err = backend.SubmitOrder(ctx, OrderRequest{Symbol: "AAPL", Quantity: 10, Price: 160, Side: OrderSideSell})
	assert.NoError(t, err)

	account, err = store.GetAccount(ctx, accountID)
	assert.NoError(t, err)
	assert.InDelta(t, 100100, account.CashBalance, 1e-9)
}

func TestPaperBackend_SubmitOrderRejectsBadInput(t *testing.T) {
	_, backend, _ := setupPaperTest(t)
	ctx := context.Background()

	_, err := backend.SubmitOrder(ctx, OrderRequest{Symbol: "AAPL", Quantity: 0, Price: 150, Side: OrderSideBuy})
	assert.Error(t, err)
	_, err = backend.SubmitOrder(ctx, OrderRequest{Symbol: "AAPL", Quantity: 1, Price: 150, Side: "hold"})
	assert.Error(t, err)
}

func TestSelect_PaperWithoutCredentials(t *testing.T) {
	store, _, accountID := setupPaperTest(t)

	backend := Select(store, accountID, &ledger.AccountSettings{}, zap.NewNop())
	assert.Equal(t, models.ProviderPaper, backend.Name())

	backend = Select(store, accountID, &ledger.AccountSettings{
		AlpacaAPIKey:    "key",
		AlpacaSecretKey: "secret",
		AlpacaPaperMode: true,
	}, zap.NewNop())
	assert.Equal(t, models.ProviderAlpaca, backend.Name())
}
