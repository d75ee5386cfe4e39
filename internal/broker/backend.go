package broker

import (
	"context"

	"go.uber.org/zap"

	"stock-trade-bot-go/internal/alpaca"
	"stock-trade-bot-go/internal/ledger"
)

// Order sides at the backend boundary.
const (
	OrderSideBuy  = "buy"
	OrderSideSell = "sell"
)

// AccountSnapshot is the backend's view of balances. For the paper backend
// equity is recomputed from the ledger; for the live backend it is the
// brokerage's authoritative figure.
type AccountSnapshot struct {
	Cash        float64
	Equity      float64
	BuyingPower float64
}

// PositionInfo is one open position as the backend reports it. Quantity,
// MarketValue and CostBasis are signed (negative for shorts).
type PositionInfo struct {
	Symbol           string
	Quantity         float64
	AvgEntryPrice    float64
	CurrentPrice     float64
	MarketValue      float64
	CostBasis        float64
	UnrealizedPnL    float64
	UnrealizedPnLPct float64
}

// OrderRequest is one market order. Price is the simulated fill price for
// the paper backend; the live backend fills at market and ignores it.
type OrderRequest struct {
	Symbol   string
	Quantity float64
	Price    float64
	Side     string
}

// OrderAck acknowledges a submitted (or simulated) order.
type OrderAck struct {
	OrderID string
}

// Backend is the execution surface the trading engine calls through. The
// engine's business logic (margin checks, cost averaging, side labels)
// never branches on which implementation is behind it.
type Backend interface {
	// Name reports the provider label recorded on trades: "Paper" or "Alpaca".
	Name() string
	GetBalance(ctx context.Context) (float64, error)
	GetAccountSnapshot(ctx context.Context) (*AccountSnapshot, error)
	GetPositions(ctx context.Context) ([]PositionInfo, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (*OrderAck, error)
}

// Select picks the execution backend for one account from its stored
// settings: configured brokerage credentials select the live backend,
// otherwise the paper ledger. It is a pure function of the settings and
// runs on every engine construction, since credentials can change
// between requests.
func Select(store *ledger.Store, accountID uint, settings *ledger.AccountSettings, logger *zap.Logger) Backend {
	if settings.UseAlpaca() {
		client := alpaca.NewClient(
			settings.AlpacaAPIKey,
			settings.AlpacaSecretKey,
			settings.AlpacaPaperMode,
			logger,
		)
		return NewAlpacaBackend(client)
	}
	return NewPaperBackend(store, accountID)
}
