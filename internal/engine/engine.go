package engine

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"stock-trade-bot-go/internal/broker"
	"stock-trade-bot-go/internal/ledger"
	"stock-trade-bot-go/internal/models"
)

// MinTradableQuantity is the smallest share count an order may carry.
const MinTradableQuantity = 0.001

// Engine executes trades for exactly one account. It is constructed per
// request or per scheduler cycle and never shared across accounts; callers
// guarantee at most one in-flight operation per account.
type Engine struct {
	db       *gorm.DB
	store    *ledger.Store
	account  *models.Account
	settings *ledger.AccountSettings
	backend  broker.Backend
	logger   *zap.Logger
}

// New builds an engine for one account. Backend selection happens here on
// every construction, since stored brokerage credentials can change between
// requests.
func New(ctx context.Context, db *gorm.DB, accountID uint, logger *zap.Logger) (*Engine, error) {
	store := ledger.NewStore(db)

	account, err := store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	settings, err := store.AccountSettings(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &Engine{
		db:       db,
		store:    store,
		account:  account,
		settings: settings,
		backend:  broker.Select(store, accountID, settings, logger),
		logger:   logger,
	}, nil
}

// Account returns the engine's account row as loaded at construction.
func (e *Engine) Account() *models.Account {
	return e.account
}

// Settings returns the account settings loaded at construction.
func (e *Engine) Settings() *ledger.AccountSettings {
	return e.settings
}

// Provider reports which backend fills this account's orders.
func (e *Engine) Provider() string {
	return e.backend.Name()
}

func (e *Engine) paper() bool {
	return e.backend.Name() == models.ProviderPaper
}

// ExecuteBuy fills a buy order. A buy against a non-positive existing
// position is recorded as COVER; otherwise BUY. In paper mode a pure BUY is
// capped at 2x gross leverage (notional must not exceed cash + equity);
// covers are never rejected on margin since closing risk is always allowed.
func (e *Engine) ExecuteBuy(ctx context.Context, symbol string, quantity, price float64, aiTriggered bool, confidence *float64, reasoning string) *ExecResult {
	quantity = round4(quantity)
	if symbol == "" {
		return errResult("Symbol is required")
	}
	if quantity <= 0 {
		return errResult("Quantity must be positive")
	}
	if price <= 0 {
		return errResult("Price must be positive")
	}

	position, err := e.store.GetPosition(ctx, e.account.ID, symbol)
	if err != nil {
		return errResult("Failed to load position: %v", err)
	}

	side := models.SideBuy
	if position != nil && position.Quantity < models.QuantityEpsilon {
		side = models.SideCover
	}

	notional := quantity * price
	if e.paper() && side == models.SideBuy {
		snapshot, err := e.backend.GetAccountSnapshot(ctx)
		if err != nil {
			return errResult("Failed to load account snapshot: %v", err)
		}
		if notional > snapshot.Cash+snapshot.Equity {
			return errResult("Insufficient buying power: order notional $%.2f exceeds margin limit $%.2f",
				notional, snapshot.Cash+snapshot.Equity)
		}
	}

	var realizedPnL *float64
	now := time.Now().UTC()

	err = e.db.Transaction(func(tx *gorm.DB) error {
		txCtx := ledger.WithTx(ctx, tx)

		if _, err := e.backend.SubmitOrder(txCtx, broker.OrderRequest{
			Symbol:   symbol,
			Quantity: quantity,
			Price:    price,
			Side:     broker.OrderSideBuy,
		}); err != nil {
			return err
		}

		if position == nil {
			position = &models.Position{
				AccountID: e.account.ID,
				Symbol:    symbol,
				AvgCost:   price,
			}
		}

		oldQty := position.Quantity
		newQty := snapZero(round4(oldQty + quantity))

		switch {
		case oldQty <= -models.QuantityEpsilon:
			// Covering a short. Realized P&L covers min(quantity, |short|);
			// crossing through zero resets avg cost to the fill price for
			// the new long remainder.
			covered := math.Min(quantity, -oldQty)
			pnl := (position.AvgCost - price) * covered
			realizedPnL = &pnl
			if newQty >= models.QuantityEpsilon {
				position.AvgCost = price
			}
		case oldQty < models.QuantityEpsilon:
			// Flat (including persisted zero rows): fresh entry.
			position.AvgCost = price
		default:
			// Adding to a long: notional-weighted blend.
			position.AvgCost = (oldQty*position.AvgCost + quantity*price) / newQty
		}

		position.Quantity = newQty
		position.CurrentPrice = price
		position.UnrealizedPnL = position.ComputeUnrealizedPnL()
		position.LastUpdated = now

		if err := e.store.SavePosition(txCtx, position); err != nil {
			return err
		}

		return e.store.SaveTrade(txCtx, &models.Trade{
			AccountID:    e.account.ID,
			Symbol:       symbol,
			Side:         side,
			Quantity:     quantity,
			Price:        price,
			TotalValue:   notional,
			Provider:     e.backend.Name(),
			AITriggered:  aiTriggered,
			AIConfidence: confidence,
			Reasoning:    reasoning,
			Timestamp:    now,
		})
	})
	if err != nil {
		return errResult("%v", err)
	}

	e.logger.Info("Trade executed",
		zap.Uint("account_id", e.account.ID),
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.Float64("quantity", quantity),
		zap.Float64("price", price),
		zap.String("provider", e.backend.Name()),
	)

	return &ExecResult{
		Success: true,
		Trade: &TradeSummary{
			Symbol:      symbol,
			Side:        side,
			Quantity:    quantity,
			Price:       price,
			TotalValue:  notional,
			RealizedPnL: realizedPnL,
			Timestamp:   now,
		},
	}
}

// ExecuteSell fills a sell order. A sell against a non-positive or absent
// position opens or adds to a short (recorded as SHORT); otherwise SELL. In
// paper mode a SELL may not exceed the held quantity, and a SHORT's proceeds
// are capped at the same 2x gross-leverage ceiling as buys.
func (e *Engine) ExecuteSell(ctx context.Context, symbol string, quantity, price float64, aiTriggered bool, confidence *float64, reasoning string) *ExecResult {
	quantity = round4(quantity)
	if symbol == "" {
		return errResult("Symbol is required")
	}
	if quantity <= 0 {
		return errResult("Quantity must be positive")
	}
	if price <= 0 {
		return errResult("Price must be positive")
	}

	position, err := e.store.GetPosition(ctx, e.account.ID, symbol)
	if err != nil {
		return errResult("Failed to load position: %v", err)
	}

	side := models.SideShort
	if position != nil && position.Quantity >= models.QuantityEpsilon {
		side = models.SideSell
	}

	notional := quantity * price
	if e.paper() {
		switch side {
		case models.SideSell:
			if quantity > position.Quantity+1e-9 {
				return errResult("Insufficient shares: have %.4f %s, tried to sell %.4f",
					position.Quantity, symbol, quantity)
			}
		case models.SideShort:
			snapshot, err := e.backend.GetAccountSnapshot(ctx)
			if err != nil {
				return errResult("Failed to load account snapshot: %v", err)
			}
			if notional > snapshot.Cash+snapshot.Equity {
				return errResult("Insufficient buying power: short notional $%.2f exceeds margin limit $%.2f",
					notional, snapshot.Cash+snapshot.Equity)
			}
		}
	}

	var realizedPnL *float64
	now := time.Now().UTC()

	err = e.db.Transaction(func(tx *gorm.DB) error {
		txCtx := ledger.WithTx(ctx, tx)

		if _, err := e.backend.SubmitOrder(txCtx, broker.OrderRequest{
			Symbol:   symbol,
			Quantity: quantity,
			Price:    price,
			Side:     broker.OrderSideSell,
		}); err != nil {
			return err
		}

		if position == nil {
			position = &models.Position{
				AccountID: e.account.ID,
				Symbol:    symbol,
				AvgCost:   price,
			}
		}

		oldQty := position.Quantity
		newQty := snapZero(round4(oldQty - quantity))

		switch {
		case oldQty >= models.QuantityEpsilon:
			// Reducing a long: avg cost unchanged, realized P&L derived
			// for the confirmation only. A brokerage-permitted oversell
			// that crosses through zero restarts the short at the fill
			// price.
			pnl := (price - position.AvgCost) * math.Min(quantity, oldQty)
			realizedPnL = &pnl
			if newQty <= -models.QuantityEpsilon {
				position.AvgCost = price
			}
		case oldQty <= -models.QuantityEpsilon:
			// Adding to a short: blend avg cost on the short side.
			position.AvgCost = (-oldQty*position.AvgCost + quantity*price) / -newQty
		default:
			// Flat: fresh short entry.
			position.AvgCost = price
		}

		position.Quantity = newQty
		position.CurrentPrice = price
		position.UnrealizedPnL = position.ComputeUnrealizedPnL()
		position.LastUpdated = now

		if err := e.store.SavePosition(txCtx, position); err != nil {
			return err
		}

		return e.store.SaveTrade(txCtx, &models.Trade{
			AccountID:    e.account.ID,
			Symbol:       symbol,
			Side:         side,
			Quantity:     quantity,
			Price:        price,
			TotalValue:   notional,
			Provider:     e.backend.Name(),
			AITriggered:  aiTriggered,
			AIConfidence: confidence,
			Reasoning:    reasoning,
			Timestamp:    now,
		})
	})
	if err != nil {
		return errResult("%v", err)
	}

	e.logger.Info("Trade executed",
		zap.Uint("account_id", e.account.ID),
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.Float64("quantity", quantity),
		zap.Float64("price", price),
		zap.String("provider", e.backend.Name()),
	)

	return &ExecResult{
		Success: true,
		Trade: &TradeSummary{
			Symbol:      symbol,
			Side:        side,
			Quantity:    quantity,
			Price:       price,
			TotalValue:  notional,
			RealizedPnL: realizedPnL,
			Timestamp:   now,
		},
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// snapZero collapses residual dust below the epsilon to exactly zero so the
// row drops out of open-position queries.
func snapZero(qty float64) float64 {
	if math.Abs(qty) < models.QuantityEpsilon {
		return 0
	}
	return qty
}
