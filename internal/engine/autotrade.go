package engine

import (
	"context"
	"math"

	"go.uber.org/zap"

	"stock-trade-bot-go/internal/models"
)

// AutoTrade is the policy wrapper around ExecuteBuy/ExecuteSell: it gates on
// the account's auto-trade flag and confidence threshold, sizes the order
// from equity, clamps closing orders to the existing position, and is the
// only caller that attaches AI attribution to the resulting trade.
func (e *Engine) AutoTrade(ctx context.Context, signal *models.Signal, currentPrice float64) *ExecResult {
	if !e.settings.AutoTradeEnabled {
		return skipResult("Auto-trading is disabled")
	}
	if signal.Confidence < e.settings.MinConfidence {
		return skipResult("Confidence %.2f below minimum %.2f", signal.Confidence, e.settings.MinConfidence)
	}
	if signal.Action == models.ActionHold {
		return skipResult("Signal is HOLD")
	}
	if currentPrice <= 0 {
		return errResult("Invalid current price for %s", signal.Symbol)
	}

	snapshot, err := e.backend.GetAccountSnapshot(ctx)
	if err != nil {
		return errResult("Failed to load account snapshot: %v", err)
	}

	// Allocation: an explicit recommended weight (a fraction of equity)
	// wins, capped at the 2x leverage ceiling; otherwise the account's
	// default risk per trade.
	allocationPct := e.settings.RiskPerTradePct
	if signal.RecommendedWeight != 0 {
		allocationPct = math.Min(math.Abs(signal.RecommendedWeight)*100, 200)
	}

	quantity := round4(snapshot.Equity * allocationPct / 100 / currentPrice)
	if quantity < MinTradableQuantity {
		return errResult("Calculated quantity too small: %.4f %s", quantity, signal.Symbol)
	}

	e.logger.Debug("Dispatching auto-trade",
		zap.String("symbol", signal.Symbol),
		zap.String("action", signal.Action),
		zap.Float64("confidence", signal.Confidence),
		zap.Float64("quantity", quantity),
	)

	switch signal.Action {
	case models.ActionBuy:
		return e.ExecuteBuy(ctx, signal.Symbol, quantity, currentPrice, true, &signal.Confidence, signal.Reasoning)

	case models.ActionCover:
		position, err := e.store.GetPosition(ctx, e.account.ID, signal.Symbol)
		if err != nil {
			return errResult("Failed to load position: %v", err)
		}
		if position == nil || position.Quantity > -models.QuantityEpsilon {
			return skipResult("No short position in %s", signal.Symbol)
		}
		quantity = math.Min(quantity, -position.Quantity)
		return e.ExecuteBuy(ctx, signal.Symbol, quantity, currentPrice, true, &signal.Confidence, signal.Reasoning)

	case models.ActionSell:
		position, err := e.store.GetPosition(ctx, e.account.ID, signal.Symbol)
		if err != nil {
			return errResult("Failed to load position: %v", err)
		}
		if position == nil || position.Quantity < models.QuantityEpsilon {
			return skipResult("No position in %s", signal.Symbol)
		}
		quantity = math.Min(quantity, position.Quantity)
		return e.ExecuteSell(ctx, signal.Symbol, quantity, currentPrice, true, &signal.Confidence, signal.Reasoning)

	case models.ActionShort:
		if !e.settings.AllowShortSelling {
			return skipResult("Short selling is disabled")
		}
		return e.ExecuteSell(ctx, signal.Symbol, quantity, currentPrice, true, &signal.Confidence, signal.Reasoning)

	default:
		return errResult("Unknown signal action %q", signal.Action)
	}
}
