package engine

import (
	"context"
	"time"
)

// PositionSummary is one open position as reported in the portfolio view.
type PositionSummary struct {
	Symbol           string  `json:"symbol"`
	Quantity         float64 `json:"quantity"`
	AvgCost          float64 `json:"avg_cost"`
	CurrentPrice     float64 `json:"current_price"`
	MarketValue      float64 `json:"market_value"`
	CostBasis        float64 `json:"cost_basis"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
	WeightPct        float64 `json:"weight_pct"`
}

// Portfolio is the account-level aggregation. For the paper backend the
// figures are recomputed from the ledger; for the live backend they come
// from the brokerage snapshot, with local initial cash retained as the
// baseline for the return percentage.
type Portfolio struct {
	Cash             float64           `json:"cash"`
	TotalMarketValue float64           `json:"total_market_value"`
	TotalEquity      float64           `json:"total_equity"`
	TotalCostBasis   float64           `json:"total_cost_basis"`
	UnrealizedPnL    float64           `json:"unrealized_pnl"`
	TotalReturn      float64           `json:"total_return"`
	TotalReturnPct   float64           `json:"total_return_pct"`
	InitialCash      float64           `json:"initial_cash"`
	TotalTrades      int64             `json:"total_trades"`
	Positions        []PositionSummary `json:"positions"`
	Provider         string            `json:"provider"`
}

// Portfolio aggregates the backend's snapshot and open positions. Zero
// quantity positions never appear; callers sort for display.
func (e *Engine) Portfolio(ctx context.Context) (*Portfolio, error) {
	snapshot, err := e.backend.GetAccountSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	positions, err := e.backend.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	totalTrades, err := e.store.CountTrades(ctx, e.account.ID)
	if err != nil {
		return nil, err
	}

	summary := &Portfolio{
		Cash:             snapshot.Cash,
		TotalMarketValue: snapshot.Equity - snapshot.Cash,
		TotalEquity:      snapshot.Equity,
		InitialCash:      e.account.InitialCash,
		TotalTrades:      totalTrades,
		Positions:        make([]PositionSummary, 0, len(positions)),
		Provider:         e.backend.Name(),
	}

	for _, p := range positions {
		weight := 0.0
		if snapshot.Equity != 0 {
			weight = p.MarketValue / snapshot.Equity * 100
		}
		summary.TotalCostBasis += p.CostBasis
		summary.UnrealizedPnL += p.UnrealizedPnL
		summary.Positions = append(summary.Positions, PositionSummary{
			Symbol:           p.Symbol,
			Quantity:         p.Quantity,
			AvgCost:          p.AvgEntryPrice,
			CurrentPrice:     p.CurrentPrice,
			MarketValue:      p.MarketValue,
			CostBasis:        p.CostBasis,
			UnrealizedPnL:    p.UnrealizedPnL,
			UnrealizedPnLPct: p.UnrealizedPnLPct,
			WeightPct:        weight,
		})
	}

	summary.TotalReturn = snapshot.Equity - e.account.InitialCash
	if e.account.InitialCash > 0 {
		summary.TotalReturnPct = summary.TotalReturn / e.account.InitialCash * 100
	}
	return summary, nil
}

// UpdatePositionPrices refreshes last-known prices on the account's open
// positions from a price map keyed by symbol. Symbols without a quote are
// left untouched.
func (e *Engine) UpdatePositionPrices(ctx context.Context, prices map[string]float64) error {
	positions, err := e.store.OpenPositions(ctx, e.account.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range positions {
		p := &positions[i]
		price, ok := prices[p.Symbol]
		if !ok || price <= 0 {
			continue
		}
		p.CurrentPrice = price
		p.UnrealizedPnL = p.ComputeUnrealizedPnL()
		p.LastUpdated = now
		if err := e.store.SavePosition(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
