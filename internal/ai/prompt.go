package ai

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an equity trading analyst. Given market data for one symbol, respond with exactly one JSON object and nothing else:
{
  "signal": "BUY" | "SELL" | "SHORT" | "COVER" | "HOLD",
  "confidence": 0.0 to 1.0,
  "target_price": number or null,
  "stop_loss": number or null,
  "recommended_weight_pct": fraction of account equity to allocate (e.g. 0.1 for 10%), or 0 to use the account default,
  "reasoning": "one or two sentences"
}
Prefer HOLD when the evidence is mixed. Never recommend more than 2x account equity.`

func buildUserPrompt(input AnalysisInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Symbol: %s\n", input.Symbol)
	if q := input.Quote; q != nil {
		fmt.Fprintf(&b, "Current price: %.2f (change %+.2f, %+.2f%%)\n", q.Price, q.Change, q.ChangePct)
	}
	if ind := input.Indicators; ind != nil {
		fmt.Fprintf(&b, "Indicators: SMA20=%.2f SMA50=%.2f RSI14=%.1f\n", ind.SMA20, ind.SMA50, ind.RSI14)
	}

	if n := len(input.Bars); n > 0 {
		fmt.Fprintf(&b, "Recent daily closes (oldest first):")
		start := 0
		if n > 10 {
			start = n - 10
		}
		for _, bar := range input.Bars[start:] {
			fmt.Fprintf(&b, " %.2f", bar.Close)
		}
		b.WriteString("\n")
	}

	if p := input.Portfolio; p != nil {
		fmt.Fprintf(&b, "Portfolio: cash=%.2f equity=%.2f open_positions=%d\n",
			p.Cash, p.TotalEquity, len(p.Positions))
		for _, pos := range p.Positions {
			if pos.Symbol == input.Symbol {
				fmt.Fprintf(&b, "Existing position in %s: qty=%.4f avg_cost=%.2f unrealized_pnl=%.2f\n",
					pos.Symbol, pos.Quantity, pos.AvgCost, pos.UnrealizedPnL)
			}
		}
	}

	if len(input.News) > 0 {
		b.WriteString("Recent headlines:\n")
		for _, headline := range input.News {
			fmt.Fprintf(&b, "- %s\n", headline)
		}
	}

	b.WriteString("Respond with the JSON object only.")
	return b.String()
}
