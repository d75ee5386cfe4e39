package ai

import (
	"stock-trade-bot-go/internal/engine"
	"stock-trade-bot-go/internal/marketdata"
)

// AnalysisInput is everything handed to the model for one symbol. All
// fields except Symbol and Quote are optional context.
type AnalysisInput struct {
	Symbol     string
	Quote      *marketdata.Quote
	Indicators *marketdata.Indicators
	Bars       []marketdata.Bar
	Portfolio  *engine.Portfolio
	News       []string
}
