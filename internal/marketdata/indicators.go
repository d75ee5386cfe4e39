package marketdata

import "github.com/markcheno/go-talib"

// Indicators are the technical readings handed to the signal generator.
// Fields are zero when the history is too short for the lookback.
type Indicators struct {
	SMA20 float64 `json:"sma_20"`
	SMA50 float64 `json:"sma_50"`
	RSI14 float64 `json:"rsi_14"`
}

// ComputeIndicators derives SMA and RSI readings from daily closes.
func ComputeIndicators(bars []Bar) *Indicators {
	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}

	ind := &Indicators{}
	if len(closes) >= 20 {
		sma := talib.Sma(closes, 20)
		ind.SMA20 = sma[len(sma)-1]
	}
	if len(closes) >= 50 {
		sma := talib.Sma(closes, 50)
		ind.SMA50 = sma[len(sma)-1]
	}
	if len(closes) > 14 {
		rsi := talib.Rsi(closes, 14)
		ind.RSI14 = rsi[len(rsi)-1]
	}
	return ind
}
