package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_QuoteFreshness(t *testing.T) {
	cache := NewCache(5 * time.Minute)

	cache.SetQuote(Quote{Symbol: "AAPL", Price: 180})
	quote, ok := cache.GetQuote("AAPL")
	assert.True(t, ok)
	assert.InDelta(t, 180, quote.Price, 1e-9)

	_, ok = cache.GetQuote("MSFT")
	assert.False(t, ok)

	// A quote older than the staleness window is treated as absent.
	cache.SetQuote(Quote{Symbol: "TSLA", Price: 250, Timestamp: time.Now().Add(-10 * time.Minute)})
	_, ok = cache.GetQuote("TSLA")
	assert.False(t, ok)
}

func TestCache_PricesSkipsStale(t *testing.T) {
	cache := NewCache(5 * time.Minute)
	cache.SetQuote(Quote{Symbol: "AAPL", Price: 180})
	cache.SetQuote(Quote{Symbol: "TSLA", Price: 250, Timestamp: time.Now().Add(-10 * time.Minute)})

	prices := cache.Prices()

	assert.Equal(t, map[string]float64{"AAPL": 180}, prices)
}

func TestCache_Indices(t *testing.T) {
	cache := NewCache(5 * time.Minute)

	_, ok := cache.GetIndices()
	assert.False(t, ok)

	cache.SetIndices([]Quote{{Symbol: "^GSPC", Name: "S&P 500", Price: 5000}})
	indices, ok := cache.GetIndices()
	assert.True(t, ok)
	assert.Len(t, indices, 1)
	assert.Equal(t, "^GSPC", indices[0].Symbol)
}

func TestComputeIndicators(t *testing.T) {
	// 60 strictly rising closes: RSI saturates at 100 and SMA20 is the
	// mean of the last 20 closes.
	bars := make([]Bar, 60)
	for i := range bars {
		bars[i] = Bar{Close: float64(100 + i)}
	}

	ind := ComputeIndicators(bars)

	assert.InDelta(t, 149.5, ind.SMA20, 1e-9) // mean of 140..159
	assert.InDelta(t, 134.5, ind.SMA50, 1e-9) // mean of 110..159
	assert.InDelta(t, 100, ind.RSI14, 1e-6)
}

func TestComputeIndicators_ShortHistory(t *testing.T) {
	bars := []Bar{{Close: 100}, {Close: 101}, {Close: 102}}

	ind := ComputeIndicators(bars)

	assert.Equal(t, 0.0, ind.SMA20)
	assert.Equal(t, 0.0, ind.SMA50)
	assert.Equal(t, 0.0, ind.RSI14)
}
