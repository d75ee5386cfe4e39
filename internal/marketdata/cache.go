package marketdata

import (
	"sync"
	"time"
)

// Cache holds the latest quotes and index snapshot with a staleness window.
// The refresh cycle is the single writer; everything else reads. Entries
// older than the window are treated as absent rather than served stale.
type Cache struct {
	mu        sync.RWMutex
	staleness time.Duration

	quotes    map[string]Quote
	indices   []Quote
	indicesAt time.Time
}

// NewCache creates a cache with the given staleness window.
func NewCache(staleness time.Duration) *Cache {
	return &Cache{
		staleness: staleness,
		quotes:    make(map[string]Quote),
	}
}

// SetQuote stores one quote, stamped now if the quote carries no timestamp.
func (c *Cache) SetQuote(quote Quote) {
	if quote.Timestamp.IsZero() {
		quote.Timestamp = time.Now().UTC()
	}
	c.mu.Lock()
	c.quotes[quote.Symbol] = quote
	c.mu.Unlock()
}

// GetQuote returns the cached quote for symbol, or false when absent or
// older than the staleness window.
func (c *Cache) GetQuote(symbol string) (Quote, bool) {
	c.mu.RLock()
	quote, ok := c.quotes[symbol]
	c.mu.RUnlock()
	if !ok || time.Since(quote.Timestamp) > c.staleness {
		return Quote{}, false
	}
	return quote, true
}

// Prices returns a symbol-to-price map of all fresh quotes.
func (c *Cache) Prices() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prices := make(map[string]float64, len(c.quotes))
	for symbol, quote := range c.quotes {
		if time.Since(quote.Timestamp) <= c.staleness {
			prices[symbol] = quote.Price
		}
	}
	return prices
}

// SetIndices replaces the cached index snapshot.
func (c *Cache) SetIndices(indices []Quote) {
	c.mu.Lock()
	c.indices = indices
	c.indicesAt = time.Now().UTC()
	c.mu.Unlock()
}

// GetIndices returns the cached index snapshot, or false when stale.
func (c *Cache) GetIndices() ([]Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.indicesAt.IsZero() || time.Since(c.indicesAt) > c.staleness {
		return nil, false
	}
	out := make([]Quote, len(c.indices))
	copy(out, c.indices)
	return out, true
}
