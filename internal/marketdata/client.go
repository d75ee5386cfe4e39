package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"stock-trade-bot-go/internal/config"
)

// Market indices shown on the dashboard.
var indexSymbols = []struct {
	Symbol string
	Name   string
}{
	{"^GSPC", "S&P 500"},
	{"^DJI", "Dow Jones"},
	{"^IXIC", "Nasdaq"},
	{"^VIX", "VIX"},
}

// Quote is the latest price for one symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price"`
	PrevClose float64   `json:"prev_close"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	Timestamp time.Time `json:"timestamp"`
}

// Bar is one OHLCV candle.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// ClientInterface defines the market-data surface the scheduler and UI need.
type ClientInterface interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetHistory(ctx context.Context, symbol, dataRange, interval string) ([]Bar, error)
	GetIndices(ctx context.Context) ([]Quote, error)
}

// Client fetches quotes and history from the Yahoo Finance chart API.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ ClientInterface = (*Client)(nil)

// NewClient creates a market-data client. The endpoint rejects requests
// without a browser user agent.
func NewClient(cfg config.MarketData, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	return &Client{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) getChart(ctx context.Context, symbol, dataRange, interval string) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var result chartResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":    dataRange,
			"interval": interval,
		}).
		SetResult(&result).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("chart request for %s failed: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chart request for %s failed with status %d", symbol, resp.StatusCode())
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("chart error for %s: %s", symbol, result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data for %s", symbol)
	}
	return &result, nil
}

// GetQuote fetches the latest market price for one symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	chart, err := c.getChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}

	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("no market price for %s", symbol)
	}

	quote := &Quote{
		Symbol:    symbol,
		Name:      meta.ShortName,
		Price:     meta.RegularMarketPrice,
		PrevClose: meta.ChartPreviousClose,
		Timestamp: time.Now().UTC(),
	}
	if quote.PrevClose > 0 {
		quote.Change = quote.Price - quote.PrevClose
		quote.ChangePct = quote.Change / quote.PrevClose * 100
	}
	return quote, nil
}

// GetHistory fetches OHLCV candles, e.g. dataRange "3mo" and interval "1d".
// Half-open candles with a missing close are dropped.
func (c *Client) GetHistory(ctx context.Context, symbol, dataRange, interval string) ([]Bar, error) {
	chart, err := c.getChart(ctx, symbol, dataRange, interval)
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no candles for %s", symbol)
	}
	candles := result.Indicators.Quote[0]

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(candles.Close) || candles.Close[i] == nil {
			continue
		}
		bar := Bar{
			Time:  time.Unix(ts, 0).UTC(),
			Close: *candles.Close[i],
		}
		if i < len(candles.Open) && candles.Open[i] != nil {
			bar.Open = *candles.Open[i]
		}
		if i < len(candles.High) && candles.High[i] != nil {
			bar.High = *candles.High[i]
		}
		if i < len(candles.Low) && candles.Low[i] != nil {
			bar.Low = *candles.Low[i]
		}
		if i < len(candles.Volume) && candles.Volume[i] != nil {
			bar.Volume = *candles.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// GetIndices fetches the dashboard market indices. A failed index is logged
// and skipped so one outage never blanks the whole strip.
func (c *Client) GetIndices(ctx context.Context) ([]Quote, error) {
	quotes := make([]Quote, 0, len(indexSymbols))
	for _, idx := range indexSymbols {
		quote, err := c.GetQuote(ctx, idx.Symbol)
		if err != nil {
			c.logger.Warn("Failed to fetch index",
				zap.String("symbol", idx.Symbol),
				zap.Error(err),
			)
			continue
		}
		quote.Name = idx.Name
		quotes = append(quotes, *quote)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("all index fetches failed")
	}
	return quotes, nil
}
