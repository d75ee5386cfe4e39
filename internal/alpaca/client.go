package alpaca

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	liveBaseURL  = "https://api.alpaca.markets"
	paperBaseURL = "https://paper-api.alpaca.markets"

	OrderSideBuy  = "buy"
	OrderSideSell = "sell"

	// Requests per second. Alpaca allows 200/min; stay well under it.
	defaultRateLimit = 3
	defaultBurst     = 1
)

// APIError is a typed error returned by the Alpaca REST API.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alpaca: %s (status %d, code %d)", e.Message, e.StatusCode, e.Code)
}

// ClientInterface defines the order-entry surface the execution backend needs.
type ClientInterface interface {
	GetAccount(ctx context.Context) (*Account, error)
	ListPositions(ctx context.Context) ([]Position, error)
	GetPosition(ctx context.Context, symbol string) (*Position, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

// Client is a client for the Alpaca trading REST API.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ ClientInterface = (*Client)(nil)

// NewClient creates an Alpaca REST client. Paper mode targets the sandbox
// order-entry host; both hosts speak the same v2 API.
func NewClient(apiKey, secretKey string, paper bool, logger *zap.Logger) *Client {
	base := liveBaseURL
	if paper {
		base = paperBaseURL
	}
	return NewClientWithBaseURL(apiKey, secretKey, base, logger)
}

// NewClientWithBaseURL creates a client against an explicit order-entry
// host, for proxied deployments and tests.
func NewClientWithBaseURL(apiKey, secretKey, baseURL string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("APCA-API-KEY-ID", apiKey).
		SetHeader("APCA-API-SECRET-KEY", secretKey)

	return &Client{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}
}

// doRequest executes one rate-limited request. There is no retry loop:
// the next scheduled cycle re-evaluates naturally, and a resubmitted
// market order would double-fill.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	resp, err := req.SetContext(ctx).Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, url, err)
	}
	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		if jsonErr := json.Unmarshal(resp.Body(), apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = resp.String()
		}
		return resp, apiErr
	}
	return resp, nil
}

// Account is the brokerage account snapshot. Alpaca serializes money
// fields as strings.
type Account struct {
	Cash        float64
	Equity      float64
	BuyingPower float64
}

type accountResponse struct {
	Cash        string `json:"cash"`
	Equity      string `json:"equity"`
	BuyingPower string `json:"buying_power"`
}

// GetAccount fetches the authoritative cash/equity/buying-power snapshot.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var raw accountResponse
	req := c.client.R().SetResult(&raw)

	if _, err := c.doRequest(ctx, http.MethodGet, "/v2/account", req); err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &Account{
		Cash:        parseMoney(raw.Cash),
		Equity:      parseMoney(raw.Equity),
		BuyingPower: parseMoney(raw.BuyingPower),
	}, nil
}

// Position is one open brokerage position.
type Position struct {
	Symbol           string
	Quantity         float64
	AvgEntryPrice    float64
	CurrentPrice     float64
	MarketValue      float64
	CostBasis        float64
	UnrealizedPnL    float64
	UnrealizedPnLPct float64
}

type positionResponse struct {
	Symbol         string `json:"symbol"`
	Qty            string `json:"qty"`
	AvgEntryPrice  string `json:"avg_entry_price"`
	CurrentPrice   string `json:"current_price"`
	MarketValue    string `json:"market_value"`
	CostBasis      string `json:"cost_basis"`
	UnrealizedPL   string `json:"unrealized_pl"`
	UnrealizedPLPC string `json:"unrealized_plpc"`
	Side           string `json:"side"`
}

func (r *positionResponse) toPosition() Position {
	qty := parseMoney(r.Qty)
	if r.Side == "short" && qty > 0 {
		qty = -qty
	}
	return Position{
		Symbol:           r.Symbol,
		Quantity:         qty,
		AvgEntryPrice:    parseMoney(r.AvgEntryPrice),
		CurrentPrice:     parseMoney(r.CurrentPrice),
		MarketValue:      parseMoney(r.MarketValue),
		CostBasis:        parseMoney(r.CostBasis),
		UnrealizedPnL:    parseMoney(r.UnrealizedPL),
		UnrealizedPnLPct: parseMoney(r.UnrealizedPLPC) * 100,
	}
}

// ListPositions fetches all open brokerage positions.
func (c *Client) ListPositions(ctx context.Context) ([]Position, error) {
	var raw []positionResponse
	req := c.client.R().SetResult(&raw)

	if _, err := c.doRequest(ctx, http.MethodGet, "/v2/positions", req); err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	positions := make([]Position, 0, len(raw))
	for i := range raw {
		positions = append(positions, raw[i].toPosition())
	}
	return positions, nil
}

// GetPosition fetches one position; a 404 means no position and returns nil.
func (c *Client) GetPosition(ctx context.Context, symbol string) (*Position, error) {
	var raw positionResponse
	req := c.client.R().SetResult(&raw)

	_, err := c.doRequest(ctx, http.MethodGet, "/v2/positions/"+symbol, req)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get position %s: %w", symbol, err)
	}

	position := raw.toPosition()
	return &position, nil
}

// OrderRequest describes one market order.
type OrderRequest struct {
	Symbol   string
	Quantity float64
	Side     string // OrderSideBuy or OrderSideSell
}

// Order is the acknowledged order as returned by the API.
type Order struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"client_order_id"`
	Status        string `json:"status"`
}

type orderPayload struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id"`
}

// SubmitOrder places a market day order. A uuid client order ID makes
// accidental duplicate submissions idempotent on the brokerage side.
func (c *Client) SubmitOrder(ctx context.Context, orderReq OrderRequest) (*Order, error) {
	payload := orderPayload{
		Symbol:        orderReq.Symbol,
		Qty:           strconv.FormatFloat(orderReq.Quantity, 'f', -1, 64),
		Side:          orderReq.Side,
		Type:          "market",
		TimeInForce:   "day",
		ClientOrderID: uuid.NewString(),
	}

	var order Order
	req := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&order)

	if _, err := c.doRequest(ctx, http.MethodPost, "/v2/orders", req); err != nil {
		c.logger.Error("Failed to submit order",
			zap.String("symbol", orderReq.Symbol),
			zap.String("side", orderReq.Side),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Info("Order submitted",
		zap.String("symbol", orderReq.Symbol),
		zap.String("side", orderReq.Side),
		zap.Float64("quantity", orderReq.Quantity),
		zap.String("order_id", order.ID),
	)
	return &order, nil
}

func parseMoney(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
