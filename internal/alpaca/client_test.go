package alpaca

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := resty.New().
		SetBaseURL(server.URL).
		SetHeader("APCA-API-KEY-ID", "test_key").
		SetHeader("APCA-API-SECRET-KEY", "test_secret")

	c := &Client{
		client:  client,
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}
	return c, server
}

func TestGetAccount(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/account", r.URL.Path)
			assert.Equal(t, "test_key", r.Header.Get("APCA-API-KEY-ID"))
			assert.Equal(t, "test_secret", r.Header.Get("APCA-API-SECRET-KEY"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"cash": "25000.50", "equity": "30000.25", "buying_power": "50001.00"}`))
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		account, err := c.GetAccount(context.Background())

		// Assert
		assert.NoError(t, err)
		assert.InDelta(t, 25000.50, account.Cash, 1e-9)
		assert.InDelta(t, 30000.25, account.Equity, 1e-9)
		assert.InDelta(t, 50001.00, account.BuyingPower, 1e-9)
	})

	t.Run("APIError", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code": 40110000, "message": "access key verification failed"}`))
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		_, err := c.GetAccount(context.Background())

		// Assert
		assert.Error(t, err)
		var apiErr *APIError
		assert.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Contains(t, apiErr.Message, "access key verification failed")
	})
}

func TestListPositions(t *testing.T) {
	// Arrange: one long, one short; short quantities arrive positive with side "short"
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/positions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"symbol": "AAPL", "qty": "10", "side": "long", "avg_entry_price": "150", "current_price": "160", "market_value": "1600", "cost_basis": "1500", "unrealized_pl": "100", "unrealized_plpc": "0.0667"},
			{"symbol": "TSLA", "qty": "5", "side": "short", "avg_entry_price": "300", "current_price": "280", "market_value": "-1400", "cost_basis": "-1500", "unrealized_pl": "100", "unrealized_plpc": "0.0667"}
		]`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	// Act
	positions, err := c.ListPositions(context.Background())

	// Assert
	assert.NoError(t, err)
	assert.Len(t, positions, 2)
	assert.InDelta(t, 10, positions[0].Quantity, 1e-9)
	assert.InDelta(t, -5, positions[1].Quantity, 1e-9)
	assert.InDelta(t, 6.67, positions[1].UnrealizedPnLPct, 1e-9)
}

func TestGetPosition_NotFoundIsNil(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code": 40410000, "message": "position does not exist"}`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	position, err := c.GetPosition(context.Background(), "AAPL")

	assert.NoError(t, err)
	assert.Nil(t, position)
}

func TestSubmitOrder(t *testing.T) {
	// Arrange
	var received orderPayload
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/orders", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "order-123", "client_order_id": "abc", "status": "accepted"}`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	// Act
	order, err := c.SubmitOrder(context.Background(), OrderRequest{
		Symbol:   "AAPL",
		Quantity: 2.5,
		Side:     OrderSideBuy,
	})

	// Assert: market day order with a client order ID
	assert.NoError(t, err)
	assert.Equal(t, "order-123", order.ID)
	assert.Equal(t, "AAPL", received.Symbol)
	assert.Equal(t, "2.5", received.Qty)
	assert.Equal(t, "buy", received.Side)
	assert.Equal(t, "market", received.Type)
	assert.Equal(t, "day", received.TimeInForce)
	assert.NotEmpty(t, received.ClientOrderID)
}

func TestSubmitOrder_RejectionSurfacesAPIError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code": 40310000, "message": "insufficient buying power"}`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	_, err := c.SubmitOrder(context.Background(), OrderRequest{
		Symbol:   "AAPL",
		Quantity: 1000000,
		Side:     OrderSideBuy,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient buying power")
}
