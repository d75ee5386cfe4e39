package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stock-trade-bot-go/internal/engine"
	"stock-trade-bot-go/internal/ledger"
	"stock-trade-bot-go/internal/marketdata"
	"stock-trade-bot-go/internal/models"
)

// Setting keys the API may update.
var editableSettings = map[string]bool{
	models.SettingAutoTradeEnabled:  true,
	models.SettingMinConfidence:     true,
	models.SettingRiskPerTradePct:   true,
	models.SettingAllowShortSelling: true,
	models.SettingAlpacaAPIKey:      true,
	models.SettingAlpacaSecretKey:   true,
	models.SettingAlpacaPaperMode:   true,
}

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log    *zap.Logger
	db     *gorm.DB
	store  *ledger.Store
	market marketdata.ClientInterface
	cache  *marketdata.Cache
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB, market marketdata.ClientInterface, cache *marketdata.Cache) *APIHandler {
	return &APIHandler{
		log:    log,
		db:     db,
		store:  ledger.NewStore(db),
		market: market,
		cache:  cache,
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

// accountID resolves the target account from the query string, defaulting
// to the seeded account.
func accountID(r *http.Request) uint {
	if raw := r.URL.Query().Get("account_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil && id > 0 {
			return uint(id)
		}
	}
	return 1
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// newEngine builds an engine for the request's account, mapping a missing
// account to 404 and anything else to 500.
func (h *APIHandler) newEngine(w http.ResponseWriter, r *http.Request) *engine.Engine {
	eng, err := engine.New(r.Context(), h.db, accountID(r), h.log)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Account not found", http.StatusNotFound)
			return nil
		}
		h.log.Error("Failed to build engine", zap.Uint("account_id", accountID(r)), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	}
	return eng
}

// PortfolioHandler returns the account's portfolio summary.
func (h *APIHandler) PortfolioHandler(w http.ResponseWriter, r *http.Request) {
	eng := h.newEngine(w, r)
	if eng == nil {
		return
	}
	portfolio, err := eng.Portfolio(r.Context())
	if err != nil {
		h.log.Error("Failed to build portfolio", zap.Error(err))
		http.Error(w, "Failed to build portfolio", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, portfolio)
}

// TradesHandler returns recent trades, newest first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := h.store.RecentTrades(r.Context(), accountID(r), 100)
	if err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// SignalsHandler returns recent AI signals, newest first.
func (h *APIHandler) SignalsHandler(w http.ResponseWriter, r *http.Request) {
	signals, err := h.store.RecentSignals(r.Context(), accountID(r), 50)
	if err != nil {
		h.log.Error("Failed to get signals from database", zap.Error(err))
		http.Error(w, "Failed to get signals", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, signals)
}

// MarketsHandler returns the market index strip, from the cache when fresh.
func (h *APIHandler) MarketsHandler(w http.ResponseWriter, r *http.Request) {
	if indices, ok := h.cache.GetIndices(); ok {
		h.writeJSON(w, http.StatusOK, indices)
		return
	}
	indices, err := h.market.GetIndices(r.Context())
	if err != nil {
		h.log.Error("Failed to fetch indices", zap.Error(err))
		http.Error(w, "Failed to fetch market data", http.StatusInternalServerError)
		return
	}
	h.cache.SetIndices(indices)
	h.writeJSON(w, http.StatusOK, indices)
}

type tradeRequest struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// TradeHandler executes one manual trade. Without an explicit price the
// live quote is used. The uniform execute result is returned for both
// successes and rejections.
func (h *APIHandler) TradeHandler(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))

	if req.Price <= 0 {
		quote, err := h.market.GetQuote(r.Context(), req.Symbol)
		if err != nil {
			http.Error(w, "No price available for "+req.Symbol, http.StatusBadGateway)
			return
		}
		req.Price = quote.Price
	}

	eng := h.newEngine(w, r)
	if eng == nil {
		return
	}

	var result *engine.ExecResult
	switch strings.ToUpper(req.Side) {
	case models.SideBuy:
		result = eng.ExecuteBuy(r.Context(), req.Symbol, req.Quantity, req.Price, false, nil, "")
	case models.SideSell:
		result = eng.ExecuteSell(r.Context(), req.Symbol, req.Quantity, req.Price, false, nil, "")
	default:
		http.Error(w, "Side must be BUY or SELL", http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// ResetAccountHandler restores the initial cash balance and purges
// positions and trades.
func (h *APIHandler) ResetAccountHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetAccount(r.Context(), accountID(r)); err != nil {
		h.log.Error("Failed to reset account", zap.Error(err))
		http.Error(w, "Failed to reset account", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// GetSettingsHandler returns the account's typed settings. The brokerage
// secret is redacted.
func (h *APIHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.AccountSettings(r.Context(), accountID(r))
	if err != nil {
		h.log.Error("Failed to load settings", zap.Error(err))
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"auto_trade_enabled":        settings.AutoTradeEnabled,
		"auto_trade_min_confidence": settings.MinConfidence,
		"risk_per_trade_pct":        settings.RiskPerTradePct,
		"allow_short_selling":       settings.AllowShortSelling,
		"alpaca_configured":         settings.UseAlpaca(),
		"alpaca_paper_mode":         settings.AlpacaPaperMode,
	})
}

// UpdateSettingsHandler upserts a batch of settings key-values.
func (h *APIHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id := accountID(r)
	for key, value := range updates {
		if !editableSettings[key] {
			http.Error(w, "Unknown setting "+key, http.StatusBadRequest)
			return
		}
		if err := h.store.SetSetting(r.Context(), id, key, value); err != nil {
			h.log.Error("Failed to update setting", zap.String("key", key), zap.Error(err))
			http.Error(w, "Failed to update settings", http.StatusInternalServerError)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// WatchlistHandler returns all watched symbols.
func (h *APIHandler) WatchlistHandler(w http.ResponseWriter, r *http.Request) {
	watched, err := h.store.Watchlist(r.Context())
	if err != nil {
		h.log.Error("Failed to load watchlist", zap.Error(err))
		http.Error(w, "Failed to load watchlist", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, watched)
}

type watchRequest struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// AddWatchedHandler adds one symbol to the watchlist.
func (h *APIHandler) AddWatchedHandler(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		http.Error(w, "Symbol is required", http.StatusBadRequest)
		return
	}
	if err := h.store.AddWatchedStock(r.Context(), symbol, req.Name); err != nil {
		h.log.Error("Failed to add watched stock", zap.Error(err))
		http.Error(w, "Failed to add symbol", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"symbol": symbol})
}

// RemoveWatchedHandler drops one symbol from the watchlist.
func (h *APIHandler) RemoveWatchedHandler(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if err := h.store.RemoveWatchedStock(r.Context(), symbol); err != nil {
		h.log.Error("Failed to remove watched stock", zap.Error(err))
		http.Error(w, "Failed to remove symbol", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"symbol": symbol})
}
