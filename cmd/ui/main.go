package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"stock-trade-bot-go/internal/config"
	"stock-trade-bot-go/internal/database"
	"stock-trade-bot-go/internal/logger"
	"stock-trade-bot-go/internal/marketdata"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Seed(db, &cfg); err != nil {
		log.Fatal("Failed to seed database", zap.Error(err))
	}

	market := marketdata.NewClient(cfg.MarketData, log)
	cache := marketdata.NewCache(cfg.MarketData.Staleness())

	apiHandler := NewAPIHandler(log, db, market, cache)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", apiHandler.HealthHandler)
	r.Route("/api", func(r chi.Router) {
		r.Get("/portfolio", apiHandler.PortfolioHandler)
		r.Get("/trades", apiHandler.TradesHandler)
		r.Get("/signals", apiHandler.SignalsHandler)
		r.Get("/markets", apiHandler.MarketsHandler)
		r.Post("/trade", apiHandler.TradeHandler)
		r.Post("/account/reset", apiHandler.ResetAccountHandler)
		r.Get("/settings", apiHandler.GetSettingsHandler)
		r.Post("/settings", apiHandler.UpdateSettingsHandler)
		r.Get("/watchlist", apiHandler.WatchlistHandler)
		r.Post("/watchlist", apiHandler.AddWatchedHandler)
		r.Delete("/watchlist/{symbol}", apiHandler.RemoveWatchedHandler)
	})

	// Static file serving for CSS, JS, etc.
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	// HTML template serving
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/templates/index.html")
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting web server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}
}
