package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"stock-trade-bot-go/internal/ai"
	"stock-trade-bot-go/internal/config"
	"stock-trade-bot-go/internal/database"
	"stock-trade-bot-go/internal/logger"
	"stock-trade-bot-go/internal/marketdata"
	"stock-trade-bot-go/internal/notifier"
	"stock-trade-bot-go/internal/scheduler"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Seed(db, &cfg); err != nil {
		log.Fatal("Failed to seed database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Market data, signal generator and notifications
	market := marketdata.NewClient(cfg.MarketData, log)
	cache := marketdata.NewCache(cfg.MarketData.Staleness())
	analyzer := ai.NewClient(cfg.AI, log)
	notify := notifier.New(cfg.Telegram, log)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Run the background scheduler until shutdown
	sched := scheduler.New(cfg, db, market, cache, analyzer, notify, log)
	sched.Run(ctx)

	log.Info("Bot has been shut down.")
}
