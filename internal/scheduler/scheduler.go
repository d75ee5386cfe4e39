package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"stock-trade-bot-go/internal/ai"
	"stock-trade-bot-go/internal/config"
	"stock-trade-bot-go/internal/engine"
	"stock-trade-bot-go/internal/ledger"
	"stock-trade-bot-go/internal/marketdata"
	"stock-trade-bot-go/internal/notifier"
)

// Scheduler owns the two background loops: a fast price-refresh cycle and a
// slow auto-trade cycle. Accounts are walked sequentially within a cycle so
// there is never more than one in-flight engine operation per account.
type Scheduler struct {
	cfg      config.Config
	db       *gorm.DB
	store    *ledger.Store
	market   marketdata.ClientInterface
	cache    *marketdata.Cache
	analyzer ai.Analyzer
	notifier *notifier.Notifier
	logger   *zap.Logger
}

// New creates the scheduler.
func New(cfg config.Config, db *gorm.DB, market marketdata.ClientInterface, cache *marketdata.Cache, analyzer ai.Analyzer, notifier *notifier.Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		db:       db,
		store:    ledger.NewStore(db),
		market:   market,
		cache:    cache,
		analyzer: analyzer,
		notifier: notifier,
		logger:   logger,
	}
}

// Run starts both loops and blocks until the context is cancelled. Each
// loop fires once immediately so the dashboard is populated at startup.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.loop(ctx, s.cfg.Trading.RefreshIntervalDuration(), s.refreshPrices)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, s.cfg.Trading.TradeIntervalDuration(), s.runTradeCycle)
	}()

	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, cycle func(context.Context)) {
	cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cycle(ctx)
		}
	}
}

// refreshPrices fetches quotes for every watched and held symbol
// concurrently, then applies them to the cache and each account's
// positions from this single goroutine.
func (s *Scheduler) refreshPrices(ctx context.Context) {
	symbols, err := s.collectSymbols(ctx)
	if err != nil {
		s.logger.Error("Failed to collect symbols for refresh", zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	results := make(chan marketdata.Quote, len(symbols))
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			quote, err := s.market.GetQuote(ctx, symbol)
			if err != nil {
				s.logger.Warn("Quote fetch failed",
					zap.String("symbol", symbol),
					zap.Error(err),
				)
				return
			}
			results <- *quote
		}(symbol)
	}
	wg.Wait()
	close(results)

	fetched := 0
	for quote := range results {
		s.cache.SetQuote(quote)
		fetched++
	}

	if indices, err := s.market.GetIndices(ctx); err == nil {
		s.cache.SetIndices(indices)
	} else {
		s.logger.Warn("Index fetch failed", zap.Error(err))
	}

	prices := s.cache.Prices()
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		s.logger.Error("Failed to list accounts", zap.Error(err))
		return
	}
	for _, account := range accounts {
		eng, err := engine.New(ctx, s.db, account.ID, s.logger)
		if err != nil {
			s.logger.Error("Failed to build engine",
				zap.Uint("account_id", account.ID),
				zap.Error(err),
			)
			continue
		}
		if err := eng.UpdatePositionPrices(ctx, prices); err != nil {
			s.logger.Error("Failed to update position prices",
				zap.Uint("account_id", account.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Debug("Price refresh complete",
		zap.Int("symbols", len(symbols)),
		zap.Int("fetched", fetched),
	)
}

// collectSymbols returns the union of the watchlist and every open
// position's symbol, so held but unwatched symbols still get fresh prices.
func (s *Scheduler) collectSymbols(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var symbols []string

	watched, err := s.store.Watchlist(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range watched {
		if !seen[w.Symbol] {
			seen[w.Symbol] = true
			symbols = append(symbols, w.Symbol)
		}
	}

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		positions, err := s.store.OpenPositions(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range positions {
			if !seen[p.Symbol] {
				seen[p.Symbol] = true
				symbols = append(symbols, p.Symbol)
			}
		}
	}
	return symbols, nil
}

// runTradeCycle walks all accounts sequentially and, for enabled accounts,
// analyzes every watched symbol. Per-symbol failures are logged and never
// abort the cycle.
func (s *Scheduler) runTradeCycle(ctx context.Context) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		s.logger.Error("Failed to list accounts", zap.Error(err))
		return
	}
	watched, err := s.store.Watchlist(ctx)
	if err != nil {
		s.logger.Error("Failed to load watchlist", zap.Error(err))
		return
	}

	for _, account := range accounts {
		settings, err := s.store.AccountSettings(ctx, account.ID)
		if err != nil {
			s.logger.Error("Failed to load settings",
				zap.Uint("account_id", account.ID),
				zap.Error(err),
			)
			continue
		}
		if !settings.AutoTradeEnabled {
			continue
		}

		s.logger.Info("Starting auto-trade cycle",
			zap.Uint("account_id", account.ID),
			zap.String("account", account.Name),
			zap.Int("symbols", len(watched)),
		)

		for i, w := range watched {
			if ctx.Err() != nil {
				return
			}
			if i > 0 {
				// Upstream rate limits: pace the per-symbol AI calls.
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.cfg.Trading.SymbolDelayDuration()):
				}
			}
			s.tradeSymbol(ctx, account.ID, w.Symbol)
		}
	}
}

func (s *Scheduler) tradeSymbol(ctx context.Context, accountID uint, symbol string) {
	log := s.logger.With(zap.Uint("account_id", accountID), zap.String("symbol", symbol))

	quote, ok := s.cache.GetQuote(symbol)
	if !ok {
		fresh, err := s.market.GetQuote(ctx, symbol)
		if err != nil {
			log.Warn("Skipping symbol, no quote", zap.Error(err))
			return
		}
		quote = *fresh
		s.cache.SetQuote(quote)
	}

	bars, err := s.market.GetHistory(ctx, symbol, "3mo", "1d")
	if err != nil {
		log.Warn("History fetch failed, analyzing without candles", zap.Error(err))
	}

	eng, err := engine.New(ctx, s.db, accountID, s.logger)
	if err != nil {
		log.Error("Failed to build engine", zap.Error(err))
		return
	}
	portfolio, err := eng.Portfolio(ctx)
	if err != nil {
		log.Error("Failed to load portfolio", zap.Error(err))
		return
	}

	signal, err := s.analyzer.Analyze(ctx, ai.AnalysisInput{
		Symbol:     symbol,
		Quote:      &quote,
		Indicators: marketdata.ComputeIndicators(bars),
		Bars:       bars,
		Portfolio:  portfolio,
	})
	if err != nil {
		log.Error("Signal generation failed", zap.Error(err))
		s.notifier.NotifyError("signal generation for "+symbol, err)
		return
	}
	signal.AccountID = accountID
	if err := s.store.SaveSignal(ctx, signal); err != nil {
		log.Error("Failed to log signal", zap.Error(err))
	}
	s.notifier.NotifySignal(signal)

	result := eng.AutoTrade(ctx, signal, quote.Price)
	switch {
	case result.Success:
		log.Info("Auto-trade executed",
			zap.String("side", result.Trade.Side),
			zap.Float64("quantity", result.Trade.Quantity),
			zap.Float64("price", result.Trade.Price),
		)
		s.notifier.NotifyTrade(eng.Account().Name, result.Trade)
	case result.Skipped:
		log.Debug("Auto-trade skipped", zap.String("reason", result.Reason))
	default:
		log.Warn("Auto-trade failed", zap.String("error", result.Error))
	}
}
