package notifier

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"stock-trade-bot-go/internal/config"
	"stock-trade-bot-go/internal/engine"
	"stock-trade-bot-go/internal/models"
)

// Notifier pushes trade and signal events to a Telegram chat. Disabled or
// misconfigured, it degrades to a no-op so trading never blocks on it.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// New creates the notifier. A missing token or a failed Telegram handshake
// is logged and yields a no-op notifier, not an error.
func New(cfg config.Telegram, logger *zap.Logger) *Notifier {
	n := &Notifier{chatID: cfg.ChatID, logger: logger}
	if !cfg.Enabled || cfg.BotToken == "" {
		return n
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Warn("Telegram bot unavailable, notifications disabled", zap.Error(err))
		return n
	}
	n.bot = bot
	logger.Info("Telegram notifications enabled", zap.String("bot", bot.Self.UserName))
	return n
}

func (n *Notifier) send(text string) {
	if n.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Warn("Failed to send Telegram message", zap.Error(err))
	}
}

// NotifyTrade announces one executed fill.
func (n *Notifier) NotifyTrade(accountName string, trade *engine.TradeSummary) {
	if trade == nil {
		return
	}
	text := fmt.Sprintf("*%s* %s %.4f %s @ $%.2f\nNotional: $%.2f",
		trade.Side, accountName, trade.Quantity, trade.Symbol, trade.Price, trade.TotalValue)
	if trade.RealizedPnL != nil {
		text += fmt.Sprintf("\nRealized P&L: $%.2f", *trade.RealizedPnL)
	}
	n.send(text)
}

// NotifySignal announces a non-HOLD signal even when it was not acted on.
func (n *Notifier) NotifySignal(signal *models.Signal) {
	if signal == nil || signal.Action == models.ActionHold {
		return
	}
	n.send(fmt.Sprintf("Signal *%s* %s (confidence %.2f)\n%s",
		signal.Action, signal.Symbol, signal.Confidence, signal.Reasoning))
}

// NotifyError reports a failure in a background cycle.
func (n *Notifier) NotifyError(context string, err error) {
	if err == nil {
		return
	}
	n.send(fmt.Sprintf("Error in %s: %v", context, err))
}
