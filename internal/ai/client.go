package ai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"stock-trade-bot-go/internal/config"
	"stock-trade-bot-go/internal/models"
)

// Analyzer produces one trading signal per symbol.
type Analyzer interface {
	Analyze(ctx context.Context, input AnalysisInput) (*models.Signal, error)
}

// Client generates signals through an OpenAI-compatible chat endpoint.
// Without an API key it degrades to HOLD signals instead of erroring, so
// the rest of the platform keeps working.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ Analyzer = (*Client)(nil)

// NewClient creates the signal generator. A nil inner client means no API
// key was configured.
func NewClient(cfg config.AI, logger *zap.Logger) *Client {
	c := &Client{
		model:   cfg.Model,
		timeout: cfg.Timeout(),
		logger:  logger,
	}
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		c.client = openai.NewClientWithConfig(clientCfg)
	}
	return c
}

// Analyze asks the model for a trading decision on one symbol.
func (c *Client) Analyze(ctx context.Context, input AnalysisInput) (*models.Signal, error) {
	now := time.Now().UTC()
	if c.client == nil {
		return &models.Signal{
			Symbol:    input.Symbol,
			Action:    models.ActionHold,
			Reasoning: "AI API key not configured",
			ModelUsed: "none",
			Timestamp: now,
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(input)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion for %s failed: %w", input.Symbol, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion for %s returned no choices", input.Symbol)
	}

	signal, err := ParseSignal(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parse signal for %s: %w", input.Symbol, err)
	}
	signal.Symbol = input.Symbol
	signal.ModelUsed = c.model
	signal.Timestamp = now

	c.logger.Info("Signal generated",
		zap.String("symbol", input.Symbol),
		zap.String("action", signal.Action),
		zap.Float64("confidence", signal.Confidence),
	)
	return signal, nil
}
