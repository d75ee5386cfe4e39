package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stock-trade-bot-go/internal/models"
)

func TestParseSignal_PlainJSON(t *testing.T) {
	signal, err := ParseSignal(`{"signal": "BUY", "confidence": 0.82, "target_price": 210.5, "stop_loss": 180, "recommended_weight_pct": 0.1, "reasoning": "strong momentum"}`)

	assert.NoError(t, err)
	assert.Equal(t, models.ActionBuy, signal.Action)
	assert.InDelta(t, 0.82, signal.Confidence, 1e-9)
	assert.NotNil(t, signal.TargetPrice)
	assert.InDelta(t, 210.5, *signal.TargetPrice, 1e-9)
	assert.NotNil(t, signal.StopLoss)
	assert.InDelta(t, 0.1, signal.RecommendedWeight, 1e-9)
	assert.Equal(t, "strong momentum", signal.Reasoning)
}

func TestParseSignal_StripsThinkTags(t *testing.T) {
	content := `<think>
The RSI is oversold and { this brace must not confuse the parser }.
</think>
{"signal": "hold", "confidence": 0.4, "reasoning": "mixed evidence"}`

	signal, err := ParseSignal(content)

	assert.NoError(t, err)
	assert.Equal(t, models.ActionHold, signal.Action)
	assert.InDelta(t, 0.4, signal.Confidence, 1e-9)
}

func TestParseSignal_StripsCodeFences(t *testing.T) {
	content := "Here is my analysis:\n```json\n{\"signal\": \"SELL\", \"confidence\": 0.9, \"reasoning\": \"overbought\"}\n```"

	signal, err := ParseSignal(content)

	assert.NoError(t, err)
	assert.Equal(t, models.ActionSell, signal.Action)
}

func TestParseSignal_ClampsConfidence(t *testing.T) {
	high, err := ParseSignal(`{"signal": "BUY", "confidence": 1.7, "reasoning": "x"}`)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, high.Confidence)

	low, err := ParseSignal(`{"signal": "BUY", "confidence": -0.2, "reasoning": "x"}`)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, low.Confidence)
}

func TestParseSignal_Errors(t *testing.T) {
	_, err := ParseSignal("no json here at all")
	assert.Error(t, err)

	_, err = ParseSignal(`{"signal": "YOLO", "confidence": 0.9}`)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown signal action")

	_, err = ParseSignal(`{"signal": "BUY", "confidence": "not a number"}`)
	assert.Error(t, err)
}
