package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"stock-trade-bot-go/internal/models"
)

// Reasoning models interleave chain-of-thought before the answer.
var thinkTagRE = regexp.MustCompile(`(?s)<think>.*?</think>`)

type rawSignal struct {
	Signal               string   `json:"signal"`
	Confidence           float64  `json:"confidence"`
	TargetPrice          *float64 `json:"target_price"`
	StopLoss             *float64 `json:"stop_loss"`
	RecommendedWeightPct float64  `json:"recommended_weight_pct"`
	Reasoning            string   `json:"reasoning"`
}

// ParseSignal extracts the JSON decision object from a model response,
// tolerating chain-of-thought preambles and markdown code fences.
func ParseSignal(content string) (*models.Signal, error) {
	cleaned := thinkTagRE.ReplaceAllString(content, "")
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var raw rawSignal
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("malformed signal JSON: %w", err)
	}

	action := strings.ToUpper(strings.TrimSpace(raw.Signal))
	switch action {
	case models.ActionBuy, models.ActionSell, models.ActionShort, models.ActionCover, models.ActionHold:
	default:
		return nil, fmt.Errorf("unknown signal action %q", raw.Signal)
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &models.Signal{
		Action:            action,
		Confidence:        confidence,
		TargetPrice:       raw.TargetPrice,
		StopLoss:          raw.StopLoss,
		RecommendedWeight: raw.RecommendedWeightPct,
		Reasoning:         strings.TrimSpace(raw.Reasoning),
	}, nil
}
