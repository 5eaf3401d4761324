package domain

import (
	"math"
	"strings"
	"time"
)

// ModelPrice is the fixed per-token USD rate for one model.
type ModelPrice struct {
	Input  float64
	Output float64
}

// modelPrices is the rate table used for cost accounting. Cost is always
// derived from token counts times these rates, never reverse-derived.
var modelPrices = map[string]ModelPrice{
	"gpt-4o-mini":            {Input: 0.00000015, Output: 0.0000006},
	"gpt-4o":                 {Input: 0.0000025, Output: 0.00001},
	"text-embedding-3-large": {Input: 0.00000013},
	"text-embedding-3-small": {Input: 0.00000002},
	"gemini-embedding-001":   {Input: 0.00000015},
}

// SpendingEntry is a cost/usage record for one LLM or embedding call.
type SpendingEntry struct {
	// Service identifies the spending category (e.g. "openai_llm").
	Service string `json:"service"`

	// Model is the model the call was billed against.
	Model string `json:"model"`

	// Tokens is the token accounting for the call.
	Tokens TokenUsage `json:"tokens"`

	// CostUSD is the derived cost in US dollars.
	CostUSD float64 `json:"cost_usd"`

	// Timestamp is when the call completed.
	Timestamp time.Time `json:"timestamp"`
}

// NewSpendingEntry builds a SpendingEntry from token counts using the fixed
// rate table. Unknown models record zero cost rather than guessing.
func NewSpendingEntry(service, model string, inputTokens, outputTokens int) SpendingEntry {
	price := modelPrices[model]
	return SpendingEntry{
		Service: service,
		Model:   model,
		Tokens: TokenUsage{
			Input:  inputTokens,
			Output: outputTokens,
			Total:  inputTokens + outputTokens,
		},
		CostUSD:   float64(inputTokens)*price.Input + float64(outputTokens)*price.Output,
		Timestamp: time.Now(),
	}
}

// EstimateTokens estimates the token count of text using a word-based
// heuristic (~1.3 tokens per word, rounded up).
func EstimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	words := len(strings.Fields(trimmed))
	return int(math.Ceil(float64(words) * 1.3))
}
