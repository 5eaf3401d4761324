package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSpendingEntry_KnownModel(t *testing.T) {
	entry := NewSpendingEntry("openai_llm", "gpt-4o-mini", 1000, 500)

	assert.Equal(t, "openai_llm", entry.Service)
	assert.Equal(t, "gpt-4o-mini", entry.Model)
	assert.Equal(t, 1000, entry.Tokens.Input)
	assert.Equal(t, 500, entry.Tokens.Output)
	assert.Equal(t, 1500, entry.Tokens.Total)
	assert.InDelta(t, 1000*0.00000015+500*0.0000006, entry.CostUSD, 1e-12)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestNewSpendingEntry_EmbeddingModel(t *testing.T) {
	entry := NewSpendingEntry("embedding", "text-embedding-3-large", 200, 0)

	assert.Equal(t, 200, entry.Tokens.Total)
	assert.InDelta(t, 200*0.00000013, entry.CostUSD, 1e-12)
}

func TestNewSpendingEntry_UnknownModelZeroCost(t *testing.T) {
	entry := NewSpendingEntry("embedding", "mystery-model", 100, 100)

	assert.Equal(t, 200, entry.Tokens.Total)
	assert.Zero(t, entry.CostUSD)
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   \n\t  ", 0},
		{"single word", "hello", 2},
		{"four words", "one two three four", 6},
		{"ten words", "a b c d e f g h i j", 13},
		{"collapses whitespace", "  spaced   out\n\nwords  ", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}
