package domain

// Embedding defaults and bounds. Both OpenAI text-embedding-3-large and
// Gemini gemini-embedding-001 support 3072 dimensions, which keeps the
// providers interchangeable against the same vector field.
const (
	// DefaultEmbeddingDimensions is the dimensionality configured unless
	// overridden. It must equal the search backend's vector field size.
	DefaultEmbeddingDimensions = 3072

	// MaxEmbeddingDimensions is the largest supported dimensionality.
	MaxEmbeddingDimensions = 3072

	// MinEmbeddingTextLength is the minimum trimmed input length for
	// embedding generation. Shorter inputs are filtered, not errors.
	MinEmbeddingTextLength = 1
)

// TokenUsage records token counts for one provider call.
type TokenUsage struct {
	// Input is the prompt token count.
	Input int `json:"input"`

	// Output is the completion token count (zero for embeddings).
	Output int `json:"output"`

	// Total is Input + Output.
	Total int `json:"total"`
}

// EmbeddingResult is the output of a single embedding call.
type EmbeddingResult struct {
	// Embedding is the vector. Never zero-length: a filtered input yields
	// a nil result instead.
	Embedding []float32

	// Usage is the token accounting reported by the provider.
	Usage TokenUsage
}

// BatchEmbeddingResult is the output of a batch embedding call. The
// embedding at index i corresponds to the i-th valid input; callers must
// track which original items were filtered out.
type BatchEmbeddingResult struct {
	Embeddings [][]float32
	Usage      TokenUsage
}
