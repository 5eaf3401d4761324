package driven

import (
	"context"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// EmbeddingProvider generates vector embeddings from text.
//
// Providers are interchangeable behind the embedding service and are
// selected at construction time by a configuration tag.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-large, text-embedding-3-small)
//   - Gemini (gemini-embedding-001)
type EmbeddingProvider interface {
	// GenerateEmbedding embeds one text. Input whose trimmed length is
	// below domain.MinEmbeddingTextLength yields (nil, nil) without a
	// network call.
	GenerateEmbedding(ctx context.Context, text string) (*domain.EmbeddingResult, error)

	// GenerateBatchEmbeddings embeds multiple texts in one call. Invalid
	// inputs are filtered first; the result's embedding at index i
	// corresponds to the i-th valid input. When every input is filtered
	// the call returns (nil, nil).
	GenerateBatchEmbeddings(ctx context.Context, texts []string) (*domain.BatchEmbeddingResult, error)

	// Dimensions returns the configured vector size. It must equal the
	// search backend's declared vector field dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// SpendingRecorder receives cost/usage entries produced by provider calls.
type SpendingRecorder interface {
	Record(entry domain.SpendingEntry)
}
