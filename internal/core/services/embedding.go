package services

import (
	"context"

	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driven"
	"github.com/nexo-labs/contentsync/internal/logger"
)

// EmbeddingService orchestrates provider calls behind a single contract:
// callers get a vector or nil, never an error. Provider failures are logged
// with model context and swallowed so one failed embedding degrades a
// document instead of aborting its sync.
type EmbeddingService struct {
	provider driven.EmbeddingProvider
	recorder driven.SpendingRecorder
}

// NewEmbeddingService creates an embedding service. The recorder is
// optional; when nil, spend accounting is skipped.
func NewEmbeddingService(provider driven.EmbeddingProvider, recorder driven.SpendingRecorder) *EmbeddingService {
	return &EmbeddingService{
		provider: provider,
		recorder: recorder,
	}
}

// GetEmbedding returns the vector for text, or nil when the input is too
// short, no provider is configured, or the provider call failed.
func (s *EmbeddingService) GetEmbedding(ctx context.Context, text string) []float32 {
	if s == nil || s.provider == nil {
		return nil
	}

	result, err := s.provider.GenerateEmbedding(ctx, text)
	if err != nil {
		logger.Error("Embedding generation failed (model %s): %v", s.provider.ModelName(), err)
		return nil
	}
	if result == nil {
		return nil
	}

	s.record(result.Usage)
	return result.Embedding
}

// GetBatchEmbeddings returns vectors for the valid inputs in texts,
// order-preserved, or nil on failure. Callers must track which original
// items were filtered out.
func (s *EmbeddingService) GetBatchEmbeddings(ctx context.Context, texts []string) [][]float32 {
	if s == nil || s.provider == nil {
		return nil
	}

	result, err := s.provider.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		logger.Error("Batch embedding generation failed (model %s, count %d): %v",
			s.provider.ModelName(), len(texts), err)
		return nil
	}
	if result == nil {
		return nil
	}

	s.record(result.Usage)
	return result.Embeddings
}

// Dimensions returns the provider's configured dimensionality, or 0 when no
// provider is configured.
func (s *EmbeddingService) Dimensions() int {
	if s == nil || s.provider == nil {
		return 0
	}
	return s.provider.Dimensions()
}

func (s *EmbeddingService) record(usage domain.TokenUsage) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(domain.NewSpendingEntry("embedding", s.provider.ModelName(), usage.Input, 0))
}
