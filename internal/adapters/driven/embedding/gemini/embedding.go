// Package gemini provides an embedding provider adapter using the Google
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// DefaultModel is the Gemini embedding model used unless overridden.
const DefaultModel = "gemini-embedding-001"

// Config holds configuration for the Gemini embedding provider.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model to use (default: gemini-embedding-001).
	Model string

	// Dimensions is the vector size. Gemini truncates to the requested
	// dimensionality (default: 3072).
	Dimensions int
}

// Provider generates embeddings using the Gemini API.
//
// Gemini does not report token usage for embedding calls, so usage is
// estimated from the input text.
type Provider struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewProvider creates a new Gemini embedding provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = domain.DefaultEmbeddingDimensions
	}
	if cfg.Dimensions > domain.MaxEmbeddingDimensions {
		return nil, fmt.Errorf("gemini: dimensions %d exceeds maximum %d", cfg.Dimensions, domain.MaxEmbeddingDimensions)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Provider{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// GenerateEmbedding embeds one text. Input below the minimum length yields
// (nil, nil) without a network call.
func (p *Provider) GenerateEmbedding(ctx context.Context, text string) (*domain.EmbeddingResult, error) {
	if !validInput(text) {
		return nil, nil
	}

	em := p.client.EmbeddingModel(p.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}

	tokens := domain.EstimateTokens(text)
	return &domain.EmbeddingResult{
		Embedding: truncate(res.Embedding.Values, p.dimensions),
		Usage:     domain.TokenUsage{Input: tokens, Total: tokens},
	}, nil
}

// GenerateBatchEmbeddings embeds multiple texts in one batched request.
// Invalid inputs are filtered first; when every input is filtered the call
// returns (nil, nil).
func (p *Provider) GenerateBatchEmbeddings(ctx context.Context, texts []string) (*domain.BatchEmbeddingResult, error) {
	valid := make([]string, 0, len(texts))
	for _, text := range texts {
		if validInput(text) {
			valid = append(valid, text)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	em := p.client.EmbeddingModel(p.model)
	batch := em.NewBatch()
	for _, text := range valid {
		batch.AddContent(genai.Text(text))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embedding request failed: %w", err)
	}
	if len(res.Embeddings) != len(valid) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(res.Embeddings), len(valid))
	}

	result := &domain.BatchEmbeddingResult{
		Embeddings: make([][]float32, len(res.Embeddings)),
	}
	for i, emb := range res.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding data received from gemini for input %d", i)
		}
		result.Embeddings[i] = truncate(emb.Values, p.dimensions)
		tokens := domain.EstimateTokens(valid[i])
		result.Usage.Input += tokens
		result.Usage.Total += tokens
	}
	return result, nil
}

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// ModelName returns the name of the embedding model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func validInput(text string) bool {
	return len(strings.TrimSpace(text)) >= domain.MinEmbeddingTextLength
}

func truncate(values []float32, dimensions int) []float32 {
	if dimensions > 0 && len(values) > dimensions {
		return values[:dimensions]
	}
	return values
}
