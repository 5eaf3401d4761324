package domain

import "fmt"

// SyncOperation is the write operation that triggered a sync.
type SyncOperation string

const (
	// OpCreate marks a first-time document write.
	OpCreate SyncOperation = "create"

	// OpUpdate marks a subsequent document write. Chunked updates delete
	// stale chunks before upserting new ones.
	OpUpdate SyncOperation = "update"
)

// SyncStrategy selects how a source collection is projected into the index.
type SyncStrategy int

const (
	// StrategyWhole indexes each document as a single record.
	StrategyWhole SyncStrategy = iota

	// StrategyChunked splits each document into overlapping chunk records.
	StrategyChunked
)

// ChunkStrategy selects the text splitting algorithm for chunked tables.
type ChunkStrategy string

const (
	// ChunkPlain is greedy fixed-size splitting.
	ChunkPlain ChunkStrategy = "text"

	// ChunkMarkdown splits on heading boundaries first, tracking the
	// heading path per chunk.
	ChunkMarkdown ChunkStrategy = "markdown"
)

// TransformFunc derives text from a raw source field value.
type TransformFunc func(value any) (string, error)

// FieldMapping declares how one source field is projected into the index
// schema. Transform is optional; when nil the value is carried as-is.
type FieldMapping struct {
	// Source is the field name on the source document.
	Source string

	// Target is the field name in the index record. Defaults to Source.
	Target string

	// Transform optionally rewrites the value before indexing.
	Transform TransformFunc
}

// SourceField names a field contributing to the embedding source text.
type SourceField struct {
	// Field is the field name on the source document.
	Field string

	// Transform optionally converts the raw value to text. When nil,
	// rich-text-shaped values are JSON-serialised and everything else is
	// stringified.
	Transform TransformFunc
}

// InterceptFunc rewrites a chunk's formatted text before it is embedded.
// It receives the chunk, its header-prefixed text and the source document,
// and returns the text to embed and index.
type InterceptFunc func(chunk TextChunk, formatted string, doc SourceDocument) string

// ChunkingConfig configures the chunked sync strategy for a table.
type ChunkingConfig struct {
	// Strategy is the splitting algorithm (defaults to ChunkPlain).
	Strategy ChunkStrategy

	// Size is the maximum chunk size in characters.
	Size int

	// Overlap is the number of characters shared with the previous chunk.
	Overlap int

	// Intercept optionally rewrites formatted chunk text before embedding.
	Intercept InterceptFunc
}

// TableConfig describes how one source collection maps onto one index
// collection.
type TableConfig struct {
	// Slug is the source collection slug (required).
	Slug string

	// CollectionName overrides the derived index collection name.
	CollectionName string

	// Strategy selects whole-document or chunked indexing.
	Strategy SyncStrategy

	// Fields are the declarative field projections.
	Fields []FieldMapping

	// EmbedFields name the source fields concatenated into embedding text.
	EmbedFields []SourceField

	// Chunking configures splitting; required when Strategy is
	// StrategyChunked.
	Chunking *ChunkingConfig
}

// Validate checks the configuration for fatal errors. A missing collection
// name or an incoherent strategy is a configuration error, not something
// recoverable at sync time.
func (c *TableConfig) Validate() error {
	if c.Slug == "" && c.CollectionName == "" {
		return fmt.Errorf("%w: table config requires a slug or collection name", ErrInvalidInput)
	}
	if c.Strategy == StrategyChunked && c.Chunking == nil {
		return fmt.Errorf("%w: chunked strategy requires a chunking config", ErrInvalidInput)
	}
	if c.Strategy == StrategyWhole && c.Chunking != nil {
		return fmt.Errorf("%w: chunking config is only valid for the chunked strategy", ErrInvalidInput)
	}
	return nil
}

// IndexCollectionName derives the destination collection name. The mapping
// is pure: an explicit override wins, otherwise the source slug is used.
func (c *TableConfig) IndexCollectionName() string {
	if c.CollectionName != "" {
		return c.CollectionName
	}
	return c.Slug
}
