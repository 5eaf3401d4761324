package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexo-labs/contentsync/internal/chunker"
	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driven"
	"github.com/nexo-labs/contentsync/internal/core/ports/driving"
	"github.com/nexo-labs/contentsync/internal/fieldmap"
	"github.com/nexo-labs/contentsync/internal/logger"
)

// Ensure Syncer implements the interface.
var _ driving.DocumentSyncer = (*Syncer)(nil)

// Default retry policy for adapter writes.
const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = time.Second
)

// Syncer projects documents of one source collection into one index
// collection. It owns the lifecycle of every IndexRecord derived from a
// given source document: it is the only writer that creates or retires
// them.
//
// Indexing is best-effort relative to the source-of-truth write. Every
// error inside Sync and Delete is caught at the boundary, logged with
// document/collection/operation context, and swallowed.
type Syncer struct {
	adapter    driven.IndexAdapter
	embeddings *EmbeddingService
	table      domain.TableConfig
	tableName  string

	maxRetries   int
	retryBackoff time.Duration
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithMaxRetries sets the number of attempts for adapter writes.
func WithMaxRetries(n int) SyncerOption {
	return func(s *Syncer) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the base delay between adapter write attempts.
func WithRetryBackoff(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		if d >= 0 {
			s.retryBackoff = d
		}
	}
}

// NewSyncer creates a syncer for one table configuration. An invalid
// configuration is a fatal constructor error, not something recoverable at
// sync time. The embedding service is optional; when nil, records are
// indexed without vectors.
func NewSyncer(adapter driven.IndexAdapter, embeddings *EmbeddingService, table domain.TableConfig, opts ...SyncerOption) (*Syncer, error) {
	if adapter == nil {
		return nil, fmt.Errorf("%w: index adapter is required", domain.ErrInvalidInput)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("table config for %q: %w", table.Slug, err)
	}

	s := &Syncer{
		adapter:      adapter,
		embeddings:   embeddings,
		table:        table,
		tableName:    table.IndexCollectionName(),
		maxRetries:   defaultMaxRetries,
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TableName returns the derived index collection name.
func (s *Syncer) TableName() string {
	return s.tableName
}

// Sync indexes one document. Errors never propagate to the caller that
// triggered the document write.
func (s *Syncer) Sync(ctx context.Context, doc domain.SourceDocument, op domain.SyncOperation) {
	logger.Debug("Syncing document %s to table %s (%s)", doc.ID, s.tableName, op)

	var err error
	if s.table.Strategy == domain.StrategyChunked {
		err = s.syncChunked(ctx, doc, op)
	} else {
		err = s.syncWhole(ctx, doc)
	}

	if err != nil {
		logger.Error("Failed to sync document %s (collection %s, op %s): %v",
			doc.ID, s.table.Slug, op, err)
		return
	}
	logger.Info("Synced document %s to %s", doc.ID, s.tableName)
}

// syncWhole indexes the document as a single record.
func (s *Syncer) syncWhole(ctx context.Context, doc domain.SourceDocument) error {
	fields, err := fieldmap.Map(doc, s.table.Fields)
	if err != nil {
		return fmt.Errorf("map fields: %w", err)
	}

	s.attachStandardFields(fields, doc)
	record := domain.IndexRecord{
		ID:     doc.ID,
		Fields: fields,
	}

	if len(s.table.EmbedFields) > 0 && s.embeddings != nil {
		sourceText, err := fieldmap.ExtractSourceText(doc, s.table.EmbedFields)
		if err != nil {
			return fmt.Errorf("extract source text: %w", err)
		}
		if sourceText != "" {
			record.Embedding = s.embeddings.GetEmbedding(ctx, sourceText)
		}
	}

	return s.upsertWithRetry(ctx, func() error {
		return s.adapter.UpsertDocument(ctx, s.tableName, record)
	})
}

// syncChunked splits the document into chunk records. On update, stale
// chunks are removed first: a shifted chunk count or boundary must never
// leave orphans behind, so the delete has to complete before any upsert.
func (s *Syncer) syncChunked(ctx context.Context, doc domain.SourceDocument, op domain.SyncOperation) error {
	sourceText, err := fieldmap.ExtractSourceText(doc, s.table.EmbedFields)
	if err != nil {
		return fmt.Errorf("extract source text: %w", err)
	}
	if sourceText == "" {
		logger.Warn("No source text found for document %s", doc.ID)
		return nil
	}

	chunks := s.generateChunks(sourceText)

	fields, err := fieldmap.Map(doc, s.table.Fields)
	if err != nil {
		return fmt.Errorf("map fields: %w", err)
	}

	if op == domain.OpUpdate {
		err := s.adapter.DeleteDocumentsByFilter(ctx, s.tableName, map[string]any{
			"parent_doc_id": doc.ID,
		})
		if err != nil {
			return fmt.Errorf("delete stale chunks: %w", err)
		}
	}

	records := make([]domain.IndexRecord, 0, len(chunks))
	for _, chunk := range chunks {
		formatted := chunker.FormatWithHeaders(chunk)
		if s.table.Chunking.Intercept != nil {
			formatted = s.table.Chunking.Intercept(chunk, formatted, doc)
		}

		// A failed chunk embedding yields a record without a vector
		// rather than aborting the document.
		var embedding []float32
		if s.embeddings != nil {
			embedding = s.embeddings.GetEmbedding(ctx, formatted)
		}

		recordFields := map[string]any{
			"parent_doc_id": doc.ID,
			"chunk_index":   chunk.Index,
			"chunk_text":    formatted,
			"is_chunk":      true,
			"headers":       chunk.Headers,
		}
		for k, v := range fields {
			recordFields[k] = v
		}
		s.attachStandardFields(recordFields, doc)

		records = append(records, domain.IndexRecord{
			ID:        fmt.Sprintf("%s_chunk_%d", doc.ID, chunk.Index),
			Fields:    recordFields,
			Embedding: embedding,
		})
	}

	if len(records) == 0 {
		return nil
	}

	err = s.upsertWithRetry(ctx, func() error {
		return s.adapter.UpsertDocuments(ctx, s.tableName, records)
	})
	if err != nil {
		return err
	}

	logger.Info("Synced %d chunks for document %s to %s", len(records), doc.ID, s.tableName)
	return nil
}

// Delete removes a document from the index. A document that was chunked
// has no single record, so a direct-delete miss falls back to a filter
// delete on parent_doc_id. A document that was never indexed is a no-op.
func (s *Syncer) Delete(ctx context.Context, docID string) {
	logger.Debug("Deleting document %s from table %s", docID, s.tableName)

	err := s.adapter.DeleteDocument(ctx, s.tableName, docID)
	if err == nil {
		logger.Info("Deleted document %s from %s", docID, s.tableName)
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		logger.Error("Failed to delete document %s (collection %s): %v", docID, s.table.Slug, err)
		return
	}

	logger.Debug("Document %s not found, deleting chunks", docID)
	err = s.adapter.DeleteDocumentsByFilter(ctx, s.tableName, map[string]any{
		"parent_doc_id": docID,
	})
	if err != nil {
		logger.Error("Failed to delete chunks for document %s (collection %s): %v", docID, s.table.Slug, err)
		return
	}
	logger.Debug("Chunk delete completed for document %s", docID)
}

// generateChunks runs the configured splitting strategy.
func (s *Syncer) generateChunks(text string) []domain.TextChunk {
	opts := chunker.Options{
		MaxChunkSize: s.table.Chunking.Size,
		Overlap:      s.table.Chunking.Overlap,
	}
	if s.table.Chunking.Strategy == domain.ChunkMarkdown {
		return chunker.ChunkMarkdown(text, opts)
	}
	return chunker.ChunkText(text, opts)
}

// attachStandardFields adds the fields every index record carries.
// Timestamps are epoch milliseconds.
func (s *Syncer) attachStandardFields(fields map[string]any, doc domain.SourceDocument) {
	fields["slug"] = doc.Slug
	fields["createdAt"] = doc.CreatedAt.UnixMilli()
	fields["updatedAt"] = doc.UpdatedAt.UnixMilli()
	if doc.PublishedAt != nil {
		fields["publishedAt"] = doc.PublishedAt.UnixMilli()
	}
}

// upsertWithRetry attempts an adapter write with bounded retries and
// increasing delay. Exhausting the attempts surfaces the last error to the
// sync boundary, where it is dead-letter logged.
func (s *Syncer) upsertWithRetry(ctx context.Context, write func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		lastErr = write()
		if lastErr == nil {
			return nil
		}
		if attempt == s.maxRetries {
			break
		}
		logger.Warn("Adapter write failed (attempt %d/%d): %v", attempt, s.maxRetries, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * s.retryBackoff):
		}
	}
	return fmt.Errorf("adapter write after %d attempts: %w", s.maxRetries, lastErr)
}
