package services

import (
	"context"
	"errors"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// --- Mock implementations for syncer testing ---

// syncerMockAdapter implements driven.IndexAdapter with state tracking.
type syncerMockAdapter struct {
	mu      stdsync.Mutex
	records map[string]domain.IndexRecord

	upsertErr       error
	upsertFailures  int // fail this many calls before succeeding
	deleteErr       error
	filterDeleteErr error

	upsertCalls       int
	filterDeleteCalls int
	filterDeletes     []map[string]any
}

func newSyncerMockAdapter() *syncerMockAdapter {
	return &syncerMockAdapter{
		records: make(map[string]domain.IndexRecord),
	}
}

func (a *syncerMockAdapter) UpsertDocument(_ context.Context, _ string, record domain.IndexRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.upsertCalls++
	if a.upsertFailures > 0 {
		a.upsertFailures--
		return errors.New("transient upsert failure")
	}
	if a.upsertErr != nil {
		return a.upsertErr
	}
	a.records[record.ID] = record
	return nil
}

func (a *syncerMockAdapter) UpsertDocuments(ctx context.Context, collection string, records []domain.IndexRecord) error {
	a.mu.Lock()
	failuresLeft := a.upsertFailures > 0
	if failuresLeft {
		a.upsertFailures--
		a.upsertCalls++
	}
	a.mu.Unlock()
	if failuresLeft {
		return errors.New("transient batch failure")
	}
	for _, record := range records {
		if err := a.UpsertDocument(ctx, collection, record); err != nil {
			return err
		}
	}
	return nil
}

func (a *syncerMockAdapter) DeleteDocument(_ context.Context, _ string, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleteErr != nil {
		return a.deleteErr
	}
	if _, ok := a.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(a.records, id)
	return nil
}

func (a *syncerMockAdapter) DeleteDocumentsByFilter(_ context.Context, _ string, filter map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.filterDeleteCalls++
	a.filterDeletes = append(a.filterDeletes, filter)
	if a.filterDeleteErr != nil {
		return a.filterDeleteErr
	}
	for id, record := range a.records {
		match := true
		for k, want := range filter {
			if record.Fields[k] != want {
				match = false
				break
			}
		}
		if match {
			delete(a.records, id)
		}
	}
	return nil
}

// syncerMockProvider implements driven.EmbeddingProvider.
type syncerMockProvider struct {
	embedding []float32
	err       error
	calls     int
}

func (p *syncerMockProvider) GenerateEmbedding(_ context.Context, text string) (*domain.EmbeddingResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if len(text) < domain.MinEmbeddingTextLength {
		return nil, nil
	}
	emb := p.embedding
	if emb == nil {
		emb = []float32{0.1, 0.2, 0.3}
	}
	return &domain.EmbeddingResult{
		Embedding: emb,
		Usage:     domain.TokenUsage{Input: 10, Total: 10},
	}, nil
}

func (p *syncerMockProvider) GenerateBatchEmbeddings(ctx context.Context, texts []string) (*domain.BatchEmbeddingResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	result := &domain.BatchEmbeddingResult{}
	for _, text := range texts {
		single, err := p.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		if single == nil {
			continue
		}
		result.Embeddings = append(result.Embeddings, single.Embedding)
		result.Usage.Input += single.Usage.Input
		result.Usage.Total += single.Usage.Total
	}
	return result, nil
}

func (p *syncerMockProvider) Dimensions() int   { return 3 }
func (p *syncerMockProvider) ModelName() string { return "mock-embed" }
func (p *syncerMockProvider) Close() error      { return nil }

func testDoc(id string, fields map[string]any) domain.SourceDocument {
	return domain.SourceDocument{
		ID:        id,
		Slug:      "posts",
		Fields:    fields,
		CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
}

func wholeTable() domain.TableConfig {
	return domain.TableConfig{
		Slug:     "posts",
		Strategy: domain.StrategyWhole,
		Fields: []domain.FieldMapping{
			{Source: "title"},
		},
		EmbedFields: []domain.SourceField{
			{Field: "title"},
		},
	}
}

func chunkedTable() domain.TableConfig {
	return domain.TableConfig{
		Slug:           "articles",
		CollectionName: "article_web_chunk",
		Strategy:       domain.StrategyChunked,
		Fields: []domain.FieldMapping{
			{Source: "title"},
		},
		EmbedFields: []domain.SourceField{
			{Field: "body"},
		},
		Chunking: &domain.ChunkingConfig{
			Strategy: domain.ChunkPlain,
			Size:     120,
			Overlap:  20,
		},
	}
}

// --- Tests ---

func TestNewSyncer_InvalidConfig(t *testing.T) {
	adapter := newSyncerMockAdapter()

	_, err := NewSyncer(adapter, nil, domain.TableConfig{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestNewSyncer_NilAdapter(t *testing.T) {
	_, err := NewSyncer(nil, nil, wholeTable())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSyncer_Sync_Whole(t *testing.T) {
	adapter := newSyncerMockAdapter()
	embeddings := NewEmbeddingService(&syncerMockProvider{}, nil)

	syncer, err := NewSyncer(adapter, embeddings, wholeTable())
	require.NoError(t, err)
	assert.Equal(t, "posts", syncer.TableName())

	doc := testDoc("doc-1", map[string]any{"title": "Hello"})
	syncer.Sync(context.Background(), doc, domain.OpCreate)

	record, ok := adapter.records["doc-1"]
	require.True(t, ok)
	assert.Equal(t, "Hello", record.Fields["title"])
	assert.Equal(t, "posts", record.Fields["slug"])
	assert.Equal(t, doc.CreatedAt.UnixMilli(), record.Fields["createdAt"])
	assert.Equal(t, doc.UpdatedAt.UnixMilli(), record.Fields["updatedAt"])
	assert.NotContains(t, record.Fields, "publishedAt")
	assert.NotEmpty(t, record.Embedding)
}

func TestSyncer_Sync_Whole_PublishedAt(t *testing.T) {
	adapter := newSyncerMockAdapter()

	syncer, err := NewSyncer(adapter, nil, wholeTable())
	require.NoError(t, err)

	doc := testDoc("doc-1", map[string]any{"title": "Hello"})
	published := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	doc.PublishedAt = &published

	syncer.Sync(context.Background(), doc, domain.OpCreate)

	record := adapter.records["doc-1"]
	assert.Equal(t, published.UnixMilli(), record.Fields["publishedAt"])
}

func TestSyncer_Sync_Whole_EmbeddingFailureDoesNotBlock(t *testing.T) {
	adapter := newSyncerMockAdapter()
	embeddings := NewEmbeddingService(&syncerMockProvider{err: errors.New("provider down")}, nil)

	syncer, err := NewSyncer(adapter, embeddings, wholeTable())
	require.NoError(t, err)

	syncer.Sync(context.Background(), testDoc("doc-1", map[string]any{"title": "Hello"}), domain.OpCreate)

	record, ok := adapter.records["doc-1"]
	require.True(t, ok, "document should be indexed without an embedding")
	assert.Nil(t, record.Embedding)
}

func TestSyncer_Sync_Chunked_Create(t *testing.T) {
	adapter := newSyncerMockAdapter()
	embeddings := NewEmbeddingService(&syncerMockProvider{}, nil)

	syncer, err := NewSyncer(adapter, embeddings, chunkedTable())
	require.NoError(t, err)
	assert.Equal(t, "article_web_chunk", syncer.TableName())

	body := "This is a long article body that will be split into several chunks for indexing purposes."
	doc := testDoc("doc-1", map[string]any{"title": "Hello", "body": body})

	syncer.Sync(context.Background(), doc, domain.OpCreate)

	require.NotEmpty(t, adapter.records)
	assert.Zero(t, adapter.filterDeleteCalls, "create must not delete stale chunks")

	chunk0, ok := adapter.records["doc-1_chunk_0"]
	require.True(t, ok)
	assert.Equal(t, "doc-1", chunk0.Fields["parent_doc_id"])
	assert.Equal(t, 0, chunk0.Fields["chunk_index"])
	assert.Equal(t, true, chunk0.Fields["is_chunk"])
	assert.Equal(t, "Hello", chunk0.Fields["title"])
	assert.NotEmpty(t, chunk0.Fields["chunk_text"])
	assert.NotEmpty(t, chunk0.Embedding)
}

func TestSyncer_Sync_Chunked_UpdateDeletesStaleChunksFirst(t *testing.T) {
	adapter := newSyncerMockAdapter()

	syncer, err := NewSyncer(adapter, nil, chunkedTable())
	require.NoError(t, err)

	ctx := context.Background()
	longBody := strings.Repeat("alpha beta gamma delta ", 12) // 276 chars, several chunks
	doc := testDoc("doc-1", map[string]any{"title": "Hello", "body": longBody})
	syncer.Sync(ctx, doc, domain.OpCreate)
	initial := len(adapter.records)
	require.Greater(t, initial, 1)

	// Shrinking the body must not leave orphaned high-index chunks.
	doc.Fields["body"] = "short body"
	syncer.Sync(ctx, doc, domain.OpUpdate)

	assert.Equal(t, 1, adapter.filterDeleteCalls)
	assert.Equal(t, map[string]any{"parent_doc_id": "doc-1"}, adapter.filterDeletes[0])
	assert.Len(t, adapter.records, 1)
	_, ok := adapter.records["doc-1_chunk_0"]
	assert.True(t, ok)
}

func TestSyncer_Sync_Chunked_Idempotent(t *testing.T) {
	adapter := newSyncerMockAdapter()

	syncer, err := NewSyncer(adapter, nil, chunkedTable())
	require.NoError(t, err)

	ctx := context.Background()
	doc := testDoc("doc-1", map[string]any{"title": "Hello", "body": "stable body text for the article"})

	syncer.Sync(ctx, doc, domain.OpCreate)
	first := len(adapter.records)
	syncer.Sync(ctx, doc, domain.OpUpdate)

	assert.Equal(t, first, len(adapter.records), "re-syncing the same document must not grow the index")
}

func TestSyncer_Sync_Chunked_DeleteFailureAbortsUpsert(t *testing.T) {
	adapter := newSyncerMockAdapter()
	adapter.filterDeleteErr = errors.New("filter delete unavailable")

	syncer, err := NewSyncer(adapter, nil, chunkedTable())
	require.NoError(t, err)

	doc := testDoc("doc-1", map[string]any{"title": "Hello", "body": "body text"})
	syncer.Sync(context.Background(), doc, domain.OpUpdate)

	assert.Empty(t, adapter.records, "upsert must not run when stale-chunk delete fails")
}

func TestSyncer_Sync_Chunked_EmptySourceText(t *testing.T) {
	adapter := newSyncerMockAdapter()

	syncer, err := NewSyncer(adapter, nil, chunkedTable())
	require.NoError(t, err)

	doc := testDoc("doc-1", map[string]any{"title": "Hello", "body": ""})
	syncer.Sync(context.Background(), doc, domain.OpCreate)

	assert.Empty(t, adapter.records)
	assert.Zero(t, adapter.upsertCalls)
}

func TestSyncer_Sync_Chunked_InterceptHook(t *testing.T) {
	adapter := newSyncerMockAdapter()
	table := chunkedTable()
	table.Chunking.Intercept = func(_ domain.TextChunk, formatted string, doc domain.SourceDocument) string {
		return "Title: Hello\n\n" + formatted
	}

	syncer, err := NewSyncer(adapter, nil, table)
	require.NoError(t, err)

	doc := testDoc("doc-1", map[string]any{"title": "Hello", "body": "body text"})
	syncer.Sync(context.Background(), doc, domain.OpCreate)

	record := adapter.records["doc-1_chunk_0"]
	assert.Contains(t, record.Fields["chunk_text"], "Title: Hello")
}

func TestSyncer_Sync_RetriesTransientFailures(t *testing.T) {
	adapter := newSyncerMockAdapter()
	adapter.upsertFailures = 2

	syncer, err := NewSyncer(adapter, nil, wholeTable(),
		WithMaxRetries(3), WithRetryBackoff(time.Millisecond))
	require.NoError(t, err)

	syncer.Sync(context.Background(), testDoc("doc-1", map[string]any{"title": "Hello"}), domain.OpCreate)

	assert.Equal(t, 3, adapter.upsertCalls)
	_, ok := adapter.records["doc-1"]
	assert.True(t, ok)
}

func TestSyncer_Sync_ExhaustedRetriesSwallowed(t *testing.T) {
	adapter := newSyncerMockAdapter()
	adapter.upsertErr = errors.New("index permanently down")

	syncer, err := NewSyncer(adapter, nil, wholeTable(),
		WithMaxRetries(2), WithRetryBackoff(time.Millisecond))
	require.NoError(t, err)

	// Must not panic or surface the error.
	syncer.Sync(context.Background(), testDoc("doc-1", map[string]any{"title": "Hello"}), domain.OpCreate)

	assert.Empty(t, adapter.records)
	assert.Equal(t, 2, adapter.upsertCalls)
}

func TestSyncer_Delete_Whole(t *testing.T) {
	adapter := newSyncerMockAdapter()

	syncer, err := NewSyncer(adapter, nil, wholeTable())
	require.NoError(t, err)

	ctx := context.Background()
	syncer.Sync(ctx, testDoc("doc-1", map[string]any{"title": "Hello"}), domain.OpCreate)
	require.Len(t, adapter.records, 1)

	syncer.Delete(ctx, "doc-1")

	assert.Empty(t, adapter.records)
	assert.Zero(t, adapter.filterDeleteCalls, "direct delete hit must not fall back")
}

func TestSyncer_Delete_ChunkedFallback(t *testing.T) {
	adapter := newSyncerMockAdapter()

	syncer, err := NewSyncer(adapter, nil, chunkedTable())
	require.NoError(t, err)

	ctx := context.Background()
	doc := testDoc("doc-1", map[string]any{"title": "Hello", "body": "long enough body text to make at least one chunk"})
	syncer.Sync(ctx, doc, domain.OpCreate)
	require.NotEmpty(t, adapter.records)
	adapter.filterDeleteCalls = 0
	adapter.filterDeletes = nil

	// No record has the bare document id, so the direct delete misses and
	// the filter fallback removes the chunks.
	syncer.Delete(ctx, "doc-1")

	assert.Empty(t, adapter.records)
	assert.Equal(t, 1, adapter.filterDeleteCalls)
	assert.Equal(t, map[string]any{"parent_doc_id": "doc-1"}, adapter.filterDeletes[0])
}

func TestSyncer_Delete_NeverSynced(t *testing.T) {
	adapter := newSyncerMockAdapter()

	syncer, err := NewSyncer(adapter, nil, wholeTable())
	require.NoError(t, err)

	// Both paths miss; nothing raised, nothing changed.
	syncer.Delete(context.Background(), "ghost")

	assert.Empty(t, adapter.records)
	assert.Equal(t, 1, adapter.filterDeleteCalls)
}
