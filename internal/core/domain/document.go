package domain

import "time"

// SourceDocument is a content record handed to the sync pipeline by the
// collaborator store. Beyond the identity and timestamp fields every value
// lives in Fields, keyed by the source collection's field names.
type SourceDocument struct {
	// ID is the stable identifier within the source collection.
	ID string

	// Slug is the optional URL-friendly identifier.
	Slug string

	// Fields contains the named field values of the document.
	Fields map[string]any

	// CreatedAt is when the document was created in the source store.
	CreatedAt time.Time

	// UpdatedAt is when the document was last written in the source store.
	UpdatedAt time.Time

	// PublishedAt is set when the document has been published.
	PublishedAt *time.Time
}

// TextChunk is a bounded slice of extracted text produced by the chunker.
type TextChunk struct {
	// Index is the 0-based, contiguous position within the document.
	Index int

	// Text is the chunk content.
	Text string

	// Headers is the active markdown heading path (H1..H6) for this chunk.
	// Empty for plain-text chunking.
	Headers []string
}

// IndexRecord is a unit stored in the search backend. For chunked documents
// the chunk linkage fields (parent_doc_id, chunk_index, is_chunk) live in
// Fields so the adapter can filter on them.
type IndexRecord struct {
	// ID is deterministic: "{docID}" for whole-document records,
	// "{docID}_chunk_{index}" for chunk records.
	ID string

	// Fields holds the denormalised field values.
	Fields map[string]any

	// Embedding is the vector representation, or nil when embedding was
	// not configured or failed.
	Embedding []float32
}
