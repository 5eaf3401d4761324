// Package chunker splits document text into bounded, overlapping segments
// for indexing and embedding. Plain text is chunked greedily; markdown is
// split on heading boundaries first so each chunk keeps its heading path.
package chunker

import (
	"strings"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// MinChunkSize is the smallest permitted chunk size.
const MinChunkSize = 100

// MaxChunkSize is the largest permitted chunk size.
const MaxChunkSize = 8000

// Options configures chunk size and overlap. The zero value selects the
// defaults.
type Options struct {
	// MaxChunkSize is the maximum chunk size in characters. Clamped to
	// [MinChunkSize, MaxChunkSize].
	MaxChunkSize int

	// Overlap is the number of characters each chunk shares with its
	// predecessor. An overlap at or above the chunk size is a
	// configuration error and is reduced to a quarter of the size.
	Overlap int
}

// normalise applies defaults and clamps the options into valid bounds.
func (o Options) normalise() Options {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultChunkSize
	}
	if o.MaxChunkSize < MinChunkSize {
		o.MaxChunkSize = MinChunkSize
	}
	if o.MaxChunkSize > MaxChunkSize {
		o.MaxChunkSize = MaxChunkSize
	}
	if o.Overlap < 0 {
		o.Overlap = DefaultOverlap
	}
	if o.Overlap >= o.MaxChunkSize {
		o.Overlap = o.MaxChunkSize / 4
	}
	return o
}

// ShouldChunk reports whether text exceeds maxChunkSize. Callers use it to
// choose whole-document vs. chunked sync without duplicating size logic.
func ShouldChunk(text string, maxChunkSize int) bool {
	return len(text) > maxChunkSize
}

// ChunkText splits text into fixed-size chunks with overlap. Empty text
// yields no chunks; text within the size bound yields exactly one chunk.
func ChunkText(text string, opts Options) []domain.TextChunk {
	opts = opts.normalise()
	return chunkWithHeaders(text, nil, opts)
}

// chunkWithHeaders runs the greedy accumulation algorithm, attaching the
// given heading path to every produced chunk. Indices start at 0; callers
// that combine sections reindex afterwards.
func chunkWithHeaders(text string, headers []string, opts Options) []domain.TextChunk {
	if text == "" {
		return nil
	}

	size := opts.MaxChunkSize
	step := size - opts.Overlap

	if len(text) <= size {
		return []domain.TextChunk{{Index: 0, Text: text, Headers: headers}}
	}

	estimated := (len(text) / step) + 1
	chunks := make([]domain.TextChunk, 0, estimated)

	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, domain.TextChunk{
			Index:   len(chunks),
			Text:    text[start:end],
			Headers: headers,
		})
		if end == len(text) {
			break
		}
	}

	return chunks
}

// FormatWithHeaders prefixes chunk text with its heading breadcrumb so the
// embedded text retains document structure.
func FormatWithHeaders(chunk domain.TextChunk) string {
	if len(chunk.Headers) == 0 {
		return chunk.Text
	}
	return strings.Join(chunk.Headers, " > ") + "\n\n" + chunk.Text
}
