package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding provider is not
	// configured. Vector fields are skipped without it.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrNoStreamBody indicates the retrieval backend returned no body.
	// No partial processing is meaningful, so this is fatal.
	ErrNoStreamBody = errors.New("stream body is nil")

	// ErrSessionClosed indicates a write against a closed session.
	// Closing is monotonic; closed sessions never accept turns.
	ErrSessionClosed = errors.New("session is closed")
)
