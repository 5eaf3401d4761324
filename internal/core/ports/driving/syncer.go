package driving

import (
	"context"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// DocumentSyncer projects source documents into the search index.
//
// Indexing is best-effort relative to the source-of-truth write: Sync and
// Delete never return indexing errors to the caller that triggered the
// document write; failures are logged and swallowed at the service
// boundary.
type DocumentSyncer interface {
	// Sync indexes one document according to the table configuration.
	Sync(ctx context.Context, doc domain.SourceDocument, op domain.SyncOperation)

	// Delete removes a document (or its chunks) from the index. Deleting
	// a document that was never indexed is a no-op, not a failure.
	Delete(ctx context.Context, docID string)
}
