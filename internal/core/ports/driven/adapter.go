package driven

import (
	"context"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// IndexAdapter is the boundary between the sync pipeline and a concrete
// search backend. All upserts are idempotent by record ID.
type IndexAdapter interface {
	// UpsertDocument creates or overwrites one record.
	UpsertDocument(ctx context.Context, table string, record domain.IndexRecord) error

	// UpsertDocuments creates or overwrites a batch of records in a
	// single backend operation.
	UpsertDocuments(ctx context.Context, table string, records []domain.IndexRecord) error

	// DeleteDocument removes the record with the given ID. It returns
	// domain.ErrNotFound when no such record exists; callers use this to
	// trigger the filter-delete fallback for chunked documents.
	DeleteDocument(ctx context.Context, table, id string) error

	// DeleteDocumentsByFilter removes zero or more records matching the
	// equality filter (e.g. parent_doc_id). A filter matching nothing is
	// a silent no-op.
	DeleteDocumentsByFilter(ctx context.Context, table string, filter map[string]any) error
}
