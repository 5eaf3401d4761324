// Package memory provides an in-memory index adapter for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.IndexAdapter = (*Index)(nil)

// Index is an in-memory implementation of driven.IndexAdapter.
type Index struct {
	mu     sync.RWMutex
	tables map[string]map[string]domain.IndexRecord
}

// NewIndex creates a new in-memory index.
func NewIndex() *Index {
	return &Index{
		tables: make(map[string]map[string]domain.IndexRecord),
	}
}

// UpsertDocument stores or overwrites one record.
func (idx *Index) UpsertDocument(_ context.Context, table string, record domain.IndexRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.table(table)[record.ID] = record
	return nil
}

// UpsertDocuments stores or overwrites a batch of records.
func (idx *Index) UpsertDocuments(_ context.Context, table string, records []domain.IndexRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	t := idx.table(table)
	for _, record := range records {
		t[record.ID] = record
	}
	return nil
}

// DeleteDocument removes the record with the given ID.
func (idx *Index) DeleteDocument(_ context.Context, table, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	t, ok := idx.tables[table]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := t[id]; !ok {
		return domain.ErrNotFound
	}
	delete(t, id)
	return nil
}

// DeleteDocumentsByFilter removes records matching the equality filter. A
// filter matching nothing is a silent no-op.
func (idx *Index) DeleteDocumentsByFilter(_ context.Context, table string, filter map[string]any) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	t, ok := idx.tables[table]
	if !ok {
		return nil
	}
	for id, record := range t {
		if matches(record, filter) {
			delete(t, id)
		}
	}
	return nil
}

// Get returns a stored record, for inspection in tests.
func (idx *Index) Get(table, id string) (domain.IndexRecord, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	record, ok := idx.tables[table][id]
	return record, ok
}

// Count returns the number of records in a table.
func (idx *Index) Count(table string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.tables[table])
}

func (idx *Index) table(name string) map[string]domain.IndexRecord {
	t, ok := idx.tables[name]
	if !ok {
		t = make(map[string]domain.IndexRecord)
		idx.tables[name] = t
	}
	return t
}

func matches(record domain.IndexRecord, filter map[string]any) bool {
	for k, want := range filter {
		if record.Fields[k] != want {
			return false
		}
	}
	return true
}
