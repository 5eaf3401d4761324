// Package qdrant provides an index adapter backed by a Qdrant vector
// database.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.IndexAdapter = (*Index)(nil)

// Default connection values.
const (
	DefaultHost = "localhost"
	DefaultPort = 6334
)

// recordIDKey is the payload field holding the original record ID. Qdrant
// point IDs must be UUIDs, so string record IDs are mapped through a
// deterministic UUID and the original is kept in the payload.
const recordIDKey = "record_id"

// pointNamespace seeds the deterministic record-ID-to-point-ID mapping.
// Changing it orphans every previously written point.
var pointNamespace = uuid.MustParse("d94e695e-96dc-44a6-8e1b-6d2f816ee0c5")

// Config holds connection settings for the Qdrant adapter.
type Config struct {
	// Host is the Qdrant gRPC host (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// APIKey authenticates against a secured deployment (optional).
	APIKey string

	// UseTLS enables transport security.
	UseTLS bool

	// Dimensions is the vector size for created collections (default:
	// domain.DefaultEmbeddingDimensions).
	Dimensions int
}

// Index is a Qdrant-backed implementation of driven.IndexAdapter.
type Index struct {
	client     *qdrant.Client
	dimensions int
}

// NewIndex connects to Qdrant.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = domain.DefaultEmbeddingDimensions
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	return &Index{
		client:     client,
		dimensions: cfg.Dimensions,
	}, nil
}

// EnsureCollection creates the collection if it does not exist yet.
func (idx *Index) EnsureCollection(ctx context.Context, table string) error {
	exists, err := idx.client.CollectionExists(ctx, table)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", table, err)
	}
	if exists {
		return nil
	}

	err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: table,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(idx.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", table, err)
	}
	return nil
}

// UpsertDocument creates or overwrites one record.
func (idx *Index) UpsertDocument(ctx context.Context, table string, record domain.IndexRecord) error {
	return idx.UpsertDocuments(ctx, table, []domain.IndexRecord{record})
}

// UpsertDocuments creates or overwrites a batch of records in one call.
func (idx *Index) UpsertDocuments(ctx context.Context, table string, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, record := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(record.ID)),
			Vectors: qdrant.NewVectors(idx.vectorFor(record)...),
			Payload: qdrant.NewValueMap(payloadFor(record)),
		}
	}

	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: table,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), table, err)
	}
	return nil
}

// DeleteDocument removes the record with the given ID. It returns
// domain.ErrNotFound when no such record exists.
func (idx *Index) DeleteDocument(ctx context.Context, table, id string) error {
	pid := qdrant.NewID(pointID(id))

	found, err := idx.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: table,
		Ids:            []*qdrant.PointId{pid},
	})
	if err != nil {
		return fmt.Errorf("get point %s from %s: %w", id, table, err)
	}
	if len(found) == 0 {
		return fmt.Errorf("record %s in %s: %w", id, table, domain.ErrNotFound)
	}

	_, err = idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: table,
		Points:         qdrant.NewPointsSelector(pid),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("delete point %s from %s: %w", id, table, err)
	}
	return nil
}

// DeleteDocumentsByFilter removes records matching the equality filter. A
// filter matching nothing is a silent no-op.
func (idx *Index) DeleteDocumentsByFilter(ctx context.Context, table string, filter map[string]any) error {
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for key, value := range filter {
		condition, err := matchCondition(key, value)
		if err != nil {
			return err
		}
		conditions = append(conditions, condition)
	}

	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: table,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: conditions,
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("delete by filter from %s: %w", table, err)
	}
	return nil
}

// Close releases the underlying connection.
func (idx *Index) Close() error {
	return idx.client.Close()
}

// pointID derives the deterministic Qdrant point UUID for a record ID.
func pointID(recordID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(recordID)).String()
}

// vectorFor returns the record's embedding, or a zero vector when the
// record was indexed without one.
func (idx *Index) vectorFor(record domain.IndexRecord) []float32 {
	if len(record.Embedding) > 0 {
		return record.Embedding
	}
	return make([]float32, idx.dimensions)
}

// payloadFor flattens record fields into a Qdrant payload, keeping the
// original record ID alongside them.
func payloadFor(record domain.IndexRecord) map[string]any {
	payload := make(map[string]any, len(record.Fields)+1)
	for k, v := range record.Fields {
		payload[k] = payloadValue(v)
	}
	payload[recordIDKey] = record.ID
	return payload
}

// payloadValue converts field values into shapes the payload codec accepts.
func payloadValue(v any) any {
	switch val := v.(type) {
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return items
	default:
		return v
	}
}

// matchCondition builds an equality condition for one filter entry.
func matchCondition(key string, value any) (*qdrant.Condition, error) {
	switch val := value.(type) {
	case string:
		return qdrant.NewMatch(key, val), nil
	case bool:
		return qdrant.NewMatchBool(key, val), nil
	case int:
		return qdrant.NewMatchInt(key, int64(val)), nil
	case int64:
		return qdrant.NewMatchInt(key, val), nil
	default:
		return nil, fmt.Errorf("%w: unsupported filter value type %T for %s", domain.ErrInvalidInput, value, key)
	}
}
