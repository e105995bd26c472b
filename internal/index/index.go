// Package index stores career documents with their embeddings and answers
// nearest-neighbour queries by cosine distance.
package index

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/types"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "careers"

var collectionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Store is a durable, named collection of career documents.
// Implementations are safe for concurrent use; an Upsert is observed by
// queries either entirely or not at all.
type Store interface {
	// Upsert inserts or replaces documents by id. A batch whose embedding
	// dimension disagrees with the collection is rejected whole.
	Upsert(ctx context.Context, docs []types.CareerDocument) error
	// QueryByEmbedding returns up to k documents by ascending cosine distance, ties by id.
	QueryByEmbedding(ctx context.Context, vec []float32, k int) (types.QueryResult, error)
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
	// Get returns one document by id.
	Get(ctx context.Context, id string) (types.CareerDocument, error)
	Close() error
}

// Open selects a store by location: a postgres:// or postgresql:// URI opens a
// PostgresStore, anything else is treated as a directory for a FileStore.
func Open(ctx context.Context, location, collection string) (Store, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	if !collectionPattern.MatchString(collection) {
		return nil, &errs.InputError{Message: fmt.Sprintf("invalid collection name %q", collection)}
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, &errs.ConfigError{Message: "vector index location is empty"}
	}

	if IsPostgresURI(location) {
		return OpenPostgres(ctx, location, collection)
	}
	return OpenFile(location, collection)
}

// IsPostgresURI reports whether location names a PostgreSQL database.
func IsPostgresURI(location string) bool {
	return strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://")
}

// CosineDistance returns 1 - cos(a, b). A zero-norm vector is at distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// sortHits orders hits by distance, then id.
func sortHits(hits []types.QueryHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
}

// validateBatch checks ids, finite components and a uniform embedding
// dimension and returns that dimension.
func validateBatch(docs []types.CareerDocument, want int) (int, error) {
	dim := want
	for i, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" {
			return 0, &errs.InputError{Message: fmt.Sprintf("document %d has no id", i)}
		}
		if len(doc.Embedding) == 0 {
			return 0, &errs.SchemaError{Message: "document has no embedding", Field: doc.ID}
		}
		if j := nonFinite(doc.Embedding); j >= 0 {
			return 0, &errs.SchemaError{
				Message: fmt.Sprintf("embedding component %d is not a finite number", j),
				Field:   doc.ID,
			}
		}
		if dim == 0 {
			dim = len(doc.Embedding)
			continue
		}
		if len(doc.Embedding) != dim {
			return 0, &errs.SchemaError{
				Message: fmt.Sprintf("embedding dimension %d does not match index dimension %d", len(doc.Embedding), dim),
				Field:   doc.ID,
			}
		}
	}
	return dim, nil
}

func validateQuery(vec []float32, k, dim int) error {
	if k < 1 {
		return &errs.InputError{Message: fmt.Sprintf("k must be at least 1, got %d", k)}
	}
	if len(vec) == 0 {
		return &errs.InputError{Message: "query embedding is empty"}
	}
	if j := nonFinite(vec); j >= 0 {
		return &errs.SchemaError{
			Message: fmt.Sprintf("query component %d is not a finite number", j),
			Field:   "embedding",
		}
	}
	if dim != 0 && len(vec) != dim {
		return &errs.SchemaError{
			Message: fmt.Sprintf("query dimension %d does not match index dimension %d", len(vec), dim),
			Field:   "embedding",
		}
	}
	return nil
}

// nonFinite returns the index of the first NaN or infinite component, or -1.
func nonFinite(vec []float32) int {
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return i
		}
	}
	return -1
}

func cloneMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneDocument(doc types.CareerDocument) types.CareerDocument {
	doc.Metadata = cloneMetadata(doc.Metadata)
	doc.Embedding = append([]float32(nil), doc.Embedding...)
	return doc
}
