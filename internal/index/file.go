package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/types"
)

// FileStore keeps the collection in memory and persists it as one JSON file.
// Readers work on an immutable snapshot; writers build a new snapshot, persist
// it and then swap it in under a short lock.
type FileStore struct {
	path       string // "" for a memory-only store
	collection string

	writeMu sync.Mutex
	mu      sync.RWMutex
	snap    *snapshot
}

type snapshot struct {
	dimension int
	docs      map[string]types.CareerDocument
}

// fileFormat is the on-disk layout of a collection.
type fileFormat struct {
	Collection string                 `json:"collection"`
	Dimension  int                    `json:"dimension"`
	Documents  []types.CareerDocument `json:"documents"`
}

// OpenFile opens (creating if needed) the collection stored under dir.
func OpenFile(dir, collection string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &errs.UpstreamError{Message: fmt.Sprintf("failed to create index directory %s", dir), Cause: err}
	}

	s := &FileStore{
		path:       filepath.Join(dir, collection+".json"),
		collection: collection,
		snap:       &snapshot{docs: map[string]types.CareerDocument{}},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	log.Printf("[INDEX] opened %s (%d documents)", s.path, len(s.snap.docs))
	return s, nil
}

// NewMemoryStore returns a FileStore that never touches the filesystem.
func NewMemoryStore() *FileStore {
	return &FileStore{
		collection: DefaultCollection,
		snap:       &snapshot{docs: map[string]types.CareerDocument{}},
	}
}

// Path returns the backing file, or "" for a memory-only store.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &errs.UpstreamError{Message: fmt.Sprintf("failed to read index %s", s.path), Cause: err}
	}

	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		return &errs.SchemaError{Message: fmt.Sprintf("corrupt index file %s", s.path), Cause: err}
	}
	dim, err := validateBatch(file.Documents, file.Dimension)
	if err != nil {
		return err
	}

	snap := &snapshot{dimension: dim, docs: make(map[string]types.CareerDocument, len(file.Documents))}
	for _, doc := range file.Documents {
		snap.docs[doc.ID] = doc
	}
	s.snap = snap
	return nil
}

func (s *FileStore) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Upsert implements Store.
func (s *FileStore) Upsert(ctx context.Context, docs []types.CareerDocument) error {
	if len(docs) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return &errs.UpstreamError{Message: "upsert cancelled", Cause: err}
	}

	old := s.current()
	dim, err := validateBatch(docs, old.dimension)
	if err != nil {
		return err
	}

	next := &snapshot{dimension: dim, docs: make(map[string]types.CareerDocument, len(old.docs)+len(docs))}
	for id, doc := range old.docs {
		next.docs[id] = doc
	}
	for _, doc := range docs {
		next.docs[doc.ID] = cloneDocument(doc)
	}

	if err := s.persist(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	return nil
}

// persist writes the snapshot to a temp file and renames it over the index file.
func (s *FileStore) persist(snap *snapshot) error {
	if s.path == "" {
		return nil
	}

	file := fileFormat{Collection: s.collection, Dimension: snap.dimension, Documents: snap.sorted()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &errs.UpstreamError{Message: "failed to create temp index file", Cause: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &errs.UpstreamError{Message: "failed to write index", Cause: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &errs.UpstreamError{Message: "failed to sync index", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &errs.UpstreamError{Message: "failed to close index", Cause: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &errs.UpstreamError{Message: "failed to replace index", Cause: err}
	}
	return nil
}

func (snap *snapshot) sorted() []types.CareerDocument {
	out := make([]types.CareerDocument, 0, len(snap.docs))
	for _, doc := range snap.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// QueryByEmbedding implements Store.
func (s *FileStore) QueryByEmbedding(ctx context.Context, vec []float32, k int) (types.QueryResult, error) {
	snap := s.current()
	if err := validateQuery(vec, k, snap.dimension); err != nil {
		return types.QueryResult{}, err
	}

	hits := make([]types.QueryHit, 0, len(snap.docs))
	for _, doc := range snap.docs {
		if err := ctx.Err(); err != nil {
			return types.QueryResult{}, &errs.UpstreamError{Message: "query cancelled", Cause: err}
		}
		hits = append(hits, types.QueryHit{
			ID:       doc.ID,
			Text:     doc.Text,
			Metadata: cloneMetadata(doc.Metadata),
			Distance: CosineDistance(vec, doc.Embedding),
		})
	}
	sortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return types.QueryResult{Results: hits}, nil
}

// Count implements Store.
func (s *FileStore) Count(context.Context) (int, error) {
	return len(s.current().docs), nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, id string) (types.CareerDocument, error) {
	doc, ok := s.current().docs[id]
	if !ok {
		return types.CareerDocument{}, &errs.NotFoundError{Resource: "document", ID: id}
	}
	return cloneDocument(doc), nil
}

// Close implements Store. Every Upsert is already on disk.
func (s *FileStore) Close() error {
	return nil
}
