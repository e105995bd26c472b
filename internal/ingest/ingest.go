// Package ingest embeds seed career descriptions and loads them into the vector index.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/career-path/internal/catalog"
	"github.com/jonathan/career-path/internal/embedding"
	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/index"
	"github.com/jonathan/career-path/internal/llm"
	"github.com/jonathan/career-path/internal/types"
)

// Ingestor writes catalog entries into a Store.
type Ingestor struct {
	engine *embedding.Engine
	store  index.Store
}

// Report summarizes one ingestion run.
type Report struct {
	Documents int           `json:"documents"`
	Total     int           `json:"total"` // documents in the index afterwards
	IDs       []string      `json:"ids"`
	Duration  time.Duration `json:"duration"`
}

// New creates an Ingestor.
func New(engine *embedding.Engine, store index.Store) *Ingestor {
	return &Ingestor{engine: engine, store: store}
}

// Run embeds every entry and then upserts the whole batch in one call.
// An embedding failure aborts before anything is written. Re-running with the
// same entries replaces rows by id, so the document count does not grow.
func (i *Ingestor) Run(ctx context.Context, entries []catalog.Entry) (*Report, error) {
	if len(entries) == 0 {
		return nil, &errs.InputError{Message: "no documents to ingest"}
	}
	start := time.Now()

	inputs := make([]string, len(entries))
	for n, e := range entries {
		if e.ID == "" {
			return nil, &errs.InputError{Message: fmt.Sprintf("entry %q has no id", e.Role)}
		}
		inputs[n] = e.EmbeddingInput()
	}

	log.Printf("[INGEST] Generating embeddings for %d documents...", len(entries))
	vectors, err := i.engine.EmbedBatch(ctx, inputs, llm.TaskRetrievalDocument)
	if err != nil {
		return nil, fmt.Errorf("ingest aborted, nothing written: %w", err)
	}

	docs := make([]types.CareerDocument, len(entries))
	ids := make([]string, len(entries))
	for n, e := range entries {
		docs[n] = e.Document()
		docs[n].Embedding = vectors[n]
		ids[n] = e.ID
	}

	log.Printf("[INGEST] Adding %d documents to the vector index...", len(docs))
	if err := i.store.Upsert(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to upsert documents: %w", err)
	}

	total, err := i.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Documents: len(docs), Total: total, IDs: ids, Duration: time.Since(start)}
	log.Printf("[INGEST] Ingestion complete: %d documents (%d in index) in %v", report.Documents, report.Total, report.Duration)
	return report, nil
}
