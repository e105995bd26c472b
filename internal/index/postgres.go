package index

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for goose
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/pressly/goose/v3"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore keeps a collection in PostgreSQL using the pgvector extension.
type PostgresStore struct {
	pool       *pgxpool.Pool
	collection string
}

// OpenPostgres migrates the schema and connects a pool to databaseURL.
func OpenPostgres(ctx context.Context, databaseURL, collection string) (*PostgresStore, error) {
	if err := Migrate(ctx, databaseURL); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, &errs.ConfigError{Message: "invalid database URL", Cause: err}
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &errs.UpstreamError{Message: "failed to connect to database", Cause: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &errs.UpstreamError{Message: "failed to ping database", Cause: err}
	}

	log.Printf("[INDEX] connected to postgres collection %q", collection)
	return &PostgresStore{pool: pool, collection: collection}, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return &errs.ConfigError{Message: "invalid database URL", Cause: err}
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return &errs.UpstreamError{Message: "failed to apply migrations", Cause: err}
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) dimension(ctx context.Context, q pgx.Tx) (int, error) {
	var dim int
	var row pgx.Row
	if q != nil {
		row = q.QueryRow(ctx, `SELECT dimension FROM vector_collections WHERE name = $1 FOR UPDATE`, s.collection)
	} else {
		row = s.pool.QueryRow(ctx, `SELECT dimension FROM vector_collections WHERE name = $1`, s.collection)
	}
	if err := row.Scan(&dim); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, &errs.UpstreamError{Message: "failed to read collection dimension", Cause: err}
	}
	return dim, nil
}

// Upsert implements Store. The whole batch commits in one transaction.
func (s *PostgresStore) Upsert(ctx context.Context, docs []types.CareerDocument) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := validateBatch(docs, 0); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &errs.UpstreamError{Message: "failed to begin transaction", Cause: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize writers on the collection row before reading its dimension.
	if _, err := tx.Exec(ctx,
		`INSERT INTO vector_collections (name, dimension) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		s.collection, len(docs[0].Embedding),
	); err != nil {
		return &errs.UpstreamError{Message: "failed to register collection", Cause: err}
	}
	dim, err := s.dimension(ctx, tx)
	if err != nil {
		return err
	}
	if dim != len(docs[0].Embedding) {
		var count int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM career_documents WHERE collection = $1`, s.collection).Scan(&count); err != nil {
			return &errs.UpstreamError{Message: "failed to count documents", Cause: err}
		}
		if count > 0 {
			_, err := validateBatch(docs, dim)
			return err
		}
		// An empty collection adopts the dimension of its first insert.
		if _, err := tx.Exec(ctx, `UPDATE vector_collections SET dimension = $2 WHERE name = $1`,
			s.collection, len(docs[0].Embedding)); err != nil {
			return &errs.UpstreamError{Message: "failed to set collection dimension", Cause: err}
		}
	}

	batch := &pgx.Batch{}
	for _, doc := range docs {
		metadata, err := json.Marshal(cloneMetadata(doc.Metadata))
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", doc.ID, err)
		}
		batch.Queue(
			`INSERT INTO career_documents (collection, id, text, metadata, embedding, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 ON CONFLICT (collection, id) DO UPDATE
			 SET text = EXCLUDED.text, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding, updated_at = NOW()`,
			s.collection, doc.ID, doc.Text, metadata, pgvector.NewVector(doc.Embedding),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return &errs.UpstreamError{Message: "failed to upsert documents", Cause: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &errs.UpstreamError{Message: "failed to commit upsert", Cause: err}
	}
	return nil
}

// QueryByEmbedding implements Store. pgvector yields NaN for zero-norm
// vectors; those rows are reported at distance 1.
func (s *PostgresStore) QueryByEmbedding(ctx context.Context, vec []float32, k int) (types.QueryResult, error) {
	dim, err := s.dimension(ctx, nil)
	if err != nil {
		return types.QueryResult{}, err
	}
	if err := validateQuery(vec, k, dim); err != nil {
		return types.QueryResult{}, err
	}
	if dim == 0 {
		return types.QueryResult{Results: []types.QueryHit{}}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, text, metadata,
		        COALESCE(NULLIF(embedding <=> $2, 'NaN'::float8), 1) AS distance
		 FROM career_documents
		 WHERE collection = $1
		 ORDER BY distance, id
		 LIMIT $3`,
		s.collection, pgvector.NewVector(vec), k,
	)
	if err != nil {
		return types.QueryResult{}, &errs.UpstreamError{Message: "failed to query index", Cause: err}
	}
	defer rows.Close()

	hits := []types.QueryHit{}
	for rows.Next() {
		var hit types.QueryHit
		var metadata []byte
		if err := rows.Scan(&hit.ID, &hit.Text, &metadata, &hit.Distance); err != nil {
			return types.QueryResult{}, &errs.UpstreamError{Message: "failed to scan query row", Cause: err}
		}
		if hit.Metadata, err = decodeMetadata(metadata); err != nil {
			return types.QueryResult{}, err
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return types.QueryResult{}, &errs.UpstreamError{Message: "failed to read query rows", Cause: err}
	}

	// Float rounding in SQL can reorder near-equal distances; restore the id tie-break.
	sortHits(hits)
	return types.QueryResult{Results: hits}, nil
}

// Count implements Store.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM career_documents WHERE collection = $1`, s.collection,
	).Scan(&count); err != nil {
		return 0, &errs.UpstreamError{Message: "failed to count documents", Cause: err}
	}
	return count, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (types.CareerDocument, error) {
	var doc types.CareerDocument
	var metadata []byte
	var vec pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT id, text, metadata, embedding FROM career_documents WHERE collection = $1 AND id = $2`,
		s.collection, id,
	).Scan(&doc.ID, &doc.Text, &metadata, &vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.CareerDocument{}, &errs.NotFoundError{Resource: "document", ID: id}
		}
		return types.CareerDocument{}, &errs.UpstreamError{Message: "failed to get document", Cause: err}
	}
	if doc.Metadata, err = decodeMetadata(metadata); err != nil {
		return types.CareerDocument{}, err
	}
	doc.Embedding = vec.Slice()
	return doc, nil
}

func decodeMetadata(data []byte) (map[string]string, error) {
	out := map[string]string{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &errs.SchemaError{Message: "invalid document metadata", Field: "metadata", Cause: err}
	}
	return out, nil
}
