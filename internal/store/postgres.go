// Package store implements the pipeline's persistence interfaces on
// PostgreSQL: a keyed JSONB document store with an atomic batched-write
// primitive, the natural-key loader used by duplicate detection, and the
// monotonic sequence counter behind identifier generation.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldops/ingest/internal/ingest"
)

// MaxBatchOps is the hard backend limit on operations per atomic batch.
// Callers are expected to chunk below this; exceeding it is a caller bug.
const MaxBatchOps = 500

// Store persists documents, keys, and sequences in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the backing tables if they do not exist.
// Called once at startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			kind       text        NOT NULL,
			key        text        NOT NULL,
			data       jsonb       NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, key)
		)`,
		`CREATE TABLE IF NOT EXISTS sequences (
			scope text NOT NULL PRIMARY KEY,
			value bigint NOT NULL
		)`,
	}

	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// WriteBatch upserts docs for kind in a single transaction: the chunk
// commits entirely or not at all.
func (s *Store) WriteBatch(ctx context.Context, kind string, docs []ingest.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if len(docs) > MaxBatchOps {
		return fmt.Errorf("batch of %d exceeds the %d-operation limit", len(docs), MaxBatchOps)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, doc := range docs {
		data, err := json.Marshal(doc.Data)
		if err != nil {
			return fmt.Errorf("marshal document %q: %w", doc.Key, err)
		}
		batch.Queue(
			`INSERT INTO documents (kind, key, data, updated_at)
			 VALUES ($1, $2, $3, now())
			 ON CONFLICT (kind, key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
			kind, doc.Key, data,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range docs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch write: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// ExistingKeys loads the natural keys already present for kind in one
// read. The key expression is built from the kind's registered schema;
// kinds without a natural key return an empty set.
func (s *Store) ExistingKeys(ctx context.Context, kind string) (map[string]struct{}, error) {
	schema, ok := ingest.Lookup(kind)
	if !ok || !schema.HasNaturalKey() {
		return map[string]struct{}{}, nil
	}

	parts := make([]string, len(schema.NaturalKey))
	for i, field := range schema.NaturalKey {
		parts[i] = fmt.Sprintf("data->>%s", quoteLiteral(field))
	}
	query := fmt.Sprintf(
		`SELECT lower(concat_ws('_', %s)) FROM documents WHERE kind = $1`,
		strings.Join(parts, ", "),
	)

	rows, err := s.pool.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("load existing keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

// Next increments and returns the counter for scope. The upsert is atomic,
// so concurrent runs can never hand out the same value.
func (s *Store) Next(ctx context.Context, scope string) (int, error) {
	var value int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sequences (scope, value) VALUES ($1, 1)
		 ON CONFLICT (scope) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`,
		scope,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next sequence for %q: %w", scope, err)
	}
	return value, nil
}

// quoteLiteral wraps a field name as a SQL string literal. Field names
// come from compiled-in schemas, not user input, but quoting keeps the
// generated expression well-formed regardless.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
