// Package postgres stores chunks in PostgreSQL with the pgvector extension.
//
// Similarity is computed by the database: 1 - (embedding <=> query) is the
// cosine similarity, and metadata filters use jsonb containment.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ChunkStore = (*Store)(nil)

// DefaultTable is the chunk table name.
const DefaultTable = domain.DefaultPostgresTable

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Config selects the database and table.
type Config struct {
	DSN   string
	Table string

	// Dimensions fixes the vector column size. Zero leaves it unsized and
	// skips the HNSW index.
	Dimensions int
}

// Store is a pgvector-backed ChunkStore.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

// NewStore connects, pings and creates the table and indexes if needed.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrInvalidInput)
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", domain.ErrStoreUnavailable, err)
	}

	s := &Store{pool: pool, table: table}
	if err := s.init(ctx, cfg.Dimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: creating schema: %w", domain.ErrStoreUnavailable, err)
	}
	logger.Debug("Postgres store ready, table %s", cfg.Table)
	return s, nil
}

// tableName validates name and returns it quoted for SQL.
func tableName(name string) (string, error) {
	if name == "" {
		name = DefaultTable
	}
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("%w: invalid table name %q", domain.ErrInvalidInput, name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

func (s *Store) init(ctx context.Context, dims int) error {
	column := "vector"
	if dims > 0 {
		column = fmt.Sprintf("vector(%d)", dims)
	}
	bare := s.table[1 : len(s.table)-1]

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			url VARCHAR NOT NULL,
			chunk_number INTEGER NOT NULL,
			title VARCHAR NOT NULL DEFAULT '',
			summary VARCHAR NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding %s,
			created_at TIMESTAMPTZ NOT NULL DEFAULT timezone('utc', now()),
			UNIQUE (url, chunk_number)
		)`, s.table, column),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING gin (metadata)`,
			pgx.Identifier{"idx_" + bare + "_metadata"}.Sanitize(), s.table),
	}
	if dims > 0 {
		stmts = append(stmts, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pgx.Identifier{"idx_" + bare + "_embedding"}.Sanitize(), s.table))
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Upsert inserts the chunk or replaces the row with the same (url, chunk_number).
func (s *Store) Upsert(ctx context.Context, chunk *domain.Chunk) error {
	if chunk == nil {
		return domain.ErrInvalidInput
	}
	meta, err := metadataJSON(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata of %s: %w", chunk.Key(), err)
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (url, chunk_number, title, summary, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
		ON CONFLICT (url, chunk_number) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding
	`, s.table), chunk.URL, chunk.Sequence, chunk.Title, chunk.Summary, chunk.Content, meta,
		pgvector.NewVector(chunk.Embedding))
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %w", domain.ErrStoreUnavailable, chunk.Key(), err)
	}
	return nil
}

// Search returns the k chunks nearest to vector by cosine distance.
func (s *Store) Search(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]domain.ScoredChunk, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, nil
	}
	where, err := filterJSON(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT url, chunk_number, title, summary, content, metadata, embedding,
		       1 - (embedding <=> $1) AS similarity
		FROM %s
		WHERE embedding IS NOT NULL AND metadata @> $2::jsonb
		ORDER BY embedding <=> $1, url, chunk_number
		LIMIT $3
	`, s.table), pgvector.NewVector(vector), where, k)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var hits []domain.ScoredChunk
	for rows.Next() {
		var hit domain.ScoredChunk
		var meta []byte
		var embedding pgvector.Vector
		if err := rows.Scan(&hit.URL, &hit.Sequence, &hit.Title, &hit.Summary, &hit.Content,
			&meta, &embedding, &hit.Score); err != nil {
			return nil, fmt.Errorf("%w: scanning hit: %w", domain.ErrStoreUnavailable, err)
		}
		if err := json.Unmarshal(meta, &hit.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata of %s: %w", hit.Key(), err)
		}
		hit.Embedding = embedding.Slice()
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating hits: %w", domain.ErrStoreUnavailable, err)
	}
	return hits, nil
}

// ListURLs returns the distinct URLs with chunks matching filter, sorted.
func (s *Store) ListURLs(ctx context.Context, filter domain.Filter) ([]string, error) {
	where, err := filterJSON(filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT DISTINCT url FROM %s WHERE metadata @> $1::jsonb ORDER BY url`, s.table), where)
	if err != nil {
		return nil, fmt.Errorf("%w: list urls: %w", domain.ErrStoreUnavailable, err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%w: list urls: %w", domain.ErrStoreUnavailable, err)
	}
	return urls, nil
}

// PageChunks returns the chunks of url matching filter in sequence order.
func (s *Store) PageChunks(ctx context.Context, url string, filter domain.Filter) ([]domain.Chunk, error) {
	where, err := filterJSON(filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT url, chunk_number, title, summary, content, metadata
		FROM %s
		WHERE url = $1 AND metadata @> $2::jsonb
		ORDER BY chunk_number
	`, s.table), url, where)
	if err != nil {
		return nil, fmt.Errorf("%w: page %s: %w", domain.ErrStoreUnavailable, url, err)
	}

	chunks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Chunk, error) {
		var c domain.Chunk
		var meta []byte
		if err := row.Scan(&c.URL, &c.Sequence, &c.Title, &c.Summary, &c.Content, &meta); err != nil {
			return c, err
		}
		return c, json.Unmarshal(meta, &c.Metadata)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: page %s: %w", domain.ErrStoreUnavailable, url, err)
	}
	return chunks, nil
}

// TrimPage deletes the chunks of url with chunk_number >= keep.
func (s *Store) TrimPage(ctx context.Context, url string, keep int) (int, error) {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE url = $1 AND chunk_number >= $2`, s.table), url, keep)
	if err != nil {
		return 0, fmt.Errorf("%w: trim %s: %w", domain.ErrStoreUnavailable, url, err)
	}
	return int(tag.RowsAffected()), nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

func metadataJSON(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	return string(b), err
}

// filterJSON encodes filter as a jsonb containment document.
func filterJSON(filter domain.Filter) (string, error) {
	if len(filter) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(filter))
	if err != nil {
		return "", fmt.Errorf("%w: filter: %w", domain.ErrInvalidInput, err)
	}
	return string(b), nil
}
