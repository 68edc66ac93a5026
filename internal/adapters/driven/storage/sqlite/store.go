package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ChunkStore = (*Store)(nil)

const chunkColumns = "url, chunk_number, title, summary, content, metadata, embedding"

// Store is a SQLite-backed ChunkStore. It also serves the ingest run history
// through RunStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at dbPath and applies pending
// migrations. An empty dbPath selects ~/.docrag/data/docrag.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".docrag", "data", "docrag.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL lets searches run while an ingest batch writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStoreUnavailable, err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrStoreUnavailable, err)
	}

	logger.Debug("SQLite store at %s", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RunStore returns the ingest run history backed by this database.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{db: s.db}
}

// migrate applies every NNN_*.up.sql newer than the recorded schema version.
func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	ups, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
		logger.Debug("Applied migration %s", name)
	}

	return nil
}

// Upsert inserts the chunk or replaces the row with the same (url, chunk_number).
func (s *Store) Upsert(ctx context.Context, chunk *domain.Chunk) error {
	if chunk == nil {
		return domain.ErrInvalidInput
	}

	meta := chunk.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshalling metadata of %s: %w", chunk.Key(), err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO site_pages (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url, chunk_number) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`, chunk.URL, chunk.Sequence, chunk.Title, chunk.Summary, chunk.Content,
		string(metaJSON), encodeVector(chunk.Embedding))
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %w", domain.ErrStoreUnavailable, chunk.Key(), err)
	}
	return nil
}

// Search ranks every chunk matching filter by cosine similarity to vector.
// Ties keep (url, chunk_number) order. Chunks whose embedding has a different
// dimension are skipped.
func (s *Store) Search(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]domain.ScoredChunk, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, nil
	}

	where, args := filterClause(filter)
	chunks, err := s.queryChunks(ctx,
		"SELECT "+chunkColumns+" FROM site_pages WHERE embedding IS NOT NULL"+where+" ORDER BY url, chunk_number",
		args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrStoreUnavailable, err)
	}

	scored := make([]domain.ScoredChunk, 0, len(chunks))
	skipped := 0
	for _, c := range chunks {
		if len(c.Embedding) != len(vector) {
			skipped++
			continue
		}
		scored = append(scored, domain.ScoredChunk{Chunk: c, Score: cosine(vector, c.Embedding)})
	}
	if skipped > 0 {
		logger.Warn("Search skipped %d chunks with a different embedding dimension", skipped)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// ListURLs returns the distinct page URLs matching filter, sorted.
func (s *Store) ListURLs(ctx context.Context, filter domain.Filter) ([]string, error) {
	where, args := filterClause(filter)
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT url FROM site_pages WHERE 1=1"+where+" ORDER BY url", args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list urls: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("%w: scanning url: %w", domain.ErrStoreUnavailable, err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating urls: %w", domain.ErrStoreUnavailable, err)
	}
	return urls, nil
}

// PageChunks returns the chunks of url matching filter in sequence order.
func (s *Store) PageChunks(ctx context.Context, url string, filter domain.Filter) ([]domain.Chunk, error) {
	where, args := filterClause(filter)
	chunks, err := s.queryChunks(ctx,
		"SELECT "+chunkColumns+" FROM site_pages WHERE url = ?"+where+" ORDER BY chunk_number",
		append([]any{url}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: page %s: %w", domain.ErrStoreUnavailable, url, err)
	}
	return chunks, nil
}

// TrimPage deletes the chunks of url with chunk_number >= keep.
func (s *Store) TrimPage(ctx context.Context, url string, keep int) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM site_pages WHERE url = ? AND chunk_number >= ?", url, keep)
	if err != nil {
		return 0, fmt.Errorf("%w: trim %s: %w", domain.ErrStoreUnavailable, url, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM site_pages").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func scanChunk(rows *sql.Rows) (domain.Chunk, error) {
	var c domain.Chunk
	var metaJSON string
	var embedding []byte

	if err := rows.Scan(&c.URL, &c.Sequence, &c.Title, &c.Summary, &c.Content, &metaJSON, &embedding); err != nil {
		return c, fmt.Errorf("scanning chunk: %w", err)
	}
	if metaJSON != "" {
		if err := json.Unmarshal([]byte(metaJSON), &c.Metadata); err != nil {
			return c, fmt.Errorf("decoding metadata of %s: %w", c.Key(), err)
		}
	}
	c.Embedding = decodeVector(embedding)
	return c, nil
}

// filterClause turns filter into " AND ..." conditions on the metadata JSON.
// Values compare as text, matching domain.Filter.Matches.
func filterClause(filter domain.Filter) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	var b strings.Builder
	args := make([]any, 0, 2*len(filter))
	for _, key := range slices.Sorted(maps.Keys(filter)) {
		b.WriteString(" AND CAST(json_extract(metadata, ?) AS TEXT) = ?")
		args = append(args, "$."+strconv.Quote(key), filter[key])
	}
	return b.String(), args
}
