package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// Reserved chromem metadata keys holding the chunk columns.
const (
	metaURL      = "_url"
	metaSequence = "_chunk_number"
	metaTitle    = "_title"
	metaSummary  = "_summary"
)

// chunkNamespace derives stable chromem document IDs from chunk keys.
var chunkNamespace = uuid.MustParse("5b0e3c5e-9a1f-4d8e-bb0c-6f7a1d2c9e40")

var errNoEmbedding = errors.New("chunks must be embedded before they are stored")

// ChunkStore is an in-process ChunkStore on a chromem-go collection. Nothing is
// persisted. Metadata values are kept as strings.
type ChunkStore struct {
	db         *chromem.DB
	collection *chromem.Collection

	mu    sync.RWMutex
	pages map[string]map[int]struct{}
}

// NewChunkStore creates an empty store.
func NewChunkStore() (*ChunkStore, error) {
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection("site_pages", nil, func(context.Context, string) ([]float32, error) {
		return nil, errNoEmbedding
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating collection: %w", domain.ErrStoreUnavailable, err)
	}
	return &ChunkStore{
		db:         db,
		collection: collection,
		pages:      make(map[string]map[int]struct{}),
	}, nil
}

func chunkID(key domain.ChunkKey) string {
	return uuid.NewSHA1(chunkNamespace, []byte(key.String())).String()
}

// Upsert stores the chunk. A chunk with the same key is replaced.
func (s *ChunkStore) Upsert(ctx context.Context, chunk *domain.Chunk) error {
	if chunk == nil {
		return domain.ErrInvalidInput
	}
	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, chunk.Key(), errNoEmbedding)
	}

	meta := make(map[string]string, len(chunk.Metadata)+4)
	for k, v := range chunk.Metadata {
		meta[k] = fmt.Sprint(v)
	}
	meta[metaURL] = chunk.URL
	meta[metaSequence] = strconv.Itoa(chunk.Sequence)
	meta[metaTitle] = chunk.Title
	meta[metaSummary] = chunk.Summary

	// chromem normalises in place.
	embedding := slices.Clone(chunk.Embedding)

	err := s.collection.AddDocument(ctx, chromem.Document{
		ID:        chunkID(chunk.Key()),
		Metadata:  meta,
		Embedding: embedding,
		Content:   chunk.Content,
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %w", domain.ErrStoreUnavailable, chunk.Key(), err)
	}

	s.mu.Lock()
	if s.pages[chunk.URL] == nil {
		s.pages[chunk.URL] = make(map[int]struct{})
	}
	s.pages[chunk.URL][chunk.Sequence] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Search returns the k chunks most similar to vector among those matching filter.
func (s *ChunkStore) Search(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]domain.ScoredChunk, error) {
	n := s.collection.Count()
	if k <= 0 || n == 0 || len(vector) == 0 {
		return nil, nil
	}
	// chromem rejects nResults above the collection size.
	k = min(k, n)

	results, err := s.collection.QueryEmbedding(ctx, slices.Clone(vector), k, whereOf(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrStoreUnavailable, err)
	}

	hits := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		hits = append(hits, domain.ScoredChunk{
			Chunk: toChunk(r.Content, r.Metadata, r.Embedding),
			Score: float64(r.Similarity),
		})
	}
	return hits, nil
}

// ListURLs returns the sorted URLs that have at least one chunk matching filter.
func (s *ChunkStore) ListURLs(ctx context.Context, filter domain.Filter) ([]string, error) {
	s.mu.RLock()
	urls := slices.Sorted(maps.Keys(s.pages))
	s.mu.RUnlock()

	if len(filter) == 0 {
		return urls, nil
	}
	var out []string
	for _, u := range urls {
		chunks, err := s.PageChunks(ctx, u, filter)
		if err != nil {
			return nil, err
		}
		if len(chunks) > 0 {
			out = append(out, u)
		}
	}
	return out, nil
}

// PageChunks returns the chunks of url matching filter in sequence order.
func (s *ChunkStore) PageChunks(ctx context.Context, url string, filter domain.Filter) ([]domain.Chunk, error) {
	s.mu.RLock()
	seqs := slices.Sorted(maps.Keys(s.pages[url]))
	s.mu.RUnlock()

	chunks := make([]domain.Chunk, 0, len(seqs))
	for _, seq := range seqs {
		doc, err := s.collection.GetByID(ctx, chunkID(domain.ChunkKey{URL: url, Sequence: seq}))
		if err != nil {
			return nil, fmt.Errorf("%w: page %s: %w", domain.ErrStoreUnavailable, url, err)
		}
		c := toChunk(doc.Content, doc.Metadata, doc.Embedding)
		if filter.Matches(c.Metadata) {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// TrimPage deletes the chunks of url with sequence >= keep.
func (s *ChunkStore) TrimPage(ctx context.Context, url string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for seq := range s.pages[url] {
		if seq >= keep {
			ids = append(ids, chunkID(domain.ChunkKey{URL: url, Sequence: seq}))
			delete(s.pages[url], seq)
		}
	}
	if len(s.pages[url]) == 0 {
		delete(s.pages, url)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return 0, fmt.Errorf("%w: trim %s: %w", domain.ErrStoreUnavailable, url, err)
	}
	return len(ids), nil
}

// Count returns the number of stored chunks.
func (s *ChunkStore) Count(context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Close is a no-op.
func (s *ChunkStore) Close() error { return nil }

func whereOf(filter domain.Filter) map[string]string {
	if len(filter) == 0 {
		return nil
	}
	return maps.Clone(map[string]string(filter))
}

func toChunk(content string, meta map[string]string, embedding []float32) domain.Chunk {
	seq, _ := strconv.Atoi(meta[metaSequence])
	c := domain.Chunk{
		URL:       meta[metaURL],
		Sequence:  seq,
		Title:     meta[metaTitle],
		Summary:   meta[metaSummary],
		Content:   content,
		Embedding: embedding,
		Metadata:  make(map[string]any, len(meta)),
	}
	for k, v := range meta {
		switch k {
		case metaURL, metaSequence, metaTitle, metaSummary:
		default:
			c.Metadata[k] = v
		}
	}
	return c
}
