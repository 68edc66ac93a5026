package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// setupTestStore creates a store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "docrag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func testChunk(url string, seq int, source string, vec ...float32) *domain.Chunk {
	return &domain.Chunk{
		URL:       url,
		Sequence:  seq,
		Title:     "Title " + url,
		Summary:   "Summary",
		Content:   "content of " + url,
		Metadata:  map[string]any{domain.MetadataSource: source, domain.MetadataSize: 42},
		Embedding: vec,
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "docrag.db")
	ctx := context.Background()

	store, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())
	require.NoError(t, store.Upsert(ctx, testChunk("https://docs/a", 0, "docs", 1, 0)))
	require.NoError(t, store.Close())

	store, err = NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_UpsertRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testChunk("https://docs/a", 0, "docs", 0.5, -1, 2)))

	chunks, err := store.PageChunks(ctx, "https://docs/a", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	c := chunks[0]
	assert.Equal(t, "Title https://docs/a", c.Title)
	assert.Equal(t, "Summary", c.Summary)
	assert.Equal(t, []float32{0.5, -1, 2}, c.Embedding)
	assert.Equal(t, "docs", c.Metadata[domain.MetadataSource])
	assert.EqualValues(t, 42, c.Metadata[domain.MetadataSize])
}

func TestStore_UpsertOverwritesSameKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testChunk("u", 0, "docs", 1, 0)))
	updated := testChunk("u", 0, "docs", 0, 1)
	updated.Content = "new content"
	require.NoError(t, store.Upsert(ctx, updated))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	chunks, err := store.PageChunks(ctx, "u", nil)
	require.NoError(t, err)
	assert.Equal(t, "new content", chunks[0].Content)
	assert.Equal(t, []float32{0, 1}, chunks[0].Embedding)
}

func TestStore_UpsertNil(t *testing.T) {
	store := setupTestStore(t)
	assert.ErrorIs(t, store.Upsert(context.Background(), nil), domain.ErrInvalidInput)
}

func TestStore_Search(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testChunk("near", 0, "docs", 1, 0.1)))
	require.NoError(t, store.Upsert(ctx, testChunk("far", 0, "docs", 0, 1)))
	require.NoError(t, store.Upsert(ctx, testChunk("mid", 0, "docs", 1, 1)))
	require.NoError(t, store.Upsert(ctx, testChunk("other", 0, "blog", 1, 0)))
	require.NoError(t, store.Upsert(ctx, testChunk("wrongdim", 0, "docs", 1, 0, 0)))

	hits, err := store.Search(ctx, []float32{1, 0}, 2, domain.Filter{"source": "docs"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].URL)
	assert.Equal(t, "mid", hits[1].URL)
	assert.Greater(t, hits[0].Score, hits[1].Score)

	all, err := store.Search(ctx, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4, "wrong dimension is skipped")
	assert.Equal(t, "other", all[0].URL)

	none, err := store.Search(ctx, []float32{1, 0}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_SearchTiesKeepKeyOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, testChunk("b", 1, "docs", 1, 0)))
	require.NoError(t, store.Upsert(ctx, testChunk("b", 0, "docs", 1, 0)))
	require.NoError(t, store.Upsert(ctx, testChunk("a", 0, "docs", 2, 0)))

	hits, err := store.Search(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, domain.ChunkKey{URL: "a", Sequence: 0}, hits[0].Key())
	assert.Equal(t, domain.ChunkKey{URL: "b", Sequence: 0}, hits[1].Key())
	assert.Equal(t, domain.ChunkKey{URL: "b", Sequence: 1}, hits[2].Key())
}

func TestStore_ListURLsAndPageChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	for _, c := range []*domain.Chunk{
		testChunk("https://docs/b", 1, "docs", 1),
		testChunk("https://docs/b", 0, "docs", 1),
		testChunk("https://docs/a", 0, "docs", 1),
		testChunk("https://blog/x", 0, "blog", 1),
	} {
		require.NoError(t, store.Upsert(ctx, c))
	}

	urls, err := store.ListURLs(ctx, domain.Filter{"source": "docs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://docs/a", "https://docs/b"}, urls)

	chunks, err := store.PageChunks(ctx, "https://docs/b", domain.Filter{"source": "docs"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Sequence)
	assert.Equal(t, 1, chunks[1].Sequence)

	chunks, err = store.PageChunks(ctx, "https://blog/x", domain.Filter{"source": "docs"})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestStore_TrimPage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Upsert(ctx, testChunk("u", i, "docs", 1)))
	}
	require.NoError(t, store.Upsert(ctx, testChunk("v", 3, "docs", 1)))

	n, err := store.TrimPage(ctx, "u", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestStore_ClosedReturnsStoreUnavailable(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "docrag.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Upsert(context.Background(), testChunk("u", 0, "docs", 1))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	_, err = store.Search(context.Background(), []float32{1}, 1, nil)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestRunStore(t *testing.T) {
	store := setupTestStore(t)
	runs := store.RunStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		run := &domain.IngestRun{
			ID:         id,
			Source:     "export.jsonl",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Documents:  i + 1,
			Stored:     10,
		}
		require.NoError(t, runs.SaveRun(ctx, run))
	}
	require.NoError(t, runs.SaveRun(ctx, &domain.IngestRun{ID: "r2", Source: "export.jsonl", StartedAt: base.Add(time.Minute), Error: "chunk store unavailable"}))

	list, err := runs.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "r3", list[0].ID)
	assert.Equal(t, 3, list[0].Documents)
	assert.Equal(t, 30*time.Second, list[0].Duration())
	assert.Equal(t, "r2", list[1].ID)
	assert.False(t, list[1].Success())

	require.NoError(t, runs.PruneRuns(ctx, 1))
	list, err = runs.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "r3", list[0].ID)

	assert.ErrorIs(t, runs.SaveRun(ctx, &domain.IngestRun{}), domain.ErrInvalidInput)
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0, 1.5, -2.25}
	assert.Equal(t, v, decodeVector(encodeVector(v)))
	assert.Nil(t, encodeVector(nil))
	assert.Nil(t, decodeVector([]byte{1, 2}))
	assert.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 0}))
}
