package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// ChunkStore persists chunks and answers similarity queries.
// All failures wrap domain.ErrStoreUnavailable.
type ChunkStore interface {
	// Upsert inserts the chunk or overwrites the chunk with the same (URL, Sequence).
	Upsert(ctx context.Context, chunk *domain.Chunk) error

	// Search returns at most k chunks ordered by descending cosine similarity
	// to vector, restricted to chunks whose metadata matches filter.
	Search(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]domain.ScoredChunk, error)

	// ListURLs returns the distinct page URLs matching filter, sorted.
	ListURLs(ctx context.Context, filter domain.Filter) ([]string, error)

	// PageChunks returns the chunks of a page ordered by sequence.
	PageChunks(ctx context.Context, url string, filter domain.Filter) ([]domain.Chunk, error)

	// TrimPage deletes the chunks of a page whose sequence is >= keep.
	// Returns the number of deleted chunks.
	TrimPage(ctx context.Context, url string, keep int) (int, error)

	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
