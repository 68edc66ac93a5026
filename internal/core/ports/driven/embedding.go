package driven

import "context"

// EmbeddingService turns text into vectors for the chunk store. Every vector
// from one service has Dimensions() entries, and the store is opened with
// that size, so switching models means re-ingesting.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in one request where the provider allows it.
	// The result is index-aligned with texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping makes the cheapest request the provider offers.
	Ping(ctx context.Context) error

	Close() error
}
