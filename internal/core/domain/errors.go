package domain

import "errors"

// Sentinel errors. Adapters wrap them with %w so callers can branch on
// errors.Is without knowing which backend failed.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrChunking aborts a page; the rest of the batch continues.
	ErrChunking = errors.New("chunking failed")

	// ErrMetadataUnavailable is recovered from with a title taken from the
	// chunk's first line.
	ErrMetadataUnavailable = errors.New("metadata unavailable")

	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	ErrStoreUnavailable     = errors.New("chunk store unavailable")
	ErrLLMUnavailable       = errors.New("LLM service unavailable")

	ErrIngestInProgress  = errors.New("ingest in progress")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// IsUnavailable reports whether err comes from a backing service being down
// or unconfigured, as opposed to a bad request.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrLLMUnavailable)
}
