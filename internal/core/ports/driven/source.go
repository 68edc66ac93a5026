package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// DocumentSource reads pages produced by an external crawler.
type DocumentSource interface {
	// Name identifies the source in logs.
	Name() string

	// Documents streams every available document.
	// The documents channel is closed when reading finishes; the error channel
	// receives at most one error and is then closed.
	Documents(ctx context.Context) (<-chan domain.Document, <-chan error)
}

// WatchableSource is an optional interface for sources that can report new
// documents as the crawler writes them.
type WatchableSource interface {
	DocumentSource

	// Watch emits documents created or modified after the call, until ctx is done.
	Watch(ctx context.Context) (<-chan domain.Document, <-chan error)
}
