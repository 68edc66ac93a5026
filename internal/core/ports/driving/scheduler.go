package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Scheduler re-ingests a document source in the background.
type Scheduler interface {
	// Start runs the schedule. Blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends the schedule and waits for a running batch to finish.
	Stop() error
}

// RunHistory lists recorded ingest batches.
type RunHistory interface {
	// Recent returns up to limit runs, most recent first.
	Recent(ctx context.Context, limit int) ([]domain.IngestRun, error)
}
