package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// RunStore keeps the history of ingest runs.
type RunStore interface {
	// SaveRun records a finished run. Saving an existing ID overwrites it.
	SaveRun(ctx context.Context, run *domain.IngestRun) error

	// ListRuns returns up to limit runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.IngestRun, error)

	// PruneRuns removes all but the keep most recent runs.
	PruneRuns(ctx context.Context, keep int) error
}
