package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.RunStore = (*RunStore)(nil)

// RunStore keeps ingest run history for the life of the process.
type RunStore struct {
	mu   sync.Mutex
	runs []domain.IngestRun
}

// NewRunStore creates an empty run store.
func NewRunStore() *RunStore {
	return &RunStore{}
}

// SaveRun records run, replacing a run with the same ID.
func (s *RunStore) SaveRun(_ context.Context, run *domain.IngestRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := slices.IndexFunc(s.runs, func(r domain.IngestRun) bool { return r.ID == run.ID }); i >= 0 {
		s.runs[i] = *run
	} else {
		s.runs = append(s.runs, *run)
	}
	slices.SortStableFunc(s.runs, func(a, b domain.IngestRun) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = domain.DefaultRunHistory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.runs[:min(limit, len(s.runs))]), nil
}

// PruneRuns keeps the keep most recent runs.
func (s *RunStore) PruneRuns(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = s.runs[:min(max(keep, 0), len(s.runs))]
	return nil
}
