package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// defaultRunLimit is used when a caller asks for a non-positive number of runs.
const defaultRunLimit = 20

// Ensure RunHistoryService implements the interface.
var _ driving.RunHistory = (*RunHistoryService)(nil)

// RunHistoryService reads the ingest run history.
type RunHistoryService struct {
	runs driven.RunStore
}

// NewRunHistoryService creates a run history service. runs may be nil, in
// which case the history is always empty.
func NewRunHistoryService(runs driven.RunStore) *RunHistoryService {
	return &RunHistoryService{runs: runs}
}

// Recent returns up to limit runs, most recent first.
func (s *RunHistoryService) Recent(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	if s.runs == nil {
		return []domain.IngestRun{}, nil
	}
	if limit <= 0 {
		limit = defaultRunLimit
	}
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
