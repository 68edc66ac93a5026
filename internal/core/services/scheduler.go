package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler keeps an index fresh: it ingests its source once on start, then
// again on every interval tick. When the source can be watched, documents
// written by the crawler in between are ingested as they appear.
// Every batch is recorded in the run history.
type Scheduler struct {
	ingest   driving.IngestService
	source   driven.DocumentSource
	runs     driven.RunStore
	settings domain.ScheduleSettings

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. runs may be nil to skip the history.
func NewScheduler(
	ingest driving.IngestService,
	source driven.DocumentSource,
	runs driven.RunStore,
	settings domain.ScheduleSettings,
) *Scheduler {
	if settings.Keep <= 0 {
		settings.Keep = domain.DefaultRunHistory
	}
	return &Scheduler{
		ingest:   ingest,
		source:   source,
		runs:     runs,
		settings: settings,
	}
}

// Start runs the schedule. With a zero interval and a source that cannot be
// watched it returns after the first batch.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	var watched <-chan domain.Document
	var watchErrs <-chan error
	if w, ok := s.source.(driven.WatchableSource); ok {
		watched, watchErrs = w.Watch(ctx)
	}

	// Errors of a batch are in its report and the run history.
	_, _ = s.RunOnce(ctx)

	var tick <-chan time.Time
	if s.settings.Interval > 0 {
		ticker := time.NewTicker(s.settings.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var pending []domain.Document
	for tick != nil || watched != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-tick:
			_, _ = s.RunOnce(ctx)
			pending = s.flush(ctx, pending)
		case doc, ok := <-watched:
			if !ok {
				watched = nil
				continue
			}
			logger.Debug("Watch: %s changed", doc.URL)
			pending = s.flush(ctx, append(pending, doc))
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warn("Watching %s: %v", s.source.Name(), err)
		}
	}
	return nil
}

// Stop ends the schedule and waits for Start to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// RunOnce ingests the whole source and records the run.
func (s *Scheduler) RunOnce(ctx context.Context) (*domain.IngestReport, error) {
	report, err := s.ingest.Ingest(ctx, s.source)
	if errors.Is(err, domain.ErrIngestInProgress) {
		logger.Info("Skipping scheduled ingest of %s: %v", s.source.Name(), err)
		return nil, err
	}
	s.record(ctx, s.source.Name(), report, err)
	return report, err
}

// flush ingests watched documents. They stay pending while another batch holds
// the ingest service.
func (s *Scheduler) flush(ctx context.Context, pending []domain.Document) []domain.Document {
	if len(pending) == 0 {
		return nil
	}
	report, err := s.ingest.IngestDocuments(ctx, pending)
	if errors.Is(err, domain.ErrIngestInProgress) {
		return pending
	}
	s.record(ctx, s.source.Name()+" (watch)", report, err)
	return nil
}

func (s *Scheduler) record(ctx context.Context, source string, report *domain.IngestReport, err error) {
	run := domain.NewIngestRun(source, report, err)
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if err != nil {
		logger.Warn("Ingest of %s failed: %v", source, err)
	}
	if s.runs == nil {
		return
	}
	if saveErr := s.runs.SaveRun(ctx, &run); saveErr != nil {
		logger.Warn("Recording run %s: %v", run.ID, saveErr)
		return
	}
	if pruneErr := s.runs.PruneRuns(ctx, s.settings.Keep); pruneErr != nil {
		logger.Warn("Pruning run history: %v", pruneErr)
	}
}
