package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the write path for batches of documents.
// Documents are processed concurrently up to the configured limit; the chunks
// of one document are processed in order.
type IngestService struct {
	pipeline    driven.PostProcessorPipeline
	metadata    *MetadataExtractor
	embedder    driven.EmbeddingService
	store       driven.ChunkStore
	concurrency int
	now         func() time.Time

	// Status tracking
	mu     sync.RWMutex
	status driving.IngestStatus
}

// NewIngestService creates an ingest service.
func NewIngestService(
	pipeline driven.PostProcessorPipeline,
	metadata *MetadataExtractor,
	embedder driven.EmbeddingService,
	store driven.ChunkStore,
	settings domain.IngestSettings,
) *IngestService {
	concurrency := settings.Concurrency
	if concurrency <= 0 {
		concurrency = domain.DefaultIngestConcurrency
	}
	if metadata == nil {
		metadata = NewMetadataExtractor(nil)
	}
	return &IngestService{
		pipeline:    pipeline,
		metadata:    metadata,
		embedder:    embedder,
		store:       store,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Ingest reads every document from source and stores its chunks.
func (s *IngestService) Ingest(ctx context.Context, source driven.DocumentSource) (*domain.IngestReport, error) {
	logger.Info("Ingesting from %s", source.Name())
	docs, errs := source.Documents(ctx)
	return s.run(ctx, docs, errs)
}

// IngestDocuments stores the chunks of the given documents.
func (s *IngestService) IngestDocuments(ctx context.Context, docs []domain.Document) (*domain.IngestReport, error) {
	ch := make(chan domain.Document)
	go func() {
		defer close(ch)
		for _, doc := range docs {
			select {
			case ch <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()
	return s.run(ctx, ch, nil)
}

// Status returns the progress of the running batch.
func (s *IngestService) Status() driving.IngestStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// batch accumulates the outcome of one run across worker goroutines.
type batch struct {
	mu            sync.Mutex
	report        *domain.IngestReport
	upserts       int
	storeFailures int
}

func (s *IngestService) run(ctx context.Context, docs <-chan domain.Document, errs <-chan error) (*domain.IngestReport, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("ingest: %w", domain.ErrEmbeddingUnavailable)
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	b := &batch{report: &domain.IngestReport{RunID: uuid.NewString(), StartedAt: s.now()}}
	logger.Section("Ingest " + b.report.RunID)

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	// Documents sharing a URL write the same chunk keys and trim each
	// other's tail, so each one waits for the previous document with its URL.
	// The last one in the stream wins.
	previous := make(map[string]chan struct{})

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case doc, ok := <-docs:
			if !ok {
				break loop
			}
			b.mu.Lock()
			b.report.Documents++
			b.mu.Unlock()
			wait, done := previous[doc.URL], make(chan struct{})
			previous[doc.URL] = done
			g.Go(func() error {
				defer close(done)
				if wait != nil {
					<-wait
				}
				s.ingestDocument(ctx, doc, b)
				return nil
			})
		}
	}
	_ = g.Wait()

	b.report.FinishedAt = s.now()
	report := b.report
	logger.Info("Ingest %s: %d documents, %d chunks, %d stored, %d failed, %d trimmed in %s",
		report.RunID, report.Documents, report.Chunks, report.Stored, len(report.Failures), report.Trimmed, report.Duration())

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if errs != nil {
		if err := <-errs; err != nil {
			return report, fmt.Errorf("read documents: %w", err)
		}
	}
	if b.upserts > 0 && b.storeFailures == b.upserts {
		return report, fmt.Errorf("ingest: all %d upserts failed: %w", b.upserts, domain.ErrStoreUnavailable)
	}
	return report, nil
}

// ingestDocument chunks one document and stores each chunk. Failures are
// recorded on the batch; they never stop other chunks or documents.
func (s *IngestService) ingestDocument(ctx context.Context, doc domain.Document, b *batch) {
	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		logger.Warn("Chunking %s failed: %v", doc.URL, err)
		b.mu.Lock()
		b.report.DocumentFailures = append(b.report.DocumentFailures, domain.DocumentFailure{URL: doc.URL, Err: err})
		b.mu.Unlock()
		return
	}

	b.mu.Lock()
	b.report.Chunks += len(chunks)
	b.mu.Unlock()
	logger.Debug("%s: %d chunks", doc.URL, len(chunks))

	stored := 0
	defer func() {
		b.mu.Lock()
		b.report.Stored += stored
		b.mu.Unlock()
	}()
	for i := range chunks {
		if ctx.Err() != nil {
			return
		}
		if err := s.storeChunk(ctx, &chunks[i], b); err != nil {
			logger.Warn("Chunk %s failed: %v", chunks[i].Key(), err)
			b.mu.Lock()
			b.report.Failures = append(b.report.Failures, domain.ChunkFailure{Key: chunks[i].Key(), Err: err})
			b.mu.Unlock()
			s.bump(0, 1)
			continue
		}
		stored++
		s.bump(1, 0)
	}

	// Only a complete re-ingest may drop the tail left by a longer previous version.
	if stored > 0 && stored == len(chunks) {
		trimmed, err := s.store.TrimPage(ctx, doc.URL, len(chunks))
		if err != nil {
			logger.Warn("Trimming %s failed: %v", doc.URL, err)
		} else if trimmed > 0 {
			logger.Debug("%s: removed %d stale chunks", doc.URL, trimmed)
			b.mu.Lock()
			b.report.Trimmed += trimmed
			b.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.status.DocumentsProcessed++
	s.mu.Unlock()
}

func (s *IngestService) storeChunk(ctx context.Context, chunk *domain.Chunk, b *batch) error {
	meta := s.metadata.Extract(ctx, chunk.Content, chunk.URL)
	chunk.Title = meta.Title
	chunk.Summary = meta.Summary

	vector, err := s.embedder.Embed(ctx, chunk.Content)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return err
	}
	chunk.Embedding = vector

	err = s.store.Upsert(ctx, chunk)

	b.mu.Lock()
	b.upserts++
	if errors.Is(err, domain.ErrStoreUnavailable) {
		b.storeFailures++
	}
	b.mu.Unlock()

	return err
}

func (s *IngestService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Running {
		return domain.ErrIngestInProgress
	}
	s.status = driving.IngestStatus{Running: true}
	return nil
}

func (s *IngestService) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = false
}

func (s *IngestService) bump(stored, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.ChunksStored += stored
	s.status.ErrorCount += failed
}
