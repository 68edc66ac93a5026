package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// IngestService runs the write path: chunk, describe, embed and store.
type IngestService interface {
	// Ingest reads every document of source and stores its chunks.
	Ingest(ctx context.Context, source driven.DocumentSource) (*domain.IngestReport, error)

	// IngestDocuments stores the chunks of the given documents.
	IngestDocuments(ctx context.Context, docs []domain.Document) (*domain.IngestReport, error)

	// Status returns the progress of the batch currently running, if any.
	Status() IngestStatus
}

// IngestStatus represents the current state of an ingest batch.
type IngestStatus struct {
	// Running indicates if a batch is in progress.
	Running bool

	// DocumentsProcessed is the count of documents finished in the current batch.
	DocumentsProcessed int

	// ChunksStored is the count of chunks upserted in the current batch.
	ChunksStored int

	// ErrorCount is the number of chunk failures in the current batch.
	ErrorCount int
}
