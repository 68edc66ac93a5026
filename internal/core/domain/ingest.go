package domain

import "time"

// ChunkFailure records a chunk that could not be stored.
type ChunkFailure struct {
	Key ChunkKey
	Err error
}

// DocumentFailure records a document that could not be chunked.
type DocumentFailure struct {
	URL string
	Err error
}

// IngestReport summarises one write-path batch.
type IngestReport struct {
	// RunID identifies the batch in logs.
	RunID string

	// Documents is the number of documents read from the source.
	Documents int

	// Chunks is the number of chunks produced by the chunker.
	Chunks int

	// Stored is the number of chunks successfully upserted.
	Stored int

	// Trimmed is the number of stale chunks removed after re-ingest.
	Trimmed int

	// Failures lists chunks that failed embedding or upsert.
	Failures []ChunkFailure

	// DocumentFailures lists documents that failed before any chunk was stored.
	DocumentFailures []DocumentFailure

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the batch took.
func (r *IngestReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// OK reports whether every chunk was stored.
func (r *IngestReport) OK() bool {
	return len(r.Failures) == 0 && len(r.DocumentFailures) == 0
}
