package domain

import (
	"errors"
	"time"
)

// DefaultRunHistory is how many ingest runs are kept in the run history.
const DefaultRunHistory = 100

// IngestRun is the persisted summary of one ingest batch.
type IngestRun struct {
	// ID is the RunID of the batch.
	ID string

	// Source names the DocumentSource that was read.
	Source string

	StartedAt  time.Time
	FinishedAt time.Time

	Documents int
	Chunks    int
	Stored    int
	Failed    int
	Trimmed   int

	// Error holds the batch-level error, empty on success.
	Error string
}

// NewIngestRun summarises report for the run history. A nil report (the batch
// never started) still yields a record carrying err.
func NewIngestRun(source string, report *IngestReport, err error) IngestRun {
	run := IngestRun{Source: source}
	if report != nil {
		run.ID = report.RunID
		run.StartedAt = report.StartedAt
		run.FinishedAt = report.FinishedAt
		run.Documents = report.Documents
		run.Chunks = report.Chunks
		run.Stored = report.Stored
		run.Failed = len(report.Failures) + len(report.DocumentFailures)
		run.Trimmed = report.Trimmed
	}
	if err != nil {
		run.Error = err.Error()
	}
	return run
}

// Success reports whether the batch finished without a batch-level error.
func (r IngestRun) Success() bool {
	return r.Error == ""
}

// Duration returns how long the run took.
func (r IngestRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ScheduleSettings configures periodic re-ingest.
type ScheduleSettings struct {
	// Interval between runs. Zero runs once.
	Interval time.Duration

	// Keep is the number of runs retained in the history.
	Keep int
}

// Validate checks the schedule.
func (s ScheduleSettings) Validate() error {
	if s.Interval < 0 {
		return errors.Join(ErrInvalidInput, errors.New("interval must not be negative"))
	}
	if s.Keep < 0 {
		return errors.Join(ErrInvalidInput, errors.New("keep must not be negative"))
	}
	return nil
}
