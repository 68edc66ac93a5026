package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// runStore implements driven.RunStore on the ingest_runs table.
type runStore struct {
	db *sql.DB
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun records a run, replacing any run with the same ID.
func (s *runStore) SaveRun(ctx context.Context, run *domain.IngestRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, source, started_at, finished_at, documents, chunks, stored, failed, trimmed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			documents = excluded.documents,
			chunks = excluded.chunks,
			stored = excluded.stored,
			failed = excluded.failed,
			trimmed = excluded.trimmed,
			error = excluded.error
	`, run.ID, run.Source, formatNullableTime(run.StartedAt), formatNullableTime(run.FinishedAt),
		run.Documents, run.Chunks, run.Stored, run.Failed, run.Trimmed, nullString(run.Error))
	if err != nil {
		return fmt.Errorf("%w: saving run %s: %w", domain.ErrStoreUnavailable, run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = domain.DefaultRunHistory
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, started_at, finished_at, documents, chunks, stored, failed, trimmed, error
		FROM ingest_runs
		ORDER BY started_at DESC, recorded_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying runs: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var runs []domain.IngestRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.IngestRun
		var started, finished, errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.Source, &started, &finished,
			&run.Documents, &run.Chunks, &run.Stored, &run.Failed, &run.Trimmed, &errMsg); err != nil {
			return nil, fmt.Errorf("%w: scanning run: %w", domain.ErrStoreUnavailable, err)
		}
		run.StartedAt = parseNullableTime(started)
		run.FinishedAt = parseNullableTime(finished)
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating runs: %w", domain.ErrStoreUnavailable, err)
	}
	return runs, nil
}

// PruneRuns keeps only the keep most recent runs.
func (s *runStore) PruneRuns(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM ingest_runs
		WHERE id NOT IN (
			SELECT id FROM ingest_runs ORDER BY started_at DESC, recorded_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("%w: pruning runs: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// timeLayout has fixed-width fractions so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatNullableTime formats t in UTC, or NULL for the zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// parseNullableTime returns the zero time for NULL or unparsable values.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
