package httpapi

import (
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// QueryParams is the body of /answer and /retrieve.
type QueryParams struct {
	Query  string `json:"query" validate:"required"`
	K      int    `json:"k" validate:"gte=0,lte=100"`
	Budget int    `json:"budget" validate:"gte=0"`
}

// DocumentParams is one page pushed by a crawler.
type DocumentParams struct {
	URL       string    `json:"url" validate:"required,url"`
	Content   string    `json:"content"`
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source"`
}

// IngestParams is the body of /ingest.
type IngestParams struct {
	Documents []DocumentParams `json:"documents" validate:"required,min=1,dive"`
}

// AnswerResponse is returned by /answer.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// ChunkResponse is one retrieved chunk.
type ChunkResponse struct {
	URL         string  `json:"url"`
	ChunkNumber int     `json:"chunk_number"`
	Title       string  `json:"title"`
	Summary     string  `json:"summary"`
	Content     string  `json:"content"`
	Score       float64 `json:"score"`
}

// RetrieveResponse is returned by /retrieve.
type RetrieveResponse struct {
	Chunks  []ChunkResponse `json:"chunks"`
	Context string          `json:"context"`
}

// PagesResponse is returned by /pages.
type PagesResponse struct {
	Pages []string `json:"pages"`
}

// PageResponse is returned by /pages/content.
type PageResponse struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Chunks  int    `json:"chunks"`
}

// FailureResponse describes one failed chunk or document.
type FailureResponse struct {
	URL         string `json:"url"`
	ChunkNumber *int   `json:"chunk_number,omitempty"`
	Error       string `json:"error"`
}

// IngestResponse summarises an ingest batch.
type IngestResponse struct {
	RunID     string            `json:"run_id"`
	Documents int               `json:"documents"`
	Chunks    int               `json:"chunks"`
	Stored    int               `json:"stored"`
	Trimmed   int               `json:"trimmed"`
	Failures  []FailureResponse `json:"failures"`
	Duration  string            `json:"duration"`
}

// RunResponse is one entry of the ingest history.
type RunResponse struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Documents  int       `json:"documents"`
	Stored     int       `json:"stored"`
	Failed     int       `json:"failed"`
	Trimmed    int       `json:"trimmed"`
	Error      string    `json:"error,omitempty"`
}

func newRetrieveResponse(result domain.RetrievalResult) RetrieveResponse {
	out := RetrieveResponse{Chunks: make([]ChunkResponse, len(result)), Context: result.Format()}
	for i, sc := range result {
		out.Chunks[i] = ChunkResponse{
			URL:         sc.Chunk.URL,
			ChunkNumber: sc.Chunk.Sequence,
			Title:       sc.Chunk.Title,
			Summary:     sc.Chunk.Summary,
			Content:     sc.Chunk.Content,
			Score:       sc.Score,
		}
	}
	return out
}

func newIngestResponse(r *domain.IngestReport) IngestResponse {
	out := IngestResponse{
		RunID:     r.RunID,
		Documents: r.Documents,
		Chunks:    r.Chunks,
		Stored:    r.Stored,
		Trimmed:   r.Trimmed,
		Failures:  []FailureResponse{},
		Duration:  r.Duration().String(),
	}
	for _, f := range r.DocumentFailures {
		out.Failures = append(out.Failures, FailureResponse{URL: f.URL, Error: f.Err.Error()})
	}
	for _, f := range r.Failures {
		seq := f.Key.Sequence
		out.Failures = append(out.Failures, FailureResponse{URL: f.Key.URL, ChunkNumber: &seq, Error: f.Err.Error()})
	}
	return out
}

func newRunResponse(run domain.IngestRun) RunResponse {
	return RunResponse{
		ID:         run.ID,
		Source:     run.Source,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Documents:  run.Documents,
		Stored:     run.Stored,
		Failed:     run.Failed,
		Trimmed:    run.Trimmed,
		Error:      run.Error,
	}
}
