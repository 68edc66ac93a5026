package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

type mockAnswerService struct {
	answer    string
	result    domain.RetrievalResult
	err       error
	lastQuery string
	lastK     int
}

func (m *mockAnswerService) Retrieve(_ context.Context, query string, k, _ int) (domain.RetrievalResult, error) {
	m.lastQuery = query
	m.lastK = k
	return m.result, m.err
}

func (m *mockAnswerService) Answer(_ context.Context, query string) string {
	m.lastQuery = query
	return m.answer
}

type mockPageService struct {
	pages []string
	page  *domain.Page
	err   error
}

func (m *mockPageService) ListPages(context.Context) ([]string, error) {
	return m.pages, m.err
}

func (m *mockPageService) PageContent(context.Context, string) (*domain.Page, error) {
	return m.page, m.err
}

type mockIngestService struct {
	report *domain.IngestReport
	err    error
	docs   []domain.Document
}

func (m *mockIngestService) Ingest(context.Context, driven.DocumentSource) (*domain.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngestService) IngestDocuments(_ context.Context, docs []domain.Document) (*domain.IngestReport, error) {
	m.docs = docs
	return m.report, m.err
}

func (m *mockIngestService) Status() driving.IngestStatus {
	return driving.IngestStatus{Running: true, DocumentsProcessed: 2}
}

type mockHistory struct {
	runs []domain.IngestRun
}

func (m *mockHistory) Recent(context.Context, int) ([]domain.IngestRun, error) {
	return m.runs, nil
}

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	s, err := NewServer(ports)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, target string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestNewServer(t *testing.T) {
	t.Run("nil answer service returns error", func(t *testing.T) {
		s, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrMissingAnswerService)
	})

	t.Run("answer service only is valid", func(t *testing.T) {
		s, err := NewServer(&Ports{Answer: &mockAnswerService{}})
		require.NoError(t, err)
		assert.NotNil(t, s)
	})
}

func TestHealthy(t *testing.T) {
	s := newTestServer(t, &Ports{Answer: &mockAnswerService{}})

	code, body := do(t, s, http.MethodGet, "/check/healthy", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"result":"ok"}`, string(body))
}

func TestAnswer(t *testing.T) {
	answers := &mockAnswerService{answer: "Run pip install x."}
	s := newTestServer(t, &Ports{Answer: answers})

	code, body := do(t, s, http.MethodPost, "/api/v1/answer", QueryParams{Query: "how do I install X?"})

	assert.Equal(t, http.StatusOK, code)
	var resp AnswerResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "Run pip install x.", resp.Answer)
	assert.Equal(t, "how do I install X?", answers.lastQuery)
}

func TestAnswer_Validation(t *testing.T) {
	s := newTestServer(t, &Ports{Answer: &mockAnswerService{}})

	t.Run("missing query", func(t *testing.T) {
		code, body := do(t, s, http.MethodPost, "/api/v1/answer", QueryParams{})

		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Contains(t, string(body), "QueryParams.Query")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/answer", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.App().Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRetrieve(t *testing.T) {
	answers := &mockAnswerService{result: domain.RetrievalResult{
		{Chunk: domain.Chunk{URL: "https://docs.example.com/install", Sequence: 1, Title: "Install", Content: "pip install x"}, Score: 0.91},
	}}
	s := newTestServer(t, &Ports{Answer: answers})

	code, body := do(t, s, http.MethodPost, "/api/v1/retrieve", QueryParams{Query: "install", K: 4})

	assert.Equal(t, http.StatusOK, code)
	var resp RetrieveResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Chunks, 1)
	assert.Equal(t, 1, resp.Chunks[0].ChunkNumber)
	assert.InDelta(t, 0.91, resp.Chunks[0].Score, 1e-9)
	assert.Contains(t, resp.Context, "Source: https://docs.example.com/install")
	assert.Equal(t, 4, answers.lastK)
}

func TestRetrieve_StoreUnavailable(t *testing.T) {
	answers := &mockAnswerService{err: errors.Join(domain.ErrStoreUnavailable, errors.New("connection refused"))}
	s := newTestServer(t, &Ports{Answer: answers})

	code, body := do(t, s, http.MethodPost, "/api/v1/retrieve", QueryParams{Query: "install"})

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, string(body), "connection refused")
}

func TestPages(t *testing.T) {
	pages := &mockPageService{
		pages: []string{"https://docs.example.com/a", "https://docs.example.com/b"},
		page:  &domain.Page{URL: "https://docs.example.com/a", Title: "A", Content: "# A\n\nbody", Chunks: 2},
	}
	s := newTestServer(t, &Ports{Answer: &mockAnswerService{}, Pages: pages})

	code, body := do(t, s, http.MethodGet, "/api/v1/pages", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"pages":["https://docs.example.com/a","https://docs.example.com/b"]}`, string(body))

	code, body = do(t, s, http.MethodGet, "/api/v1/pages/content?url=https://docs.example.com/a", nil)
	assert.Equal(t, http.StatusOK, code)
	var page PageResponse
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, "A", page.Title)
	assert.Equal(t, 2, page.Chunks)

	code, _ = do(t, s, http.MethodGet, "/api/v1/pages/content", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPages_NotFound(t *testing.T) {
	pages := &mockPageService{err: domain.ErrNotFound}
	s := newTestServer(t, &Ports{Answer: &mockAnswerService{}, Pages: pages})

	code, _ := do(t, s, http.MethodGet, "/api/v1/pages/content?url=https://docs.example.com/missing", nil)

	assert.Equal(t, http.StatusNotFound, code)
}

func TestOptionalPortsNotImplemented(t *testing.T) {
	s := newTestServer(t, &Ports{Answer: &mockAnswerService{}})

	for _, target := range []string{"/api/v1/pages", "/api/v1/ingest/status", "/api/v1/runs"} {
		code, _ := do(t, s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotImplemented, code, target)
	}
}

func TestIngest(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ingest := &mockIngestService{report: &domain.IngestReport{
		RunID:      "run-1",
		Documents:  1,
		Chunks:     2,
		Stored:     1,
		Failures:   []domain.ChunkFailure{{Key: domain.ChunkKey{URL: "https://docs.example.com/a", Sequence: 1}, Err: domain.ErrEmbeddingUnavailable}},
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}}
	s := newTestServer(t, &Ports{Answer: &mockAnswerService{}, Ingest: ingest})

	code, body := do(t, s, http.MethodPost, "/api/v1/ingest", IngestParams{Documents: []DocumentParams{
		{URL: "https://docs.example.com/a", Content: "# A\n\nbody"},
	}})

	assert.Equal(t, http.StatusOK, code)
	var resp IngestResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, 1, resp.Stored)
	require.Len(t, resp.Failures, 1)
	require.NotNil(t, resp.Failures[0].ChunkNumber)
	assert.Equal(t, 1, *resp.Failures[0].ChunkNumber)
	assert.Equal(t, "1s", resp.Duration)

	require.Len(t, ingest.docs, 1)
	assert.Equal(t, "https://docs.example.com/a", ingest.docs[0].URL)
}

func TestIngest_Validation(t *testing.T) {
	s := newTestServer(t, &Ports{Answer: &mockAnswerService{}, Ingest: &mockIngestService{}})

	code, _ := do(t, s, http.MethodPost, "/api/v1/ingest", IngestParams{})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, body := do(t, s, http.MethodPost, "/api/v1/ingest", IngestParams{Documents: []DocumentParams{{URL: "not a url"}}})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, string(body), "url")
}

func TestIngest_InProgress(t *testing.T) {
	ingest := &mockIngestService{err: domain.ErrIngestInProgress}
	s := newTestServer(t, &Ports{Answer: &mockAnswerService{}, Ingest: ingest})

	code, _ := do(t, s, http.MethodPost, "/api/v1/ingest", IngestParams{Documents: []DocumentParams{
		{URL: "https://docs.example.com/a", Content: "x"},
	}})

	assert.Equal(t, http.StatusConflict, code)
}

func TestIngestStatus(t *testing.T) {
	s := newTestServer(t, &Ports{Answer: &mockAnswerService{}, Ingest: &mockIngestService{}})

	code, body := do(t, s, http.MethodGet, "/api/v1/ingest/status", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"running":true,"documents_processed":2,"chunks_stored":0,"error_count":0}`, string(body))
}

func TestRuns(t *testing.T) {
	history := &mockHistory{runs: []domain.IngestRun{{ID: "run-2", Source: "docs", Stored: 5}}}
	s := newTestServer(t, &Ports{Answer: &mockAnswerService{}, History: history})

	code, body := do(t, s, http.MethodGet, "/api/v1/runs?limit=5", nil)
	assert.Equal(t, http.StatusOK, code)
	var runs []RunResponse
	require.NoError(t, json.Unmarshal(body, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-2", runs[0].ID)

	code, _ = do(t, s, http.MethodGet, "/api/v1/runs?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
