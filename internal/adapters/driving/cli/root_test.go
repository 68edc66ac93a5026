package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// mockAnswerService implements driving.AnswerService for testing.
type mockAnswerService struct {
	answer    string
	result    domain.RetrievalResult
	err       error
	lastK     int
	lastQuery string
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

// mockPageService implements driving.PageService for testing.
type mockPageService struct {
	urls  []string
	pages map[string]*domain.Page
}

func (m *mockPageService) ListPages(_ context.Context) ([]string, error) {
	return m.urls, nil
}

func (m *mockPageService) PageContent(_ context.Context, url string) (*domain.Page, error) {
	page, ok := m.pages[url]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return page, nil
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	report  *domain.IngestReport
	err     error
	sources []string
}

func (m *mockIngestService) Ingest(_ context.Context, source driven.DocumentSource) (*domain.IngestReport, error) {
	m.sources = append(m.sources, source.Name())
	return m.report, m.err
}

func (m *mockIngestService) IngestDocuments(_ context.Context, _ []domain.Document) (*domain.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngestService) Status() driving.IngestStatus {
	return driving.IngestStatus{}
}

// mockRunHistory implements driving.RunHistory for testing.
type mockRunHistory struct {
	runs      []domain.IngestRun
	lastLimit int
}

func (m *mockRunHistory) Recent(_ context.Context, limit int) ([]domain.IngestRun, error) {
	m.lastLimit = limit
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

// fakeSource is an empty driven.DocumentSource.
type fakeSource struct {
	name   string
	closed bool
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Documents(_ context.Context) (<-chan domain.Document, <-chan error) {
	docs := make(chan domain.Document)
	errs := make(chan error)
	close(docs)
	close(errs)
	return docs, errs
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// fakeScheduler runs until its context is cancelled.
type fakeScheduler struct {
	started chan struct{}
	stopped bool
}

func (s *fakeScheduler) Start(ctx context.Context) error {
	close(s.started)
	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeScheduler) Stop() error {
	s.stopped = true
	return nil
}

type testServices struct {
	answer    *mockAnswerService
	pages     *mockPageService
	ingest    *mockIngestService
	history   *mockRunHistory
	source    *fakeSource
	scheduler *fakeScheduler
	closed    bool
}

func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		answer: &mockAnswerService{
			answer: "Register tools with Agent.tool().",
			result: domain.RetrievalResult{
				{Chunk: domain.Chunk{
					URL: "https://docs.example.com/tools", Sequence: 0,
					Title: "Tools", Summary: "Registering tools", Content: "Use Agent.tool()",
				}, Score: 0.91},
				{Chunk: domain.Chunk{
					URL: "https://docs.example.com/tools", Sequence: 1,
					Title: "Tools", Content: "Tool arguments are validated",
				}, Score: 0.84},
			},
		},
		pages: &mockPageService{
			urls: []string{"https://docs.example.com/agents", "https://docs.example.com/tools"},
			pages: map[string]*domain.Page{
				"https://docs.example.com/tools": {
					URL: "https://docs.example.com/tools", Title: "Tools",
					Content: "Use Agent.tool()\n\nTool arguments are validated", Chunks: 2,
				},
			},
		},
		ingest: &mockIngestService{
			report: &domain.IngestReport{
				RunID: "run-1", Documents: 2, Chunks: 5, Stored: 5,
				StartedAt: time.Unix(0, 0), FinishedAt: time.Unix(2, 0),
			},
		},
		history: &mockRunHistory{},
		source:  &fakeSource{name: "pages.jsonl"},
	}
	ts.scheduler = &fakeScheduler{started: make(chan struct{})}

	oldBootstrap := bootstrap
	bootstrap = nil
	SetServices(&Services{
		Answer:  ts.answer,
		Pages:   ts.pages,
		Ingest:  ts.ingest,
		History: ts.history,
		Open: func(_, _ string) (driven.DocumentSource, error) {
			return ts.source, nil
		},
		Scheduler: func(_ driven.DocumentSource, _ domain.ScheduleSettings) driving.Scheduler {
			return ts.scheduler
		},
		Close: func() error {
			ts.closed = true
			return nil
		},
	})

	return ts, func() {
		SetServices(&Services{})
		bootstrap = oldBootstrap
	}
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "docrag", rootCmd.Use)
}

func TestRootCmd_HasVerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ask", "retrieve", "ingest", "pages", "runs", "serve", "mcp", "settings", "tui", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRequireServices_RunsBootstrapOnce(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	calls := 0
	answer := &mockAnswerService{answer: "bootstrapped"}
	bootstrap = func(_ context.Context) (*Services, error) {
		calls++
		return &Services{Answer: answer}, nil
	}

	out, err := executeCommand(t, "ask", "first")
	require.NoError(t, err)
	assert.Contains(t, out, "bootstrapped")

	_, err = executeCommand(t, "ask", "second")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRequireServices_BootstrapError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	bootstrap = func(_ context.Context) (*Services, error) {
		return nil, domain.ErrStoreUnavailable
	}

	_, err := executeCommand(t, "ask", "anything")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestCloseServices_CalledAfterCommand(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "pages")
	require.NoError(t, err)
	assert.True(t, ts.closed)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.235s", formatDuration(1234567890*time.Nanosecond))
	assert.Equal(t, "0s", formatDuration(0))
}
