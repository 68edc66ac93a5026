package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// stubEmbedder returns a fixed vector per text, or a vector derived from its length.
type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	failOn  map[string]bool
	calls   int
	// delay is slept before each call; afterCall runs once it returns.
	delay     time.Duration
	afterCall func(calls int)
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	time.Sleep(e.delay)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.afterCall != nil {
		defer e.afterCall(e.calls)
	}
	if e.err != nil {
		return nil, e.err
	}
	if e.failOn[text] {
		return nil, errors.New("embedding api timeout")
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int            { return 3 }
func (e *stubEmbedder) ModelName() string          { return "stub" }
func (e *stubEmbedder) Ping(context.Context) error { return nil }
func (e *stubEmbedder) Close() error               { return nil }

// stubStore is an in-memory ChunkStore with brute-force cosine search.
// hits, when set, is returned verbatim from Search.
type stubStore struct {
	mu        sync.Mutex
	chunks    map[domain.ChunkKey]domain.Chunk
	hits      []domain.ScoredChunk
	searchErr error
	upsertErr error
	failURL   string
	lastK     int
	lastF     domain.Filter
}

func newStubStore() *stubStore {
	return &stubStore{chunks: make(map[domain.ChunkKey]domain.Chunk)}
}

func (s *stubStore) Upsert(_ context.Context, c *domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.failURL != "" && c.URL == s.failURL {
		return domain.ErrStoreUnavailable
	}
	s.chunks[c.Key()] = *c
	return nil
}

func (s *stubStore) Search(_ context.Context, v []float32, k int, f domain.Filter) ([]domain.ScoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastK, s.lastF = k, f
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if s.hits != nil {
		return s.hits, nil
	}
	var out []domain.ScoredChunk
	for _, c := range s.chunks {
		if f.Matches(c.Metadata) {
			out = append(out, domain.ScoredChunk{Chunk: c, Score: cosine(v, c.Embedding)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (s *stubStore) ListURLs(_ context.Context, f domain.Filter) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	seen := map[string]bool{}
	var urls []string
	for _, c := range s.chunks {
		if f.Matches(c.Metadata) && !seen[c.URL] {
			seen[c.URL] = true
			urls = append(urls, c.URL)
		}
	}
	sort.Strings(urls)
	return urls, nil
}

func (s *stubStore) PageChunks(_ context.Context, url string, f domain.Filter) ([]domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	var out []domain.Chunk
	for _, c := range s.chunks {
		if c.URL == url && f.Matches(c.Metadata) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *stubStore) TrimPage(_ context.Context, url string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.chunks {
		if k.URL == url && k.Sequence >= keep {
			delete(s.chunks, k)
			n++
		}
	}
	return n, nil
}

func (s *stubStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks), nil
}

func (s *stubStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// stubLLM replies with reply, or err, and records the last request.
type stubLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (l *stubLLM) Chat(_ context.Context, msgs []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.messages = msgs
	l.opts = opts
	return l.reply, l.err
}

func (l *stubLLM) ModelName() string          { return "stub-llm" }
func (l *stubLLM) Ping(context.Context) error { return nil }
func (l *stubLLM) Close() error               { return nil }

// stubPrompts serves prompts from a map.
type stubPrompts map[string]string

func (p stubPrompts) Load(name string) (string, error) {
	if v, ok := p[name]; ok {
		return v, nil
	}
	return "", domain.ErrNotFound
}

type stubCounter struct{}

func (stubCounter) Count(text string) int { return len(text) / 4 }
func (stubCounter) Encoding() string      { return "stub" }

// sliceSource is a DocumentSource over a fixed slice.
type sliceSource struct {
	docs []domain.Document
	err  error
}

func (s *sliceSource) Name() string { return "slice" }

func (s *sliceSource) Documents(ctx context.Context) (<-chan domain.Document, <-chan error) {
	docs := make(chan domain.Document)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(docs)
		for _, d := range s.docs {
			select {
			case docs <- d:
			case <-ctx.Done():
				return
			}
		}
		if s.err != nil {
			errs <- s.err
		}
	}()
	return docs, errs
}
