// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docrag/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second
)

// Config zero values fall back to the defaults above. A zero Dimensions is
// looked up from the model name.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
}

// EmbeddingService calls /api/embed, which takes a whole batch per request.
type EmbeddingService struct {
	api   *httpjson.Client
	model string
	dims  int
}

func NewEmbeddingService(cfg Config) *EmbeddingService {
	base := cmp.Or(cfg.BaseURL, DefaultBaseURL)
	model := cmp.Or(cfg.Model, DefaultModel)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &EmbeddingService{
		api:   httpjson.New("ollama", base, timeout, nil),
		model: model,
		dims:  domain.EmbeddingSettings{Model: model, Dimensions: cfg.Dimensions}.ResolvedDimensions(),
	}
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	req := map[string]any{"model": s.model, "input": texts}
	if err := s.api.Post(ctx, "/api/embed", req, &resp); err != nil {
		return nil, err
	}
	if n := len(resp.Embeddings); n != len(texts) {
		return nil, fmt.Errorf("ollama: %d embeddings for %d inputs", n, len(texts))
	}

	out := make([][]float32, 0, len(texts))
	for _, e := range resp.Embeddings {
		out = append(out, httpjson.Float32s(e))
	}
	return out, nil
}

// Dimensions is 0 when the model is not in the known table.
func (s *EmbeddingService) Dimensions() int { return s.dims }

func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists local models, which needs no inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/api/tags", nil)
}

func (s *EmbeddingService) Close() error { return nil }
