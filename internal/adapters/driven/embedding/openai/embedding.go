// Package openai embeds text with the OpenAI embeddings API or a compatible
// endpoint such as Azure OpenAI.
package openai

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docrag/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// maxInputs is the per-request input limit of /embeddings.
	maxInputs = 2048
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3-* vectors. Zero keeps the model size.
	Dimensions int
}

type EmbeddingService struct {
	api   *httpjson.Client
	model string
	dims  int

	// shorten is sent as the dimensions parameter when non-zero.
	shorten int
	batch   int
}

type embedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrInvalidInput)
	}
	model := cmp.Or(cfg.Model, DefaultModel)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &EmbeddingService{
		api: httpjson.New("openai", cmp.Or(cfg.BaseURL, DefaultBaseURL), timeout,
			map[string]string{"Authorization": "Bearer " + cfg.APIKey}),
		model: model,
		dims:  domain.EmbeddingSettings{Model: model, Dimensions: cfg.Dimensions}.ResolvedDimensions(),
		batch: maxInputs,
	}
	if strings.HasPrefix(model, "text-embedding-3-") {
		s.shorten = cfg.Dimensions
	}
	return s, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch returns vectors in input order. Batches above the API limit are
// sent as several requests.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batch {
		part := texts[start:min(start+s.batch, len(texts))]
		vectors, err := s.request(ctx, part)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (s *EmbeddingService) request(ctx context.Context, texts []string) ([][]float32, error) {
	var resp embedResponse
	req := embedRequest{Model: s.model, Input: texts, Dimensions: s.shorten}
	if err := s.api.Post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}

	// Data is not guaranteed to follow input order.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = httpjson.Float32s(d.Embedding)
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("openai: no embedding for input %d", i)
		}
	}
	return vectors, nil
}

func (s *EmbeddingService) Dimensions() int { return s.dims }

func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/models", nil)
}

func (s *EmbeddingService) Close() error { return nil }
