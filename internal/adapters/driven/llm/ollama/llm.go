// Package ollama answers chat requests with a local Ollama server.
package ollama

import (
	"cmp"
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/custodia-labs/docrag/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config zero values take the defaults.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls /api/chat without streaming.
type LLMService struct {
	api   *httpjson.Client
	model string
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Format   string    `json:"format,omitempty"`
	Options  *options  `json:"options,omitempty"`
}

type chatResponse struct {
	Message message `json:"message"`
}

func NewLLMService(cfg Config) *LLMService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LLMService{
		api:   httpjson.New("ollama", cmp.Or(cfg.BaseURL, DefaultBaseURL), timeout, nil),
		model: cmp.Or(cfg.Model, DefaultModel),
	}
}

// newOptions omits the options object when nothing is overridden, so the
// model's Modelfile defaults apply.
func newOptions(opts driven.ChatOptions) *options {
	if opts.MaxTokens == 0 && opts.Temperature == 0 {
		return nil
	}
	return &options{NumPredict: opts.MaxTokens, Temperature: opts.Temperature}
}

// Chat sends the conversation. opts.JSON constrains the reply to JSON.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{
		Model: s.model,
		Messages: lo.Map(messages, func(m driven.ChatMessage, _ int) message {
			return message{Role: m.Role, Content: m.Content}
		}),
		Options: newOptions(opts),
	}
	if opts.JSON {
		req.Format = "json"
	}
	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping lists local models.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/api/tags", nil)
}

func (s *LLMService) Close() error { return nil }
