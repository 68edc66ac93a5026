// Package ai builds the embedding and LLM adapters selected by settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/docrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docrag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/embedding/retry"
	anthropicllm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// pingTimeout bounds connectivity checks.
const pingTimeout = 5 * time.Second

// Services holds the AI adapters for one process.
// Either field may be nil when its provider is not configured.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService

	// Warnings lists non-fatal problems, such as an unreachable LLM.
	Warnings []string
}

// Close releases both services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// Init creates both services. An embedding service that cannot be created
// is an error because nothing can be ingested or retrieved without it. An
// LLM that cannot be created or reached is only a warning: metadata falls
// back to first-line titles and answers report no documentation.
func Init(ctx context.Context, settings domain.AppSettings) (*Services, error) {
	out := &Services{}

	emb, err := NewEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if emb == nil {
		out.Warnings = append(out.Warnings, "embedding provider not configured")
	}
	out.Embedding = emb

	llm, err := CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		out.Warnings = append(out.Warnings, err.Error())
	} else if llm == nil {
		out.Warnings = append(out.Warnings, "LLM provider not configured")
	}
	out.LLM = llm

	for _, w := range out.Warnings {
		logger.Warn("%s", w)
	}
	return out, nil
}

// NewEmbeddingService creates the configured embedding adapter wrapped with
// retries, rate limiting and dimension checks. Returns nil, nil when the
// provider is not configured.
func NewEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	inner, err := CreateEmbeddingService(settings)
	if err != nil || inner == nil {
		return nil, err
	}
	attempts := settings.MaxRetries
	if attempts == 0 {
		attempts = domain.DefaultEmbeddingRetries
	}
	return retry.New(inner, retry.Config{
		Attempts:          attempts,
		RequestsPerSecond: settings.RequestsPerSecond,
		Dimensions:        settings.ResolvedDimensions(),
	}), nil
}

// CreateAndValidateLLMService creates an LLM service and pings it.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable: %w", domain.ErrLLMUnavailable, settings.Provider, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
// An unconfigured provider is valid.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig creates an LLM service and pings it.
// An unconfigured provider is valid.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ErrNoEmbeddings is returned for providers without an embeddings API.
var ErrNoEmbeddings = errors.New("provider does not support embeddings")

// CreateEmbeddingService creates the bare embedding adapter for settings.
// Returns nil, nil when the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: %s, use ollama or openai", ErrNoEmbeddings, settings.Provider)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrInvalidInput, settings.Provider)
	}
}

// CreateLLMService creates the LLM adapter for settings.
// Returns nil, nil when the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", domain.ErrInvalidInput, settings.Provider)
	}
}
