// Package retry decorates an embedding service with bounded retries,
// rate limiting and vector dimension checks.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docrag/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Backoff bounds.
const (
	BaseDelay = 200 * time.Millisecond
	MaxDelay  = 5 * time.Second

	// MaxRetryAfter caps a server-requested wait.
	MaxRetryAfter = time.Minute
)

// Config controls the decorator.
type Config struct {
	// Attempts is the total number of calls per request. Values below 1 mean 1.
	Attempts int

	// RequestsPerSecond limits outgoing calls. Zero disables limiting.
	RequestsPerSecond float64

	// Dimensions is the expected vector length. Zero uses the inner service's.
	Dimensions int

	// Retryable decides whether an error is worth another attempt.
	// Defaults to httpjson.IsTemporary.
	Retryable func(error) bool

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// EmbeddingService wraps another EmbeddingService.
type EmbeddingService struct {
	inner      driven.EmbeddingService
	limiter    *rate.Limiter
	attempts   int
	dimensions int
	retryable  func(error) bool
	sleep      func(ctx context.Context, d time.Duration) error
}

// New wraps inner.
func New(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	s := &EmbeddingService{
		inner:      inner,
		attempts:   max(cfg.Attempts, 1),
		dimensions: cfg.Dimensions,
		retryable:  cfg.Retryable,
		sleep:      cfg.sleep,
	}
	if s.dimensions == 0 {
		s.dimensions = inner.Dimensions()
	}
	if s.retryable == nil {
		s.retryable = httpjson.IsTemporary
	}
	if s.sleep == nil {
		s.sleep = sleepCtx
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return s
}

// Embed generates a vector for text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := s.do(ctx, func() error {
		v, err := s.inner.Embed(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.check(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch generates vectors for texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := s.do(ctx, func() error {
		v, err := s.inner.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		vectors = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
	}
	for _, v := range vectors {
		if err := s.check(v); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

func (s *EmbeddingService) do(ctx context.Context, call func() error) error {
	var err error
	for attempt := range s.attempts {
		if s.limiter != nil {
			if werr := s.limiter.Wait(ctx); werr != nil {
				return werr
			}
		}
		err = call()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.retryable(err) || attempt == s.attempts-1 {
			break
		}
		delay := Backoff(attempt)
		if wait := httpjson.RetryAfter(err); wait > 0 {
			delay = min(wait, MaxRetryAfter)
		}
		logger.Debug("embedding attempt %d failed, retrying in %s: %v", attempt+1, delay, err)
		if serr := s.sleep(ctx, delay); serr != nil {
			return serr
		}
	}
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}

func (s *EmbeddingService) check(v []float32) error {
	if s.dimensions > 0 && len(v) != s.dimensions {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v), s.dimensions)
	}
	return nil
}

// Backoff returns the delay after the given zero-based attempt.
func Backoff(attempt int) time.Duration {
	if attempt >= 5 {
		return MaxDelay
	}
	return min(BaseDelay<<attempt, MaxDelay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Dimensions returns the expected vector length.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the inner model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the inner service once.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}
