package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService ranks stored chunks against a query and assembles a
// context set that fits a character budget.
type RetrievalService struct {
	embedder driven.EmbeddingService
	store    driven.ChunkStore
	settings domain.RetrievalSettings
	filter   domain.Filter
}

// NewRetrievalService creates a retrieval service.
// filter restricts every search, usually to the configured source tag.
func NewRetrievalService(
	embedder driven.EmbeddingService,
	store driven.ChunkStore,
	settings domain.RetrievalSettings,
	filter domain.Filter,
) *RetrievalService {
	if settings.TopK <= 0 {
		settings.TopK = domain.DefaultTopK
	}
	if settings.Budget <= 0 {
		settings.Budget = domain.DefaultContextBudget
	}
	return &RetrievalService{
		embedder: embedder,
		store:    store,
		settings: settings,
		filter:   filter,
	}
}

// Retrieve returns the most similar chunks for query. Errors wrap
// domain.ErrEmbeddingUnavailable; a store failure yields an empty result.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k, budget int) (domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no chunks")
		return domain.RetrievalResult{}, nil
	}
	if k <= 0 {
		k = s.settings.TopK
	}
	if budget <= 0 {
		budget = s.settings.Budget
	}
	logger.Debug("Query: %q, k=%d, budget=%d, filter=%v", query, k, budget, s.filter)

	if s.embedder == nil {
		return nil, fmt.Errorf("embed query: %w", domain.ErrEmbeddingUnavailable)
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	hits, err := s.store.Search(ctx, vector, k, s.filter)
	if err != nil {
		// An unreachable store means no context, not a failed query.
		logger.Warn("Search failed, returning no chunks: %v", err)
		return domain.RetrievalResult{}, nil
	}
	logger.Debug("Store returned %d hits", len(hits))

	ranked := rank(hits, k)
	result := assemble(ranked, budget)
	logger.Info("Retrieved %d chunks (%d after ranking)", len(result), len(ranked))

	return result, nil
}

// rank orders hits by descending score, keeping store order on ties, drops
// repeated (url, sequence) keys and truncates to k.
func rank(hits []domain.ScoredChunk, k int) domain.RetrievalResult {
	sorted := make([]domain.ScoredChunk, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	seen := make(map[domain.ChunkKey]struct{}, len(sorted))
	out := make(domain.RetrievalResult, 0, min(k, len(sorted)))
	for _, hit := range sorted {
		key := hit.Chunk.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, hit)
		if len(out) == k {
			break
		}
	}
	return out
}

// assemble keeps whole chunks in order until the next one would push the
// total content length past budget.
func assemble(ranked domain.RetrievalResult, budget int) domain.RetrievalResult {
	total := 0
	for i, hit := range ranked {
		total += len(hit.Chunk.Content)
		if total > budget {
			return ranked[:i]
		}
	}
	return ranked
}
