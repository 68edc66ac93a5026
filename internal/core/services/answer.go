package services

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// NoRelevantDocumentationAnswer is the answer given whenever the read path degrades.
const NoRelevantDocumentationAnswer = "No relevant documentation found."

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService composes retrieval and generation into a single question
// answering operation that never fails.
type AnswerService struct {
	retriever driving.RetrievalService
	composer  *AnswerComposer
}

// NewAnswerService creates an answer service.
func NewAnswerService(retriever driving.RetrievalService, composer *AnswerComposer) *AnswerService {
	return &AnswerService{retriever: retriever, composer: composer}
}

// Retrieve exposes the raw context for callers that generate their own answer.
func (s *AnswerService) Retrieve(ctx context.Context, query string, k, budget int) (domain.RetrievalResult, error) {
	return s.retriever.Retrieve(ctx, query, k, budget)
}

// Answer returns the model's answer to query, or NoRelevantDocumentationAnswer
// when retrieval finds nothing or any collaborator fails.
func (s *AnswerService) Answer(ctx context.Context, query string) string {
	result, err := s.retriever.Retrieve(ctx, query, 0, 0)
	if err != nil {
		logger.Warn("Retrieval failed: %v", err)
		return NoRelevantDocumentationAnswer
	}
	if len(result) == 0 {
		return NoRelevantDocumentationAnswer
	}

	answer, err := s.composer.Compose(ctx, query, result.Chunks())
	if err != nil {
		logger.Warn("Answer generation failed: %v", err)
		return NoRelevantDocumentationAnswer
	}
	if answer == "" {
		return NoRelevantDocumentationAnswer
	}
	return answer
}
