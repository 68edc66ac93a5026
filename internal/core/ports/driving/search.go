package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// RetrievalService turns a query into a ranked, budgeted context set.
type RetrievalService interface {
	// Retrieve returns at most k chunks whose combined content length stays
	// within budget. Non-positive k and budget select the configured defaults.
	Retrieve(ctx context.Context, query string, k, budget int) (domain.RetrievalResult, error)
}

// AnswerService answers questions from the indexed documentation.
type AnswerService interface {
	RetrievalService

	// Answer never fails: any retrieval or generation failure yields a fixed
	// "No relevant documentation found." answer.
	Answer(ctx context.Context, query string) string
}
