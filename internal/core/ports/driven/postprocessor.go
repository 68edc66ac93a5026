package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// PostProcessor is one stage of turning a document into chunks. The first
// stage is handed nil chunks and splits the document. Later stages annotate
// the chunks they receive.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs a document through its stages in order.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
