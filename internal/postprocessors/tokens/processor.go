// Package tokens annotates chunks with their model token count.
package tokens

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Processor records the token count of every chunk in its metadata.
// It implements the PostProcessor interface.
type Processor struct {
	counter driven.TokenCounter
}

// New creates a token counting processor.
func New(counter driven.TokenCounter) *Processor {
	return &Processor{counter: counter}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "tokens"
}

// Process sets metadata["tokens"] on each chunk. Chunks pass through unchanged
// when no counter is configured.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if p.counter == nil {
		return chunks, nil
	}
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any)
		}
		chunks[i].Metadata[domain.MetadataTokens] = p.counter.Count(chunks[i].Content)
	}
	return chunks, nil
}
