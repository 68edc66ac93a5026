// Package postprocessors turns crawled documents into chunks ready to embed.
package postprocessors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs its stages in order. After the last stage, blank chunks are
// dropped and the rest are numbered 0..n-1 under the document URL, so stages
// never have to keep sequences contiguous themselves.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline from the given stages.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process chunks doc. Stage failures wrap domain.ErrChunking; cancellation
// is returned as is.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrChunking)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		var err error
		chunks, err = stage.Process(ctx, doc, chunks)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, domain.ErrChunking):
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		default:
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrChunking, stage.Name(), err)
		}
	}

	return renumber(doc.URL, chunks), nil
}

func renumber(url string, chunks []domain.Chunk) []domain.Chunk {
	if chunks == nil {
		return nil
	}
	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		c.URL = url
		c.Sequence = len(out)
		out = append(out, c)
	}
	return out
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Names lists the stages in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
