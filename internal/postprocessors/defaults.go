package postprocessors

import (
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/postprocessors/chunker"
	"github.com/custodia-labs/docrag/internal/postprocessors/tokens"
)

// NewDefaultPipeline is the ingest pipeline: the chunker sized and tagged
// from settings, then token counting when counter is non-nil. Zero settings
// keep the chunker defaults.
func NewDefaultPipeline(settings domain.AppSettings, counter driven.TokenCounter) *Pipeline {
	p := NewPipeline(chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithSource(settings.Ingest.Source),
	))
	if counter != nil {
		p.Add(tokens.New(counter))
	}
	return p
}
