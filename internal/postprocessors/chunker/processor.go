// Package chunker splits documentation pages into retrieval-sized chunks that
// respect code blocks, paragraphs and sentences.
package chunker

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// DefaultChunkSize is the default maximum chunk length in bytes.
const DefaultChunkSize = domain.DefaultChunkSize

// Processor turns a document into chunks with contiguous sequence numbers.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	source    string
	now       func() time.Time
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithSource sets the source tag for documents that carry none.
func WithSource(source string) Option {
	return func(p *Processor) {
		if source != "" {
			p.source = source
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		source:    domain.DefaultSource,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.URL == "" {
		return nil, fmt.Errorf("%w: document has no URL", domain.ErrChunking)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parts := Split(doc.Content, p.chunkSize)
	if len(parts) == 0 {
		return nil, nil
	}

	source := doc.Source
	if source == "" {
		source = p.source
	}
	crawledAt := doc.FetchedAt
	if crawledAt.IsZero() {
		crawledAt = p.now()
	}
	urlPath := ""
	if u, err := url.Parse(doc.URL); err == nil {
		urlPath = u.Path
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, domain.Chunk{
			URL:      doc.URL,
			Sequence: i,
			Content:  part,
			Metadata: map[string]any{
				domain.MetadataSource:    source,
				domain.MetadataSize:      len(part),
				domain.MetadataCrawledAt: crawledAt.UTC().Format(time.RFC3339),
				domain.MetadataURLPath:   urlPath,
			},
		})
	}

	return chunks, nil
}
