package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// PageService browses the indexed documentation pages.
type PageService interface {
	// ListPages returns the sorted URLs of every page of the configured source.
	ListPages(ctx context.Context) ([]string, error)

	// PageContent reassembles a page from its chunks in sequence order.
	// Returns domain.ErrNotFound when the page has no chunks.
	PageContent(ctx context.Context, url string) (*domain.Page, error)
}
