package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure PageService implements the interface.
var _ driving.PageService = (*PageService)(nil)

// PageService lists indexed pages and reassembles them from their chunks.
type PageService struct {
	store  driven.ChunkStore
	filter domain.Filter
}

// NewPageService creates a page service restricted to filter.
func NewPageService(store driven.ChunkStore, filter domain.Filter) *PageService {
	return &PageService{store: store, filter: filter}
}

// ListPages returns the sorted, distinct URLs of every indexed page.
func (s *PageService) ListPages(ctx context.Context) ([]string, error) {
	urls, err := s.store.ListURLs(ctx, s.filter)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return urls, nil
}

// PageContent joins the chunks of a page in sequence order under a heading
// taken from the first chunk's title.
func (s *PageService) PageContent(ctx context.Context, url string) (*domain.Page, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}

	chunks, err := s.store.PageChunks(ctx, url, s.filter)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", url, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("page %s: %w", url, domain.ErrNotFound)
	}

	title := pageTitle(chunks[0].Title)
	body := lo.Map(chunks, func(c domain.Chunk, _ int) string { return c.Content })

	return &domain.Page{
		URL:     url,
		Title:   title,
		Content: "# " + title + "\n\n" + strings.Join(body, "\n\n"),
		Chunks:  len(chunks),
	}, nil
}

// pageTitle drops the " - section" suffix chunk titles often carry.
func pageTitle(chunkTitle string) string {
	title, _, _ := strings.Cut(chunkTitle, " - ")
	return strings.TrimSpace(title)
}
