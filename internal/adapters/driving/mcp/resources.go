package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

const (
	pagesURI   = "docrag://pages"
	pagePrefix = pagesURI + "/"

	mimeJSON     = "application/json"
	mimeMarkdown = "text/markdown"
)

// pageEntry is one element of the docrag://pages listing. URI can be read
// back as a resource.
type pageEntry struct {
	URL string `json:"url"`
	URI string `json:"uri"`
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         pagesURI,
		Name:        "pages",
		Description: "Indexed documentation pages with the resource URI of each",
		MIMEType:    mimeJSON,
	}, s.readPages)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: pagePrefix + "{url}",
		Name:        "page",
		Description: "Markdown of one indexed page, reassembled from its chunks. The page URL is path-escaped.",
		MIMEType:    mimeMarkdown,
	}, s.readPage)
}

func (s *Server) readPages(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	entries := []pageEntry{}
	if s.ports.Pages != nil {
		urls, err := s.ports.Pages.ListPages(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing pages: %w", err)
		}
		for _, u := range urls {
			entries = append(entries, pageEntry{URL: u, URI: PageURI(u)})
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return contents(req.Params.URI, mimeJSON, string(data)), nil
}

func (s *Server) readPage(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	pageURL, ok := pageFromURI(uri)
	if !ok || s.ports.Pages == nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	page, err := s.ports.Pages.PageContent(ctx, pageURL)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, mcp.ResourceNotFoundError(uri)
	case err != nil:
		return nil, fmt.Errorf("reading page %s: %w", pageURL, err)
	}
	return contents(uri, mimeMarkdown, page.Content), nil
}

func contents(uri, mime, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mime, Text: text}},
	}
}

// PageURI is the resource URI under which a page can be read.
func PageURI(pageURL string) string {
	return pagePrefix + url.PathEscape(pageURL)
}

func pageFromURI(uri string) (string, bool) {
	escaped, ok := strings.CutPrefix(uri, pagePrefix)
	if !ok || escaped == "" {
		return "", false
	}
	pageURL, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}
	return pageURL, true
}
