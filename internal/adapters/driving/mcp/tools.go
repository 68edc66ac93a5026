package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// noDocumentationText is returned by the retrieval tool when nothing matches.
const noDocumentationText = "No relevant documentation found."

// RetrieveInput is the input schema for the retrieve_relevant_documentation tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the question or topic to find documentation for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of chunks to return (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve_relevant_documentation tool.
type RetrieveOutput struct {
	Context string        `json:"context"`
	Chunks  []ChunkOutput `json:"chunks"`
	Count   int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	URL         string  `json:"url"`
	ChunkNumber int     `json:"chunk_number"`
	Title       string  `json:"title"`
	Summary     string  `json:"summary,omitempty"`
	Score       float64 `json:"score"`
}

// AnswerInput is the input schema for the answer tool.
type AnswerInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the documentation"`
}

// AnswerOutput is the output schema for the answer tool.
type AnswerOutput struct {
	Answer string `json:"answer"`
}

// ListPagesInput is the (empty) input schema for the list_documentation_pages tool.
type ListPagesInput struct{}

// ListPagesOutput is the output schema for the list_documentation_pages tool.
type ListPagesOutput struct {
	Pages []string `json:"pages"`
	Count int      `json:"count"`
}

// PageContentInput is the input schema for the get_page_content tool.
type PageContentInput struct {
	URL string `json:"url" jsonschema:"the URL of the page to read"`
}

// PageContentOutput is the output schema for the get_page_content tool.
type PageContentOutput struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_relevant_documentation",
		Description: "Retrieve the documentation chunks most relevant to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer",
		Description: "Answer a question from the indexed documentation",
	}, s.handleAnswer)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documentation_pages",
		Description: "List the URLs of all indexed documentation pages",
	}, s.handleListPages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_page_content",
		Description: "Get the full content of a documentation page, reassembled from its chunks",
	}, s.handlePageContent)
}

// handleRetrieve handles the retrieve_relevant_documentation tool invocation.
// Retrieval failures are reported as an empty context rather than a tool error.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	result, err := s.ports.Answer.Retrieve(ctx, input.Query, input.K, 0)
	if err != nil {
		if domain.IsUnavailable(err) {
			return nil, RetrieveOutput{Context: noDocumentationText, Chunks: []ChunkOutput{}}, nil
		}
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Context: result.Format(),
		Chunks:  make([]ChunkOutput, len(result)),
		Count:   len(result),
	}
	if len(result) == 0 {
		output.Context = noDocumentationText
	}

	for i := range result {
		c := &result[i].Chunk
		output.Chunks[i] = ChunkOutput{
			URL:         c.URL,
			ChunkNumber: c.Sequence,
			Title:       c.Title,
			Summary:     c.Summary,
			Score:       result[i].Score,
		}
	}

	return nil, output, nil
}

// handleAnswer handles the answer tool invocation.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	return nil, AnswerOutput{Answer: s.ports.Answer.Answer(ctx, input.Query)}, nil
}

// handleListPages handles the list_documentation_pages tool invocation.
func (s *Server) handleListPages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListPagesInput,
) (*mcp.CallToolResult, ListPagesOutput, error) {
	if s.ports.Pages == nil {
		return nil, ListPagesOutput{Pages: []string{}}, nil
	}

	pages, err := s.ports.Pages.ListPages(ctx)
	if err != nil {
		return nil, ListPagesOutput{}, err
	}
	if pages == nil {
		pages = []string{}
	}

	return nil, ListPagesOutput{Pages: pages, Count: len(pages)}, nil
}

// handlePageContent handles the get_page_content tool invocation.
func (s *Server) handlePageContent(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PageContentInput,
) (*mcp.CallToolResult, PageContentOutput, error) {
	if s.ports.Pages == nil {
		return nil, PageContentOutput{}, domain.ErrNotFound
	}

	page, err := s.ports.Pages.PageContent(ctx, input.URL)
	if err != nil {
		return nil, PageContentOutput{}, err
	}

	return nil, PageContentOutput{URL: page.URL, Title: page.Title, Content: page.Content}, nil
}
