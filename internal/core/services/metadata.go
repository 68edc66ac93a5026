package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

const (
	// metadataExcerptLen bounds how much of a chunk is sent to the LLM.
	metadataExcerptLen = 1000

	// fallbackTitleLen bounds the first-line title used when the LLM is unavailable.
	fallbackTitleLen = 80
)

// Placeholders in the chunk_metadata template. Everything else, including
// a literal %, is sent as written.
const (
	placeholderURL     = "{url}"
	placeholderContent = "{content}"
)

const defaultChunkMetadataPrompt = `Return a JSON object with "title" and "summary" keys describing this documentation chunk.

URL: {url}

Content:
{content}`

// Ensure MetadataExtractor supports prompt customisation.
var _ driven.PromptStoreAware = (*MetadataExtractor)(nil)

// MetadataExtractor derives a title and summary for each chunk.
// It never fails: without a usable LLM reply it falls back to the first line.
type MetadataExtractor struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewMetadataExtractor creates an extractor. llm may be nil.
func NewMetadataExtractor(llm driven.LLMService) *MetadataExtractor {
	return &MetadataExtractor{llm: llm}
}

// SetPromptStore sets the prompt store for the chunk_metadata template.
func (e *MetadataExtractor) SetPromptStore(store driven.PromptStore) {
	e.prompts = store
}

// Extract returns the title and summary of a chunk of the page at url.
func (e *MetadataExtractor) Extract(ctx context.Context, content, url string) domain.ChunkMetadata {
	meta, err := e.describe(ctx, content, url)
	if err != nil {
		logger.Debug("Metadata fallback for %s: %v", url, err)
		return fallbackMetadata(content)
	}
	return meta
}

func (e *MetadataExtractor) describe(ctx context.Context, content, url string) (domain.ChunkMetadata, error) {
	if e.llm == nil {
		return domain.ChunkMetadata{}, fmt.Errorf("%w: %w", domain.ErrMetadataUnavailable, domain.ErrLLMUnavailable)
	}

	prompt := strings.NewReplacer(
		placeholderURL, url,
		placeholderContent, excerpt(content, metadataExcerptLen),
	).Replace(e.template())
	reply, err := e.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "user", Content: prompt},
	}, driven.ChatOptions{JSON: true, Temperature: 0})
	if err != nil {
		return domain.ChunkMetadata{}, fmt.Errorf("%w: %w", domain.ErrMetadataUnavailable, err)
	}

	var meta domain.ChunkMetadata
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &meta); err != nil {
		return domain.ChunkMetadata{}, fmt.Errorf("%w: decode reply: %w", domain.ErrMetadataUnavailable, err)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	meta.Summary = strings.TrimSpace(meta.Summary)
	if meta.Title == "" {
		return domain.ChunkMetadata{}, fmt.Errorf("%w: empty title", domain.ErrMetadataUnavailable)
	}
	return meta, nil
}

func (e *MetadataExtractor) template() string {
	if e.prompts != nil {
		if p, err := e.prompts.Load(driven.PromptChunkMetadata); err == nil && hasPlaceholders(p) {
			return p
		}
	}
	return defaultChunkMetadataPrompt
}

func hasPlaceholders(template string) bool {
	return strings.Contains(template, placeholderURL) && strings.Contains(template, placeholderContent)
}

// fallbackMetadata uses the first non-empty line, without heading markers, as title.
func fallbackMetadata(content string) domain.ChunkMetadata {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		return domain.ChunkMetadata{Title: truncateRunes(line, fallbackTitleLen)}
	}
	return domain.ChunkMetadata{}
}

// excerpt returns at most n bytes of s without splitting a rune.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// stripCodeFence removes a ```json wrapper some models put around JSON replies.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
