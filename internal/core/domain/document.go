package domain

import (
	"fmt"
	"time"
)

// Document is one crawled documentation page.
// Documents are produced by the crawler and never modified by docrag.
type Document struct {
	// URL is the canonical page address.
	URL string

	// Content is the page text, usually Markdown.
	Content string

	// FetchedAt is when the crawler fetched the page.
	FetchedAt time.Time

	// Source tags the documentation set the page belongs to.
	// Empty means the configured default source.
	Source string
}

// Chunk is a retrievable unit of a page.
// A chunk is identified by its ChunkKey and is only replaced by re-ingesting its page.
type Chunk struct {
	// URL is the page the chunk was cut from.
	URL string

	// Sequence is the zero-based position of the chunk within its page.
	Sequence int

	// Title is a short human-readable title.
	Title string

	// Summary is a one or two sentence description. May be empty.
	Summary string

	// Content is the chunk text.
	Content string

	// Metadata holds free-form attributes such as source and crawled_at.
	Metadata map[string]any

	// Embedding is the vector representation of Content.
	Embedding []float32
}

// Key returns the identity of the chunk.
func (c *Chunk) Key() ChunkKey {
	return ChunkKey{URL: c.URL, Sequence: c.Sequence}
}

// Source returns the metadata source tag, or "" when absent.
func (c *Chunk) Source() string {
	if c.Metadata == nil {
		return ""
	}
	s, _ := c.Metadata[MetadataSource].(string)
	return s
}

// ChunkKey uniquely identifies a chunk.
type ChunkKey struct {
	URL      string
	Sequence int
}

// String returns a printable form of the key.
func (k ChunkKey) String() string {
	return fmt.Sprintf("%s#%d", k.URL, k.Sequence)
}

// Well-known chunk metadata keys.
const (
	MetadataSource    = "source"
	MetadataSize      = "size"
	MetadataCrawledAt = "crawled_at"
	MetadataURLPath   = "url_path"
	MetadataTokens    = "tokens"
)

// ChunkMetadata is the title and summary attached to a chunk.
type ChunkMetadata struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Filter restricts a search to chunks whose metadata matches every entry exactly.
type Filter map[string]string

// Matches reports whether the metadata satisfies the filter.
// A nil or empty filter matches everything.
func (f Filter) Matches(metadata map[string]any) bool {
	for k, want := range f {
		got, ok := metadata[k]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}
