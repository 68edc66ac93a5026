package domain

import (
	"fmt"
	"strings"
)

// ScoredChunk is a chunk together with its similarity to a query.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity, higher is more relevant.
	Score float64
}

// RetrievalResult is an ordered list of scored chunks, most relevant first.
type RetrievalResult []ScoredChunk

// Chunks returns the chunks without scores.
func (r RetrievalResult) Chunks() []Chunk {
	out := make([]Chunk, len(r))
	for i := range r {
		out[i] = r[i].Chunk
	}
	return out
}

// Page is a documentation page reassembled from its chunks.
type Page struct {
	URL     string
	Title   string
	Content string
	Chunks  int
}

// Format renders the chunks as Markdown sections separated by horizontal
// rules, for tools that hand raw context to a model.
func (r RetrievalResult) Format() string {
	var b strings.Builder
	for i := range r {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		c := &r[i].Chunk
		title := c.Title
		if title == "" {
			title = c.URL
		}
		fmt.Fprintf(&b, "# %s\n\nSource: %s\n\n%s", title, c.URL, c.Content)
	}
	return b.String()
}
