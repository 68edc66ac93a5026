// Package tiktoken counts tokens with OpenAI's BPE encodings.
package tiktoken

import (
	"cmp"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.TokenCounter = (*Counter)(nil)

// DefaultEncoding is used when no model name resolves.
const DefaultEncoding = "cl100k_base"

// bytesPerToken is the estimate used when the encoding cannot be loaded.
const bytesPerToken = 4

// Counter counts tokens. The encoding is loaded on first use; tiktoken-go
// downloads and caches it (see TIKTOKEN_CACHE_DIR). If loading fails the
// counter estimates four bytes per token.
type Counter struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
	name string
}

// New creates a counter for model, e.g. "gpt-4o-mini". An empty or unknown
// model uses DefaultEncoding.
func New(model string) *Counter {
	return &Counter{model: model}
}

func (c *Counter) load() {
	c.once.Do(func() {
		if c.model != "" {
			if enc, err := tiktoken.EncodingForModel(c.model); err == nil {
				c.enc, c.name = enc, cmp.Or(tiktoken.MODEL_TO_ENCODING[c.model], c.model)
				return
			}
		}
		enc, err := tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			logger.Warn("tiktoken encoding unavailable, estimating token counts: %v", err)
			c.name = "estimate"
			return
		}
		c.enc, c.name = enc, DefaultEncoding
	})
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.load()
	if c.enc == nil {
		return (len(text) + bytesPerToken - 1) / bytesPerToken
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Encoding returns the encoding name, or "estimate" when none could be loaded.
func (c *Counter) Encoding() string {
	c.load()
	return c.name
}
