package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// InsufficientContextAnswer is returned by the composer when there is nothing to answer from.
const InsufficientContextAnswer = NoRelevantDocumentationAnswer

const chunkSeparator = "\n\n---\n\n"

const defaultAnswerSystemPrompt = `You are a documentation assistant. Answer the question using only the documentation excerpts provided, citing their Source URLs. If the excerpts do not contain the answer, say so.`

// Ensure AnswerComposer supports prompt customisation.
var _ driven.PromptStoreAware = (*AnswerComposer)(nil)

// AnswerComposer turns retrieved chunks and a question into a model prompt
// and returns the model's reply.
type AnswerComposer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	counter driven.TokenCounter
}

// NewAnswerComposer creates a composer. counter may be nil.
func NewAnswerComposer(llm driven.LLMService, counter driven.TokenCounter) *AnswerComposer {
	return &AnswerComposer{llm: llm, counter: counter}
}

// SetPromptStore sets the prompt store for the answer_system prompt.
func (c *AnswerComposer) SetPromptStore(store driven.PromptStore) {
	c.prompts = store
}

// Compose answers query from chunks. With no chunks it returns
// InsufficientContextAnswer without calling the model.
func (c *AnswerComposer) Compose(ctx context.Context, query string, chunks []domain.Chunk) (string, error) {
	if len(chunks) == 0 {
		logger.Debug("No context chunks, skipping generation")
		return InsufficientContextAnswer, nil
	}
	if c.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	system := c.systemPrompt()
	prompt := BuildPrompt(query, chunks)
	if c.counter != nil {
		logger.Debug("Prompt tokens (%s): %d", c.counter.Encoding(), c.counter.Count(system)+c.counter.Count(prompt))
	}

	answer, err := c.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}, driven.ChatOptions{})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return strings.TrimSpace(answer), nil
}

func (c *AnswerComposer) systemPrompt() string {
	if c.prompts != nil {
		if p, err := c.prompts.Load(driven.PromptAnswerSystem); err == nil && p != "" {
			return p
		}
	}
	return defaultAnswerSystemPrompt
}

// BuildPrompt renders the chunks in order followed by the question.
// The output depends only on its arguments.
func BuildPrompt(query string, chunks []domain.Chunk) string {
	blocks := make([]string, len(chunks))
	for i := range chunks {
		blocks[i] = fmt.Sprintf("Source: %s\nTitle: %s\n\n%s", chunks[i].URL, chunks[i].Title, chunks[i].Content)
	}
	return strings.Join(blocks, chunkSeparator) + "\n\nQuestion: " + query
}
