package driven

import "context"

// LLMService talks to a chat model. It titles and summarises chunks during
// ingest and composes answers. It is optional: without one, titles fall back
// to the first line of a chunk and Compose fails with ErrLLMUnavailable.
type LLMService interface {
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName reports the model, recorded on chunks and answers.
	ModelName() string

	// Ping makes the cheapest request the provider offers. Used when the
	// service is created and by settings validation.
	Ping(ctx context.Context) error

	Close() error
}

// ChatMessage is one turn of a conversation. Role is "system", "user" or
// "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a single Chat call. Zero values leave the provider
// default in place.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64

	// JSON asks the model to reply with a single JSON object.
	JSON bool
}
