package driven

// PromptStore serves the prompt templates sent to the LLM. Users may edit
// them; a store falls back to the built-in text when an edit is unusable.
type PromptStore interface {
	// Load returns the template called name. Unknown names are an error.
	Load(name string) (string, error)
}

// Template names.
const (
	// PromptChunkMetadata asks for a JSON object with "title" and "summary".
	// Its {url} and {content} placeholders take the page URL and the chunk
	// excerpt.
	PromptChunkMetadata = "chunk_metadata"

	// PromptAnswerSystem is the system prompt for composing answers. It has
	// no placeholders.
	PromptAnswerSystem = "answer_system"
)

// PromptStoreAware is implemented by services whose prompts can be replaced
// after construction. Without a store they use their built-in templates.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
