package driven

// TokenCounter counts model tokens in text.
// This is an optional service used for chunk metadata and prompt logging.
type TokenCounter interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// Encoding returns the name of the encoding in use.
	Encoding() string
}
