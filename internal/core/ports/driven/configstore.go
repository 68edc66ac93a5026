package driven

// ConfigStore persists settings under dot-notation keys such as
// "retrieval.top_k". Set writes through to storage before returning.
type ConfigStore interface {
	// Get returns the stored value for key and whether it was present.
	Get(key string) (any, bool)

	Set(key string, value any) error

	// Path names the backing file, or ":memory:".
	Path() string
}
