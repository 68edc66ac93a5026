package driving

import "github.com/custodia-labs/docrag/internal/core/domain"

// SettingsService reads and edits the persisted settings. Keys use dot
// notation matching the config file tables, e.g. "retrieval.top_k".
type SettingsService interface {
	// Get returns the stored settings layered over the defaults.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error

	// Set parses value for key and stores it. Unknown keys and values out
	// of range fail with ErrInvalidInput.
	Set(key, value string) error
	Keys() []string

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks ranges and provider requirements without network calls.
	Validate() error

	// ValidateEmbeddingConfig and ValidateLLMConfig ping the configured
	// providers. An unconfigured provider passes.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
