package driven

import "github.com/custodia-labs/docrag/internal/core/domain"

// AIConfigValidator checks provider settings by building a client and
// pinging it. An unconfigured provider is valid.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
