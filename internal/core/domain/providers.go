package domain

import (
	"maps"

	"github.com/samber/lo"
)

const unknownDescription = "Unknown"

// AIProvider names a model provider. The empty provider means none is
// configured.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

type providerInfo struct {
	description string
	local       bool
	// embedModel is empty for providers without an embeddings API.
	embedModel string
	chatModel  string
}

var providerCatalog = map[AIProvider]providerInfo{
	AIProviderOllama: {
		description: "Ollama (local)",
		local:       true,
		embedModel:  "nomic-embed-text",
		chatModel:   "llama3.2",
	},
	AIProviderOpenAI: {
		description: "OpenAI (cloud)",
		embedModel:  "text-embedding-3-small",
		chatModel:   "gpt-4o-mini",
	},
	AIProviderAnthropic: {
		description: "Anthropic (cloud)",
		chatModel:   "claude-3-5-sonnet-latest",
	},
}

// providerOrder is the order providers are offered in.
var providerOrder = []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}

func (p AIProvider) IsValid() bool {
	_, ok := providerCatalog[p]
	return ok
}

// RequiresAPIKey reports whether p is a hosted provider.
func (p AIProvider) RequiresAPIKey() bool {
	info, ok := providerCatalog[p]
	return ok && !info.local
}

// IsLocal reports whether p runs on this machine and takes a base URL.
func (p AIProvider) IsLocal() bool {
	return providerCatalog[p].local
}

func (p AIProvider) String() string {
	return string(p)
}

func (p AIProvider) Description() string {
	if info, ok := providerCatalog[p]; ok {
		return info.description
	}
	return unknownDescription
}

// AllEmbeddingProviders lists the providers with an embeddings API.
func AllEmbeddingProviders() []AIProvider {
	return lo.Filter(providerOrder, func(p AIProvider, _ int) bool {
		return providerCatalog[p].embedModel != ""
	})
}

// AllLLMProviders lists every provider; all of them offer chat.
func AllLLMProviders() []AIProvider {
	return append([]AIProvider(nil), providerOrder...)
}

// DefaultEmbeddingModels maps each embedding provider to the model used when
// none is given.
func DefaultEmbeddingModels() map[AIProvider]string {
	return lo.Associate(AllEmbeddingProviders(), func(p AIProvider) (AIProvider, string) {
		return p, providerCatalog[p].embedModel
	})
}

// DefaultLLMModels maps each provider to its default chat model.
func DefaultLLMModels() map[AIProvider]string {
	return lo.Associate(providerOrder, func(p AIProvider) (AIProvider, string) {
		return p, providerCatalog[p].chatModel
	})
}

// knownDimensions are the vector sizes of common embedding models.
var knownDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// EmbeddingDimensions returns a copy of the known model sizes.
func EmbeddingDimensions() map[string]int {
	return maps.Clone(knownDimensions)
}

// StoreBackend names a chunk store implementation.
type StoreBackend string

const (
	// StoreBackendPostgres is PostgreSQL with the pgvector extension.
	StoreBackendPostgres StoreBackend = "postgres"
	// StoreBackendSQLite is an embedded database file.
	StoreBackendSQLite StoreBackend = "sqlite"
	// StoreBackendMemory lives in process and is lost on exit.
	StoreBackendMemory StoreBackend = "memory"
)

var backendDescriptions = map[StoreBackend]string{
	StoreBackendPostgres: "PostgreSQL + pgvector",
	StoreBackendSQLite:   "SQLite (embedded)",
	StoreBackendMemory:   "In-memory (chromem)",
}

func (b StoreBackend) IsValid() bool {
	_, ok := backendDescriptions[b]
	return ok
}

func (b StoreBackend) String() string {
	return string(b)
}

func (b StoreBackend) Description() string {
	if d, ok := backendDescriptions[b]; ok {
		return d
	}
	return unknownDescription
}

// AllStoreBackends lists the backends in the order they are offered.
func AllStoreBackends() []StoreBackend {
	return []StoreBackend{StoreBackendPostgres, StoreBackendSQLite, StoreBackendMemory}
}
