package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.True(t, AIProviderAnthropic.IsValid())
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.IsConfigured())
		})
	}
}

func TestEmbeddingSettings_ResolvedDimensions(t *testing.T) {
	assert.Equal(t, 1536, EmbeddingSettings{Model: "text-embedding-3-small"}.ResolvedDimensions())
	assert.Equal(t, 64, EmbeddingSettings{Model: "text-embedding-3-small", Dimensions: 64}.ResolvedDimensions())
	assert.Zero(t, EmbeddingSettings{Model: "custom"}.ResolvedDimensions())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
}

func TestStoreBackend(t *testing.T) {
	for _, b := range AllStoreBackends() {
		assert.True(t, b.IsValid(), b)
		assert.NotEqual(t, unknownDescription, b.Description())
	}
	assert.False(t, StoreBackend("mysql").IsValid())
	assert.Equal(t, unknownDescription, StoreBackend("mysql").Description())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 5000, s.Chunking.Size)
	assert.Equal(t, 5, s.Retrieval.TopK)
	assert.Equal(t, 8000, s.Retrieval.Budget)
	assert.Equal(t, 5, s.Ingest.Concurrency)
	assert.Equal(t, "docs", s.Ingest.Source)
	assert.Equal(t, 3, s.Embedding.MaxRetries)
	assert.Equal(t, StoreBackendSQLite, s.Store.Backend)
	assert.False(t, s.Embedding.IsConfigured())
	assert.False(t, s.LLM.IsConfigured())
}

func TestAppSettings_SourceFilter(t *testing.T) {
	s := DefaultAppSettings()
	assert.Equal(t, Filter{"source": "docs"}, s.SourceFilter())

	s.Ingest.Source = ""
	assert.Nil(t, s.SourceFilter())
}

func TestDefaultModels(t *testing.T) {
	assert.Equal(t, "text-embedding-3-small", DefaultEmbeddingModels()[AIProviderOpenAI])
	assert.Equal(t, "gpt-4o-mini", DefaultLLMModels()[AIProviderOpenAI])
	assert.Len(t, AllEmbeddingProviders(), 2)
	assert.Len(t, AllLLMProviders(), 3)
}

func TestProviderCatalog(t *testing.T) {
	llm := DefaultLLMModels()
	for _, p := range AllLLMProviders() {
		assert.True(t, p.IsValid(), p)
		assert.NotEmpty(t, llm[p], "chat model for %s", p)
		assert.NotEqual(t, unknownDescription, p.Description())
		assert.NotEqual(t, p.IsLocal(), p.RequiresAPIKey(), p)
	}

	embed := DefaultEmbeddingModels()
	assert.Len(t, embed, len(AllEmbeddingProviders()))
	for p, model := range embed {
		assert.Positive(t, EmbeddingSettings{Provider: p, Model: model}.ResolvedDimensions(), model)
	}
	assert.NotContains(t, embed, AIProviderAnthropic)

	assert.False(t, AIProvider("").IsLocal())
	assert.False(t, AIProvider("").RequiresAPIKey())
	assert.Equal(t, unknownDescription, AIProvider("cohere").Description())
}

func TestEmbeddingDimensions_ReturnsCopy(t *testing.T) {
	dims := EmbeddingDimensions()
	dims["nomic-embed-text"] = 1

	assert.Equal(t, 768, EmbeddingSettings{Model: "nomic-embed-text"}.ResolvedDimensions())
}
