package domain

// Defaults for a fresh install.
const (
	DefaultChunkSize         = 5000
	DefaultTopK              = 5
	DefaultContextBudget     = 8000
	DefaultIngestConcurrency = 5
	DefaultSource            = "docs"
	DefaultEmbeddingRetries  = 3
	DefaultPostgresTable     = "site_pages"
)

// AppSettings is everything persisted in config.toml. The validate tags are
// checked by the settings service before saving.
type AppSettings struct {
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Ingest    IngestSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Store     StoreSettings
}

type ChunkingSettings struct {
	// Size caps a chunk's length in bytes.
	Size int `validate:"gte=100"`
}

type RetrievalSettings struct {
	TopK int `validate:"gte=1,lte=100"`
	// Budget caps the summed content length of an assembled context.
	Budget int `validate:"gte=1"`
}

type IngestSettings struct {
	// Concurrency is how many documents are chunked and embedded at once.
	Concurrency int `validate:"gte=1,lte=64"`
	// Source tags every chunk written and scopes every read.
	Source string `validate:"required"`
}

// EmbeddingSettings pick the model that vectors chunks and queries.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	// BaseURL overrides the endpoint of a local provider.
	BaseURL string
	APIKey  string

	// Dimensions overrides the vector size; zero looks the model up.
	Dimensions int `validate:"gte=0"`

	MaxRetries int `validate:"gte=1,lte=10"`
	// RequestsPerSecond throttles calls to the provider. Zero is unthrottled.
	RequestsPerSecond float64 `validate:"gte=0"`
}

// IsConfigured reports whether a provider is chosen and has the key it needs.
func (e EmbeddingSettings) IsConfigured() bool {
	return providerReady(e.Provider, e.APIKey)
}

// ResolvedDimensions is Dimensions when set, else the known size of Model.
// Zero means unknown.
func (e EmbeddingSettings) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	return knownDimensions[e.Model]
}

// LLMSettings pick the chat model for chunk metadata and answers.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

func (l LLMSettings) IsConfigured() bool {
	return providerReady(l.Provider, l.APIKey)
}

func providerReady(p AIProvider, apiKey string) bool {
	return p.IsValid() && (apiKey != "" || !p.RequiresAPIKey())
}

type StoreSettings struct {
	Backend StoreBackend
	// DSN is the PostgreSQL connection string.
	DSN string
	// Path is the SQLite file; empty uses the data directory.
	Path string
	// Table is the PostgreSQL table holding chunks.
	Table string
}

// DefaultAppSettings leaves both providers unset. Keys usually arrive
// through the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking:  ChunkingSettings{Size: DefaultChunkSize},
		Retrieval: RetrievalSettings{TopK: DefaultTopK, Budget: DefaultContextBudget},
		Ingest:    IngestSettings{Concurrency: DefaultIngestConcurrency, Source: DefaultSource},
		Embedding: EmbeddingSettings{MaxRetries: DefaultEmbeddingRetries},
		Store:     StoreSettings{Backend: StoreBackendSQLite, Table: DefaultPostgresTable},
	}
}

// SourceFilter scopes retrieval to the configured source tag.
func (s AppSettings) SourceFilter() Filter {
	if s.Ingest.Source == "" {
		return nil
	}
	return Filter{MetadataSource: s.Ingest.Source}
}
