package services

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize         = "chunking.size"
	keyTopK              = "retrieval.top_k"
	keyBudget            = "retrieval.budget"
	keyConcurrency       = "ingest.concurrency"
	keySource            = "ingest.source"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDims         = "embedding.dimensions"
	keyEmbedRetries      = "embedding.max_retries"
	keyEmbedRate         = "embedding.requests_per_second"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyStoreBackend      = "store.backend"
	keyStoreDSN          = "store.dsn"
	keyStorePath         = "store.path"
	keyStoreTable        = "store.table"
	defaultOllamaBaseURL = "http://localhost:11434"
)

// setting binds a config key to a field of domain.AppSettings.
type setting struct {
	key    string
	secret bool
	get    func(*domain.AppSettings) any
	set    func(*domain.AppSettings, string) error
}

var settingsTable = []setting{
	intSetting(keyChunkSize, func(s *domain.AppSettings) *int { return &s.Chunking.Size }),
	intSetting(keyTopK, func(s *domain.AppSettings) *int { return &s.Retrieval.TopK }),
	intSetting(keyBudget, func(s *domain.AppSettings) *int { return &s.Retrieval.Budget }),
	intSetting(keyConcurrency, func(s *domain.AppSettings) *int { return &s.Ingest.Concurrency }),
	stringSetting(keySource, func(s *domain.AppSettings) *string { return &s.Ingest.Source }),
	{
		key: keyEmbedProvider,
		get: func(s *domain.AppSettings) any { return s.Embedding.Provider.String() },
		set: func(s *domain.AppSettings, v string) error {
			p := domain.AIProvider(v)
			if v != "" && !slices.Contains(domain.AllEmbeddingProviders(), p) {
				return fmt.Errorf("provider %s does not support embeddings", v)
			}
			s.Embedding.Provider = p
			return nil
		},
	},
	stringSetting(keyEmbedModel, func(s *domain.AppSettings) *string { return &s.Embedding.Model }),
	stringSetting(keyEmbedBaseURL, func(s *domain.AppSettings) *string { return &s.Embedding.BaseURL }),
	secretSetting(keyEmbedAPIKey, func(s *domain.AppSettings) *string { return &s.Embedding.APIKey }),
	intSetting(keyEmbedDims, func(s *domain.AppSettings) *int { return &s.Embedding.Dimensions }),
	intSetting(keyEmbedRetries, func(s *domain.AppSettings) *int { return &s.Embedding.MaxRetries }),
	{
		key: keyEmbedRate,
		get: func(s *domain.AppSettings) any { return s.Embedding.RequestsPerSecond },
		set: func(s *domain.AppSettings, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, keyEmbedRate)
			}
			s.Embedding.RequestsPerSecond = f
			return nil
		},
	},
	{
		key: keyLLMProvider,
		get: func(s *domain.AppSettings) any { return s.LLM.Provider.String() },
		set: func(s *domain.AppSettings, v string) error {
			p := domain.AIProvider(v)
			if v != "" && !p.IsValid() {
				return fmt.Errorf("invalid LLM provider: %s", v)
			}
			s.LLM.Provider = p
			return nil
		},
	},
	stringSetting(keyLLMModel, func(s *domain.AppSettings) *string { return &s.LLM.Model }),
	stringSetting(keyLLMBaseURL, func(s *domain.AppSettings) *string { return &s.LLM.BaseURL }),
	secretSetting(keyLLMAPIKey, func(s *domain.AppSettings) *string { return &s.LLM.APIKey }),
	{
		key: keyStoreBackend,
		get: func(s *domain.AppSettings) any { return s.Store.Backend.String() },
		set: func(s *domain.AppSettings, v string) error {
			b := domain.StoreBackend(v)
			if !b.IsValid() {
				return fmt.Errorf("invalid store backend: %s", v)
			}
			s.Store.Backend = b
			return nil
		},
	},
	secretSetting(keyStoreDSN, func(s *domain.AppSettings) *string { return &s.Store.DSN }),
	stringSetting(keyStorePath, func(s *domain.AppSettings) *string { return &s.Store.Path }),
	stringSetting(keyStoreTable, func(s *domain.AppSettings) *string { return &s.Store.Table }),
}

func intSetting(key string, field func(*domain.AppSettings) *int) setting {
	return setting{
		key: key,
		get: func(s *domain.AppSettings) any { return *field(s) },
		set: func(s *domain.AppSettings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
			}
			*field(s) = n
			return nil
		},
	}
}

func stringSetting(key string, field func(*domain.AppSettings) *string) setting {
	return setting{
		key: key,
		get: func(s *domain.AppSettings) any { return *field(s) },
		set: func(s *domain.AppSettings, v string) error {
			*field(s) = v
			return nil
		},
	}
}

func secretSetting(key string, field func(*domain.AppSettings) *string) setting {
	st := stringSetting(key, field)
	st.secret = true
	return st
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Get retrieves current application settings.
// Missing or unparsable values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	for _, st := range settingsTable {
		raw, ok := s.configStore.Get(st.key)
		if !ok {
			continue
		}
		value := strings.TrimSpace(fmt.Sprint(raw))
		if value == "" {
			continue
		}
		if err := st.set(&settings, value); err != nil {
			logger.Warn("Ignoring setting %s: %v", st.key, err)
		}
	}

	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	return &settings, nil
}

// Save persists application settings. Empty secrets are not written so a key
// supplied through the environment never lands in the config file by accident.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, st := range settingsTable {
		value := st.get(settings)
		if st.secret && value == "" {
			continue
		}
		if err := s.configStore.Set(st.key, value); err != nil {
			return fmt.Errorf("save %s: %w", st.key, err)
		}
	}
	return nil
}

// Set updates a single setting by key after validating the resulting settings.
func (s *SettingsService) Set(key, value string) error {
	idx := slices.IndexFunc(settingsTable, func(st setting) bool { return st.key == key })
	if idx < 0 {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	st := settingsTable[idx]

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := st.set(settings, strings.TrimSpace(value)); err != nil {
		return err
	}
	if err := s.check(settings); err != nil {
		return err
	}
	if err := s.configStore.Set(st.key, st.get(settings)); err != nil {
		return fmt.Errorf("save %s: %w", st.key, err)
	}
	return nil
}

// Keys returns every key accepted by Set.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i, st := range settingsTable {
		keys[i] = st.key
	}
	return keys
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaBaseURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	// The store is created with the model's dimension.
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaBaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks settings ranges and the store backend configuration.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.check(settings)
}

func (s *SettingsService) check(settings *domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: invalid store backend %q", domain.ErrInvalidInput, settings.Store.Backend)
	}
	return nil
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}
