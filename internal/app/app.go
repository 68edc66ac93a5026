// Package app wires settings into the adapters and core services.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/adapters/driven/source/jsonl"
	"github.com/custodia-labs/docrag/internal/adapters/driven/source/markdown"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage"
	memstore "github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/logger"
	"github.com/custodia-labs/docrag/internal/postprocessors"
)

// Environment variables read at startup.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvPostgresDSN  = "DOCRAG_POSTGRES_DSN"
	EnvStoreBackend = "DOCRAG_STORE"
	EnvSource       = "DOCRAG_SOURCE"

	// EnvHome overrides ~/.docrag, which holds config.toml and prompts/.
	EnvHome = "DOCRAG_HOME"
)

// LoadEnv reads .env files into the process environment. Missing files are
// ignored; variables already set win.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("loading %s: %v", f, err)
		}
	}
}

// ApplyEnv overrides settings from the environment. getenv is usually os.Getenv.
func ApplyEnv(settings *domain.AppSettings, getenv func(string) string) {
	if key := getenv(EnvOpenAIKey); key != "" {
		if settings.Embedding.Provider == domain.AIProviderOpenAI && settings.Embedding.APIKey == "" {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.Provider == domain.AIProviderOpenAI && settings.LLM.APIKey == "" {
			settings.LLM.APIKey = key
		}
	}
	if key := getenv(EnvAnthropicKey); key != "" &&
		settings.LLM.Provider == domain.AIProviderAnthropic && settings.LLM.APIKey == "" {
		settings.LLM.APIKey = key
	}
	if dsn := getenv(EnvPostgresDSN); dsn != "" {
		settings.Store.DSN = dsn
	}
	if backend := domain.StoreBackend(getenv(EnvStoreBackend)); backend.IsValid() {
		settings.Store.Backend = backend
	}
	if source := getenv(EnvSource); source != "" {
		settings.Ingest.Source = source
	}
}

// NewSettingsService opens the TOML config in configDir (default ~/.docrag).
// ephemeral keeps settings in memory only.
func NewSettingsService(configDir string, ephemeral bool) (*services.SettingsService, error) {
	var store driven.ConfigStore
	if ephemeral {
		store = memstore.NewConfigStore()
	} else {
		fs, err := file.NewConfigStore(configDir)
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		store = fs
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// App holds the services built from one set of settings.
type App struct {
	Settings domain.AppSettings

	Ingest  *services.IngestService
	Answer  *services.AnswerService
	Pages   *services.PageService
	History *services.RunHistoryService
	Runs    driven.RunStore
	Counter driven.TokenCounter

	stores *storage.Stores
	ai     *ai.Services
}

// New opens the store and AI providers and builds the services.
// promptDir is where prompt templates live; empty selects ~/.docrag/prompts.
func New(ctx context.Context, settings domain.AppSettings, promptDir string) (*App, error) {
	aiServices, err := ai.Init(ctx, settings)
	if err != nil {
		return nil, err
	}

	dims := settings.Embedding.ResolvedDimensions()
	if aiServices.Embedding != nil {
		dims = aiServices.Embedding.Dimensions()
	}
	stores, err := storage.Open(ctx, settings.Store, dims)
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	counter := tiktoken.New(settings.LLM.Model)
	pipeline := postprocessors.NewDefaultPipeline(settings, counter)
	logger.Debug("Ingest pipeline: %s", strings.Join(pipeline.Names(), " -> "))

	metadata := services.NewMetadataExtractor(aiServices.LLM)
	composer := services.NewAnswerComposer(aiServices.LLM, counter)
	if prompts, err := file.NewPromptStore(promptDir); err == nil {
		metadata.SetPromptStore(prompts)
		composer.SetPromptStore(prompts)
	} else {
		logger.Warn("prompt templates unavailable, using defaults: %v", err)
	}

	filter := settings.SourceFilter()
	retriever := services.NewRetrievalService(aiServices.Embedding, stores.Chunks, settings.Retrieval, filter)

	return &App{
		Settings: settings,
		Ingest:   services.NewIngestService(pipeline, metadata, aiServices.Embedding, stores.Chunks, settings.Ingest),
		Answer:   services.NewAnswerService(retriever, composer),
		Pages:    services.NewPageService(stores.Chunks, filter),
		History:  services.NewRunHistoryService(stores.Runs),
		Runs:     stores.Runs,
		Counter:  counter,
		stores:   stores,
		ai:       aiServices,
	}, nil
}

// Scheduler builds a scheduler that re-ingests source.
func (a *App) Scheduler(source driven.DocumentSource, settings domain.ScheduleSettings) driving.Scheduler {
	return services.NewScheduler(a.Ingest, source, a.Runs, settings)
}

// Close releases the store and AI providers.
func (a *App) Close() error {
	a.ai.Close()
	return a.stores.Close()
}

// OpenSource returns the crawler output reader for path: a JSONL file, "-"
// for JSONL on stdin, or a directory of Markdown files.
func OpenSource(path, baseURL string) (driven.DocumentSource, error) {
	if path == "-" {
		return jsonl.New(path), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return markdown.New(path, baseURL), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return jsonl.New(path), nil
	}
	return nil, fmt.Errorf("%w: %s is neither a directory nor a .jsonl file", domain.ErrInvalidInput, path)
}
