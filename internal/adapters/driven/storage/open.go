// Package storage opens the chunk store and run history selected by settings.
package storage

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Stores is an opened chunk store with its run history.
type Stores struct {
	Chunks driven.ChunkStore

	// Runs is persistent for SQLite and process-local otherwise.
	Runs driven.RunStore
}

// Close closes the chunk store.
func (s *Stores) Close() error {
	if s.Chunks == nil {
		return nil
	}
	return s.Chunks.Close()
}

// Open creates the backend named by settings. dims sizes the PostgreSQL
// vector column and may be zero.
func Open(ctx context.Context, settings domain.StoreSettings, dims int) (*Stores, error) {
	logger.Debug("Opening %s chunk store", settings.Backend.Description())

	switch settings.Backend {
	case domain.StoreBackendSQLite, "":
		s, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, err
		}
		return &Stores{Chunks: s, Runs: s.RunStore()}, nil

	case domain.StoreBackendPostgres:
		s, err := postgres.NewStore(ctx, postgres.Config{
			DSN:        settings.DSN,
			Table:      settings.Table,
			Dimensions: dims,
		})
		if err != nil {
			return nil, err
		}
		return &Stores{Chunks: s, Runs: memory.NewRunStore()}, nil

	case domain.StoreBackendMemory:
		s, err := memory.NewChunkStore()
		if err != nil {
			return nil, err
		}
		return &Stores{Chunks: s, Runs: memory.NewRunStore()}, nil

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}
