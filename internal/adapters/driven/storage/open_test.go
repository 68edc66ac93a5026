package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, domain.StoreSettings{Backend: domain.StoreBackendSQLite, Path: filepath.Join(t.TempDir(), "d.db")}, 0)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, s.Chunks)
	assert.NotNil(t, s.Runs)
	require.NoError(t, s.Close())

	s, err = Open(ctx, domain.StoreSettings{Backend: domain.StoreBackendMemory}, 3)
	require.NoError(t, err)
	assert.IsType(t, &memory.ChunkStore{}, s.Chunks)
	assert.IsType(t, &memory.RunStore{}, s.Runs)
	require.NoError(t, s.Close())

	_, err = Open(ctx, domain.StoreSettings{Backend: "mongo"}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Open(ctx, domain.StoreSettings{Backend: domain.StoreBackendPostgres, Table: "site_pages"}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
