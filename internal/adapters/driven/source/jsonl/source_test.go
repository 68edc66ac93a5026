package jsonl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

const sample = `{"url":"https://ai.pydantic.dev/","markdown":"# Intro\n\nhello","fetched_at":"2026-01-02T03:04:05Z"}

not json
{"markdown":"no url"}
{"url":"https://ai.pydantic.dev/agents/","content":"# Agents","source":"pydantic"}
`

func drain(docs <-chan domain.Document, errs <-chan error) ([]domain.Document, error) {
	var out []domain.Document
	for d := range docs {
		out = append(out, d)
	}
	return out, <-errs
}

func TestDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	s := New(path)
	docs, err := drain(s.Documents(context.Background()))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "https://ai.pydantic.dev/", docs[0].URL)
	assert.Equal(t, "# Intro\n\nhello", docs[0].Content)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), docs[0].FetchedAt)

	assert.Equal(t, "# Agents", docs[1].Content)
	assert.Equal(t, "pydantic", docs[1].Source)
	assert.Equal(t, "jsonl:"+path, s.Name())
}

func TestDocuments_Reader(t *testing.T) {
	docs, err := drain(NewReader(strings.NewReader(sample)).Documents(context.Background()))
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDocuments_MissingFile(t *testing.T) {
	_, err := drain(New(filepath.Join(t.TempDir(), "none.jsonl")).Documents(context.Background()))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocuments_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs, errs := NewReader(strings.NewReader(sample)).Documents(ctx)
	_, err := drain(docs, errs)
	assert.ErrorIs(t, err, context.Canceled)
}
