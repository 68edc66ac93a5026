package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collect(t *testing.T, docs <-chan domain.Document, errs <-chan error) map[string]domain.Document {
	t.Helper()
	out := make(map[string]domain.Document)
	for d := range docs {
		out[d.URL] = d
	}
	for err := range errs {
		require.NoError(t, err)
	}
	return out
}

func TestDocuments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "agents.md"), "---\nurl: https://ai.pydantic.dev/agents/\nfetched_at: 2026-01-02T03:04:05Z\nsource: pydantic\n---\n# Agents\n\nbody")
	writeFile(t, filepath.Join(root, "guide", "models.md"), "# Models\n\ntext")
	writeFile(t, filepath.Join(root, "guide", "index.md"), "---\ntitle: Guide\n---\nintro")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, ".cache", "hidden.md"), "ignored")

	docs, errs := New(root, "https://docs.example.com/").Documents(context.Background())
	got := collect(t, docs, errs)

	require.Len(t, got, 3)

	agents := got["https://ai.pydantic.dev/agents/"]
	assert.Equal(t, "# Agents\n\nbody", agents.Content)
	assert.Equal(t, "pydantic", agents.Source)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), agents.FetchedAt.UTC())

	models := got["https://docs.example.com/guide/models"]
	assert.Equal(t, "# Models\n\ntext", models.Content)
	assert.False(t, models.FetchedAt.IsZero())

	guide := got["https://docs.example.com/guide/"]
	assert.Equal(t, "# Guide\n\nintro", guide.Content)
}

func TestDocuments_FileURLWithoutBase(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "hello")

	docs, errs := New(root, "").Documents(context.Background())
	got := collect(t, docs, errs)

	require.Len(t, got, 1)
	for u := range got {
		assert.Contains(t, u, "file://")
		assert.Contains(t, u, "/a.md")
	}
}

func TestDocuments_MissingRoot(t *testing.T) {
	docs, errs := New(filepath.Join(t.TempDir(), "nope"), "").Documents(context.Background())
	for range docs {
	}
	err := <-errs
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSplitFrontMatter(t *testing.T) {
	fm, body, err := splitFrontMatter([]byte("---\nurl: u\n---\nbody\n"))
	require.NoError(t, err)
	assert.Equal(t, "u", fm.URL)
	assert.Equal(t, "body\n", body)

	fm, body, err = splitFrontMatter([]byte("----\nnot front matter"))
	require.NoError(t, err)
	assert.Empty(t, fm.URL)
	assert.Equal(t, "----\nnot front matter", body)

	_, body, err = splitFrontMatter([]byte("---\nunterminated"))
	require.NoError(t, err)
	assert.Equal(t, "---\nunterminated", body)

	_, _, err = splitFrontMatter([]byte("---\nurl: [\n---\n"))
	assert.Error(t, err)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, isHidden(".git"))
	assert.False(t, isHidden("."))
	assert.False(t, isHidden(".."))
	assert.False(t, isHidden("file.md"))
}

func TestWatch(t *testing.T) {
	root := t.TempDir()
	s := New(root, "https://docs.example.com")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, _ := s.Watch(ctx)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(root, "new.md"), []byte("# New\n\ncontent"), 0o644)
	}()

	select {
	case doc := <-docs:
		assert.Equal(t, "https://docs.example.com/new", doc.URL)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watched document")
	}

	cancel()
	for range docs {
	}
}

func TestWatch_Closed(t *testing.T) {
	s := New(t.TempDir(), "")
	require.NoError(t, s.Close())

	docs, errs := s.Watch(context.Background())
	_, ok := <-docs
	assert.False(t, ok)
	assert.ErrorIs(t, <-errs, ErrClosed)
}
