package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaults embed.FS

// promptNames are the templates installed into the prompt directory.
var promptNames = []string{driven.PromptChunkMetadata, driven.PromptAnswerSystem}

type cachedPrompt struct {
	text    string
	modTime time.Time
}

// PromptStore serves prompt templates from <dir>/<name>.txt, falling back
// to the built-in text when a file is missing, empty or unreadable. A file
// is re-read when its modification time changes.
type PromptStore struct {
	dir     string
	install func() error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

// NewPromptStore creates a store over dir, or ~/.docrag/prompts when dir is
// empty. Nothing touches the disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".docrag", "prompts")
	}

	s := &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}
	s.install = sync.OnceValue(s.writeDefaults)
	return s, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template called name.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, err := builtin(name)
	if err != nil {
		return "", err
	}
	if err := s.install(); err != nil {
		return fallback, nil
	}

	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if err != nil {
		return fallback, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) {
		return c.text, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("prompt %s: %v", path, err)
		return fallback, nil
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		text = fallback
	}
	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime()}
	return text, nil
}

// writeDefaults creates the directory and any missing template files. User
// edits are never overwritten.
func (s *PromptStore) writeDefaults() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		logger.Warn("prompt directory %s: %v", s.dir, err)
		return err
	}

	files := lo.Map(promptNames, func(n string, _ int) string { return n + ".txt" })
	files = append(files, "README.md")
	for _, file := range files {
		path := filepath.Join(s.dir, file)
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		content, err := defaults.ReadFile("defaults/" + file)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, content, 0o600); err != nil {
			logger.Warn("write default prompt %s: %v", path, err)
			return err
		}
	}
	return nil
}

func builtin(name string) (string, error) {
	raw, err := defaults.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	return strings.TrimSpace(string(raw)), nil
}
