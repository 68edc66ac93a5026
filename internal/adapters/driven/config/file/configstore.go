package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in config.toml under the docrag home. A key
// such as "retrieval.top_k" is the top_k entry of the [retrieval] table.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	doc  map[string]any
}

// NewConfigStore opens dir/config.toml, creating dir when needed. An empty
// dir means ~/.docrag. A missing file is an empty config.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".docrag")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		path: filepath.Join(dir, "config.toml"),
		doc:  make(map[string]any),
	}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, err
	}
	if err := toml.Unmarshal(raw, &s.doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if s.doc == nil {
		s.doc = make(map[string]any)
	}
	return s, nil
}

// Get returns the value at key. TOML integers come back as int64 and
// tables are not values, so "retrieval" alone is not found.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, leaf := walk(s.doc, key, false)
	if table == nil {
		return nil, false
	}
	v, ok := table[leaf]
	if _, isTable := v.(map[string]any); isTable {
		return nil, false
	}
	return v, ok
}

// Set stores value at key and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, leaf := walk(s.doc, key, true)
	if table == nil {
		return fmt.Errorf("config key %q collides with an existing value", key)
	}
	prev, had := table[leaf]
	if _, isTable := prev.(map[string]any); isTable {
		return fmt.Errorf("config key %q names a table", key)
	}
	table[leaf] = value

	if err := s.write(); err != nil {
		if had {
			table[leaf] = prev
		} else {
			delete(table, leaf)
		}
		return err
	}
	return nil
}

// Path returns the config file location.
func (s *ConfigStore) Path() string {
	return s.path
}

// write replaces the file through a temp file in the same directory so a
// crash never leaves a half-written config.
func (s *ConfigStore) write() error {
	out, err := toml.Marshal(s.doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// walk returns the table holding the last segment of key and that segment.
// With create set, missing tables along the way are added. It returns a nil
// table when a segment is missing or is not a table.
func walk(doc map[string]any, key string, create bool) (map[string]any, string) {
	parts := strings.Split(key, ".")
	table := doc
	for _, part := range parts[:len(parts)-1] {
		next, exists := table[part]
		if !exists {
			if !create {
				return nil, ""
			}
			child := make(map[string]any)
			table[part] = child
			table = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, ""
		}
		table = child
	}
	return table, parts[len(parts)-1]
}
