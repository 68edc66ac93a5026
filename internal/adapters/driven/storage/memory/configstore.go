package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds settings for the --ephemeral mode and for tests. Keys
// follow the same dotted layout as config.toml: once "llm.model" is set,
// "llm" is a table and cannot hold a value, and the reverse.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	return v, ok
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for parent := key; ; {
		i := strings.LastIndexByte(parent, '.')
		if i < 0 {
			break
		}
		parent = parent[:i]
		if _, taken := s.values[parent]; taken {
			return fmt.Errorf("config key %q collides with an existing value", key)
		}
	}
	for existing := range s.values {
		if strings.HasPrefix(existing, key+".") {
			return fmt.Errorf("config key %q names a table", key)
		}
	}

	s.values[key] = value
	return nil
}

// Path is ":memory:" since nothing is written.
func (s *ConfigStore) Path() string { return ":memory:" }
