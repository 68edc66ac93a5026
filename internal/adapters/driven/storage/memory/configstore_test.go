package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Overwrite(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("retrieval.top_k", 5))
	require.NoError(t, store.Set("retrieval.top_k", 8))

	val, ok := store.Get("retrieval.top_k")
	assert.True(t, ok)
	assert.Equal(t, 8, val)
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_TablesAreNotValues(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("llm.model", "llama3"))

	_, ok := store.Get("llm")
	assert.False(t, ok)
	assert.ErrorContains(t, store.Set("llm", "x"), "names a table")
	assert.ErrorContains(t, store.Set("llm.model.size", 3), "collides")

	require.NoError(t, store.Set("llmx", "sibling"), "prefix without a dot is a different key")
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("k.%d", i), i)
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Get(fmt.Sprintf("k.%d", i))
		}()
	}
	wg.Wait()

	val, _ := store.Get("k.49")
	assert.Equal(t, 49, val)
}
