package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestVerboseOutput(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("%d chunks", 3) }, "[DEBUG] 3 chunks\n"},
		{"info", func() { Info("stored %s", "a#0") }, "[INFO] stored a#0\n"},
		{"warn", func() { Warn("embed failed: %v", "timeout") }, "[WARN] embed failed: timeout\n"},
		{"section", func() { Section("Retrieval") }, "\n=== Retrieval ===\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestQuietOutput(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Section("hidden")
	assert.Empty(t, buf.String())

	Warn("page %s skipped", "https://docs.example.com/a")
	assert.Equal(t, "[WARN] page https://docs.example.com/a skipped\n", buf.String())
}

func TestConcurrentLogging(t *testing.T) {
	capture(t, true)
	var buf safeBuffer
	SetOutput(&buf)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Debug("worker %d", i)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, bytes.Count(buf.Bytes(), []byte("[DEBUG]")))
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}
