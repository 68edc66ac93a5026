package tiktoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter_Count(t *testing.T) {
	c := New("")

	assert.Zero(t, c.Count(""))
	n := c.Count("The quick brown fox jumps over the lazy dog.")
	assert.Positive(t, n)
	assert.LessOrEqual(t, n, 12)
	assert.NotEmpty(t, c.Encoding())
}

func TestCounter_UnknownModelFallsBack(t *testing.T) {
	c := New("not-a-model")
	assert.Positive(t, c.Count("hello"))
	assert.Contains(t, []string{DefaultEncoding, "estimate"}, c.Encoding())
}
