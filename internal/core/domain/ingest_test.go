package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIngestReport_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	r := IngestReport{StartedAt: start}
	assert.Zero(t, r.Duration())

	r.FinishedAt = start.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, r.Duration())
}

func TestIngestReport_OK(t *testing.T) {
	r := IngestReport{}
	assert.True(t, r.OK())

	r.Failures = append(r.Failures, ChunkFailure{Key: ChunkKey{URL: "u"}, Err: errors.New("boom")})
	assert.False(t, r.OK())

	r = IngestReport{DocumentFailures: []DocumentFailure{{URL: "u", Err: ErrChunking}}}
	assert.False(t, r.OK())
}
