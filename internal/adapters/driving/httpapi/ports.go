package httpapi

import (
	"errors"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("httpapi: answer service is required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Answer serves /answer and /retrieve. Required.
	Answer driving.AnswerService

	// Pages serves /pages. Optional.
	Pages driving.PageService

	// Ingest serves /ingest. Optional.
	Ingest driving.IngestService

	// History serves /runs. Optional.
	History driving.RunHistory
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
