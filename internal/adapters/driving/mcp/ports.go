// Package mcp serves docrag's retrieval and page browsing as Model Context
// Protocol tools and resources, over stdio or streamable HTTP.
package mcp

import (
	"errors"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// ErrMissingAnswerService is returned by NewServer without an answer service.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")

// Ports are the services the tools call. Pages may be nil, in which case
// the page tools report an empty index.
type Ports struct {
	Answer driving.AnswerService
	Pages  driving.PageService
}

// Validate reports a missing required service.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
