// Package tui is docrag's bubbletea front end: a menu leading to the ask
// view, the page browser, settings and help.
package tui

import (
	"errors"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var (
	ErrInvalidPorts         = errors.New("tui: no services provided")
	ErrMissingAnswerService = errors.New("tui: answer service is required")
	ErrMissingPageService   = errors.New("tui: page service is required")
)

// Ports are the services behind the views. Settings may be nil, which
// leaves the settings view read-only with an explanatory message.
type Ports struct {
	Answer   driving.AnswerService
	Pages    driving.PageService
	Settings driving.SettingsService
}

// Validate reports the first missing required service.
func (p *Ports) Validate() error {
	switch {
	case p == nil:
		return ErrInvalidPorts
	case p.Answer == nil:
		return ErrMissingAnswerService
	case p.Pages == nil:
		return ErrMissingPageService
	}
	return nil
}
