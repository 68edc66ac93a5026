// Package messages holds the tea.Msg values the TUI views exchange.
package messages

import "github.com/custodia-labs/docrag/internal/core/domain"

// ViewType names a screen of the TUI.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewAsk
	ViewPages
	ViewPageContent
	ViewSettings
	ViewHelp
)

var viewNames = [...]string{
	ViewMenu:        "menu",
	ViewAsk:         "ask",
	ViewPages:       "pages",
	ViewPageContent: "page_content",
	ViewSettings:    "settings",
	ViewHelp:        "help",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged asks the app to switch screens.
type ViewChanged struct {
	View ViewType
}

// Quit stops the program.
type Quit struct{}

// ErrorOccurred reports a failure that has no more specific message.
type ErrorOccurred struct {
	Err error
}

// AnswerCompleted carries a composed answer and the chunks behind it.
type AnswerCompleted struct {
	Query   string
	Answer  string
	Context domain.RetrievalResult
	Err     error
}

// PagesLoaded carries the sorted page URLs of the configured source.
type PagesLoaded struct {
	URLs []string
	Err  error
}

type PageSelected struct {
	URL string
}

// PageContentLoaded answers a page request. URL is the requested one, so a
// view can drop results it no longer waits for.
type PageContentLoaded struct {
	URL  string
	Page *domain.Page
	Err  error
}

type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

type SettingsSaved struct {
	Err error
}
