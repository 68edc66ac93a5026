package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/views/page"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/views/pages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/views/settings"
)

var _ tea.Model = (*App)(nil)

// screen is what every view offers the app besides Update, whose result
// type differs per view.
type screen interface {
	View() string
	SetDimensions(width, height int)
}

// App is the root tea.Model. It owns one instance of each view, routes
// messages to the visible one, and lets answers and page loads finish in
// the background when the user navigates away.
type App struct {
	keys *keymap.KeyMap

	menu     *menu.View
	ask      *ask.View
	pages    *pages.View
	page     *page.View
	settings *settings.View
	help     string

	screens map[messages.ViewType]screen
	current messages.ViewType
	err     error
	ready   bool
}

// NewApp builds the views over ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		keys:     km,
		menu:     menu.NewView(s),
		ask:      ask.NewView(s, km, ports.Answer),
		pages:    pages.NewView(s, ports.Pages),
		page:     page.NewView(s, ports.Pages),
		settings: settings.NewView(s, ports.Settings),
		help:     s.Normal.Render(helpText(km)),
		current:  messages.ViewMenu,
	}
	a.screens = map[messages.ViewType]screen{
		messages.ViewMenu:        a.menu,
		messages.ViewAsk:         a.ask,
		messages.ViewPages:       a.pages,
		messages.ViewPageContent: a.page,
		messages.ViewSettings:    a.settings,
	}
	return a, nil
}

// WithContext sets the context every service call runs under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ask.WithContext(ctx)
	a.pages.WithContext(ctx)
	a.page.WithContext(ctx)
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tea.SetWindowTitle("docrag"))
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}
		if a.current == messages.ViewHelp {
			if key.Matches(msg, a.keys.Back) {
				a.current = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case spinner.TickMsg:
		a.ask, cmd = a.ask.Update(msg)
		return a, cmd

	case messages.AnswerCompleted:
		a.ask, cmd = a.ask.Update(msg)
		a.err = a.ask.Err()
		return a, cmd

	case messages.PagesLoaded:
		a.pages, cmd = a.pages.Update(msg)
		return a, cmd

	case messages.PageSelected:
		// The reader returns to the answer when opened from its context
		// list, and to the page list otherwise.
		back := messages.ViewPages
		if a.current == messages.ViewAsk {
			back = messages.ViewAsk
		}
		a.current = messages.ViewPageContent
		return a, a.page.SetURL(msg.URL, back)

	case messages.PageContentLoaded:
		a.page, cmd = a.page.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settings, cmd = a.settings.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// switchTo shows view. Leaving the page reader restores the previous view
// as it was; entering a view from elsewhere starts it fresh.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	from := a.current
	a.current = view
	if from == messages.ViewPageContent {
		return nil
	}
	switch view {
	case messages.ViewAsk:
		a.ask.Reset()
		return a.ask.Init()
	case messages.ViewPages:
		return a.pages.Init()
	case messages.ViewSettings:
		a.settings.Reset()
		return a.settings.Init()
	}
	return nil
}

func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.current {
	case messages.ViewMenu:
		a.menu, cmd = a.menu.Update(msg)
	case messages.ViewAsk:
		a.ask, cmd = a.ask.Update(msg)
	case messages.ViewPages:
		a.pages, cmd = a.pages.Update(msg)
	case messages.ViewPageContent:
		a.page, cmd = a.page.Update(msg)
	case messages.ViewSettings:
		a.settings, cmd = a.settings.Update(msg)
	}
	return cmd
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.current == messages.ViewHelp {
		return a.help
	}
	if s, ok := a.screens[a.current]; ok {
		return s.View()
	}
	return a.menu.View()
}

// Run blocks until the user quits.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen()).Run()
	return err
}

func (a *App) CurrentView() messages.ViewType {
	return a.current
}

// Err is the last error reported by a view.
func (a *App) Err() error {
	return a.err
}

func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions resizes every view, visible or not.
func (a *App) SetDimensions(width, height int) {
	a.ready = true
	for _, s := range a.screens {
		s.SetDimensions(width, height)
	}
}
