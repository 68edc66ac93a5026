// Package page shows one indexed page, reassembled from its chunks, in a
// scrollable viewport.
package page

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// ErrNoPageService is reported when the view has no page service.
var ErrNoPageService = errors.New("page service not available")

// chrome is the number of lines around the viewport: title, URL, rule,
// blank, position, blank, help.
const chrome = 7

var (
	keyTop    = key.NewBinding(key.WithKeys("home", "g"))
	keyBottom = key.NewBinding(key.WithKeys("end", "G"))
	keyBack   = key.NewBinding(key.WithKeys("esc"))
)

type state int

const (
	stateIdle state = iota
	stateLoading
	stateLoaded
	stateFailed
)

// View reads a page. It is opened with SetURL and returns to the view that
// opened it on esc.
type View struct {
	styles *styles.Styles
	pages  driving.PageService
	ctx    context.Context

	url   string
	back  messages.ViewType
	page  *domain.Page
	state state
	err   error

	port viewport.Model
}

func NewView(s *styles.Styles, pages driving.PageService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{
		styles: s,
		pages:  pages,
		ctx:    context.Background(),
		back:   messages.ViewPages,
		port:   viewport.New(0, 0),
	}
	v.SetDimensions(80, 24)
	return v
}

func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetURL starts loading url. Results for any earlier URL are ignored.
func (v *View) SetURL(url string, back messages.ViewType) tea.Cmd {
	v.url, v.back = url, back
	v.page, v.err = nil, nil
	v.state = stateLoading
	v.port.SetContent("")
	v.port.GotoTop()

	pages, ctx := v.pages, v.ctx
	return func() tea.Msg {
		if pages == nil {
			return messages.PageContentLoaded{URL: url, Err: ErrNoPageService}
		}
		p, err := pages.PageContent(ctx, url)
		return messages.PageContentLoaded{URL: url, Page: p, Err: err}
	}
}

func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.PageContentLoaded:
		if msg.URL != v.url {
			break
		}
		if msg.Err != nil {
			v.state, v.err = stateFailed, msg.Err
			break
		}
		v.state, v.page = stateLoaded, msg.Page
		v.fill()

	case messages.ErrorOccurred:
		v.state, v.err = stateFailed, msg.Err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyBack):
			back := v.back
			return v, func() tea.Msg { return messages.ViewChanged{View: back} }
		case key.Matches(msg, keyTop):
			v.port.GotoTop()
		case key.Matches(msg, keyBottom):
			v.port.GotoBottom()
		default:
			var cmd tea.Cmd
			v.port, cmd = v.port.Update(msg)
			return v, cmd
		}
	}
	return v, nil
}

// fill word-wraps the page to the viewport width.
func (v *View) fill() {
	if v.page == nil || strings.TrimSpace(v.page.Content) == "" {
		v.port.SetContent("")
		return
	}
	wrap := lipgloss.NewStyle().Width(v.port.Width)
	v.port.SetContent(wrap.Render(v.page.Content))
}

func (v *View) View() string {
	var b strings.Builder

	title := v.url
	if v.page != nil && v.page.Title != "" {
		title = v.page.Title
	}
	b.WriteString(v.styles.Title.Render(title) + "\n")
	if v.page != nil {
		b.WriteString(v.styles.URL.Render(fmt.Sprintf("%s (%d chunks)", v.page.URL, v.page.Chunks)) + "\n")
	}
	b.WriteString(strings.Repeat("─", min(v.port.Width, 60)) + "\n\n")

	switch {
	case v.state == stateLoading:
		b.WriteString(v.styles.Muted.Render("Loading page..."))
	case errors.Is(v.err, domain.ErrNotFound):
		b.WriteString(v.styles.Warning.Render("Page not found in the index."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.page == nil || strings.TrimSpace(v.page.Content) == "":
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		b.WriteString(v.port.View())
		if v.port.TotalLineCount() > v.port.Height {
			first := v.port.YOffset + 1
			last := min(v.port.YOffset+v.port.Height, v.port.TotalLineCount())
			b.WriteString("\n" + v.styles.Muted.Render(fmt.Sprintf("  [%.0f%%] lines %d-%d of %d",
				v.port.ScrollPercent()*100, first, last, v.port.TotalLineCount())))
		}
	}

	b.WriteString("\n\n" + v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions resizes the viewport and rewraps the page.
func (v *View) SetDimensions(width, height int) {
	v.port.Width = max(width-4, 20)
	v.port.Height = max(height-chrome, 1)
	if v.state == stateLoaded {
		v.fill()
	}
}

func (v *View) URL() string {
	return v.url
}

// Page is the loaded page, or nil while loading or after a failure.
func (v *View) Page() *domain.Page {
	return v.page
}

func (v *View) Err() error {
	return v.err
}
