// Package pages lists the indexed pages of the configured source and lets
// the user filter them and open one in the reader.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var ErrNoPageService = errors.New("page service not available")

// chrome is the lines taken by title, filter, blank lines, position and help.
const chrome = 8

type keys struct {
	up, down, pageUp, pageDown, top, bottom key.Binding
	open, filter, reload, back              key.Binding
}

var bindings = keys{
	up:       key.NewBinding(key.WithKeys("up", "k")),
	down:     key.NewBinding(key.WithKeys("down", "j")),
	pageUp:   key.NewBinding(key.WithKeys("pgup")),
	pageDown: key.NewBinding(key.WithKeys("pgdown")),
	top:      key.NewBinding(key.WithKeys("home", "g")),
	bottom:   key.NewBinding(key.WithKeys("end", "G")),
	open:     key.NewBinding(key.WithKeys("enter")),
	filter:   key.NewBinding(key.WithKeys("/")),
	reload:   key.NewBinding(key.WithKeys("r")),
	back:     key.NewBinding(key.WithKeys("esc")),
}

type View struct {
	styles *styles.Styles
	pages  driving.PageService
	ctx    context.Context

	urls    []string
	shown   []string
	query   textinput.Model
	cursor  int
	offset  int
	loading bool
	err     error

	width, height int
}

func NewView(s *styles.Styles, pages driving.PageService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	query := textinput.New()
	query.Prompt = "Filter: "
	query.Placeholder = "part of a URL"
	return &View{
		styles: s,
		pages:  pages,
		ctx:    context.Background(),
		query:  query,
		width:  80,
		height: 24,
	}
}

func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts loading the page list. The filter is kept across reloads.
func (v *View) Init() tea.Cmd {
	v.loading, v.err = true, nil
	v.cursor, v.offset = 0, 0

	pages, ctx := v.pages, v.ctx
	return func() tea.Msg {
		if pages == nil {
			return messages.PagesLoaded{Err: ErrNoPageService}
		}
		urls, err := pages.ListPages(ctx)
		return messages.PagesLoaded{URLs: urls, Err: err}
	}
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.PagesLoaded:
		v.loading, v.err = false, msg.Err
		if msg.Err == nil {
			v.urls = msg.URLs
			v.refilter()
		}
	case messages.ErrorOccurred:
		v.err = msg.Err
	case tea.KeyMsg:
		if v.query.Focused() {
			return v, v.editFilter(msg)
		}
		return v, v.navigate(msg)
	}
	return v, nil
}

func (v *View) editFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		v.query.Blur()
		return nil
	case tea.KeyEsc:
		v.query.Blur()
		v.query.Reset()
		v.refilter()
		return nil
	}
	var cmd tea.Cmd
	v.query, cmd = v.query.Update(msg)
	v.refilter()
	return cmd
}

func (v *View) navigate(msg tea.KeyMsg) tea.Cmd {
	page := v.rows()
	switch {
	case key.Matches(msg, bindings.up):
		v.move(-1)
	case key.Matches(msg, bindings.down):
		v.move(1)
	case key.Matches(msg, bindings.pageUp):
		v.move(-page)
	case key.Matches(msg, bindings.pageDown):
		v.move(page)
	case key.Matches(msg, bindings.top):
		v.move(-len(v.shown))
	case key.Matches(msg, bindings.bottom):
		v.move(len(v.shown))
	case key.Matches(msg, bindings.open):
		if v.cursor < len(v.shown) {
			url := v.shown[v.cursor]
			return func() tea.Msg { return messages.PageSelected{URL: url} }
		}
	case key.Matches(msg, bindings.filter):
		return v.query.Focus()
	case key.Matches(msg, bindings.reload):
		return v.Init()
	case key.Matches(msg, bindings.back):
		if v.query.Value() != "" {
			v.query.Reset()
			v.refilter()
			return nil
		}
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}
	return nil
}

// move shifts the cursor by delta, clamped to the list, and scrolls the
// window so the cursor stays visible.
func (v *View) move(delta int) {
	if len(v.shown) == 0 {
		return
	}
	v.cursor = min(max(v.cursor+delta, 0), len(v.shown)-1)
	rows := v.rows()
	switch {
	case v.cursor < v.offset:
		v.offset = v.cursor
	case v.cursor >= v.offset+rows:
		v.offset = v.cursor - rows + 1
	}
}

// refilter keeps URLs containing the filter text, ignoring case.
func (v *View) refilter() {
	needle := strings.ToLower(strings.TrimSpace(v.query.Value()))
	v.shown = v.urls
	if needle != "" {
		v.shown = lo.Filter(v.urls, func(u string, _ int) bool {
			return strings.Contains(strings.ToLower(u), needle)
		})
	}
	v.cursor, v.offset = 0, 0
}

func (v *View) rows() int {
	return max(v.height-chrome, 1)
}

func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Pages (%d)", len(v.urls))
	if len(v.shown) != len(v.urls) {
		title = fmt.Sprintf("Pages (%d of %d)", len(v.shown), len(v.urls))
	}
	b.WriteString(v.styles.Title.Render(title) + "\n")
	if v.query.Focused() || v.query.Value() != "" {
		b.WriteString(v.query.View() + "\n")
	}
	b.WriteString("\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading pages..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.urls) == 0:
		b.WriteString(v.styles.Muted.Render("No pages indexed. Run 'docrag ingest' first."))
	case len(v.shown) == 0:
		b.WriteString(v.styles.Muted.Render("No pages match the filter."))
	default:
		end := min(v.offset+v.rows(), len(v.shown))
		for i := v.offset; i < end; i++ {
			b.WriteString(v.row(i) + "\n")
		}
		if len(v.shown) > v.rows() {
			b.WriteString("\n" + v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.offset+1, end, len(v.shown))))
		}
	}

	b.WriteString("\n\n" + v.styles.Help.Render("[↑/↓/PgUp/PgDn] move  [enter] read  [/] filter  [r] reload  [esc] back"))
	return b.String()
}

// row keeps the end of long URLs, where pages differ.
func (v *View) row(i int) string {
	url := []rune(v.shown[i])
	if limit := max(v.width-4, 10); len(url) > limit {
		url = append([]rune("..."), url[len(url)-limit+3:]...)
	}
	if i == v.cursor {
		return v.styles.Selected.Render("> " + string(url))
	}
	return v.styles.Normal.Render("  " + string(url))
}

func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.query.Width = max(width-12, 10)
	v.move(0)
}

// URLs is every loaded page; Visible is the filtered subset.
func (v *View) URLs() []string    { return v.urls }
func (v *View) Visible() []string { return v.shown }

// SelectedIndex indexes Visible.
func (v *View) SelectedIndex() int { return v.cursor }

func (v *View) Filter() string { return v.query.Value() }

func (v *View) Err() error { return v.err }
