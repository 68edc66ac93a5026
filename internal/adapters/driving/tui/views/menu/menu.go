// Package menu is the TUI start screen.
package menu

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

// Entry is one menu line. Selecting an entry with Quit set exits docrag;
// otherwise it switches to View.
type Entry struct {
	Label string
	Hint  string
	Key   key.Binding
	View  messages.ViewType
	Quit  bool
}

func entry(label, hint, shortcut string, view messages.ViewType) Entry {
	return Entry{
		Label: label,
		Hint:  hint,
		Key:   key.NewBinding(key.WithKeys(shortcut), key.WithHelp(shortcut, strings.ToLower(label))),
		View:  view,
	}
}

// Entries are the menu lines in display order.
func Entries() []Entry {
	return []Entry{
		entry("Ask", "question the indexed documentation", "a", messages.ViewAsk),
		entry("Pages", "browse what has been ingested", "p", messages.ViewPages),
		entry("Settings", "store, providers and retrieval", "s", messages.ViewSettings),
		entry("Help", "keys and views", "?", messages.ViewHelp),
		{
			Label: "Quit",
			Key:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
			Quit:  true,
		},
	}
}

var (
	keyUp     = key.NewBinding(key.WithKeys("up", "k"))
	keyDown   = key.NewBinding(key.WithKeys("down", "j"))
	keySelect = key.NewBinding(key.WithKeys("enter"))
)

// View is the menu.
type View struct {
	styles  *styles.Styles
	entries []Entry
	cursor  int
	width   int
	height  int
	ready   bool
}

// NewView creates the menu.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, entries: Entries(), width: 80, height: 24}
}

// Init does nothing; the menu has no data to load.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor or activates an entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyUp):
			v.cursor = max(v.cursor-1, 0)
		case key.Matches(msg, keyDown):
			v.cursor = min(v.cursor+1, len(v.entries)-1)
		case key.Matches(msg, keySelect):
			return v, v.activate(v.cursor)
		default:
			for i, e := range v.entries {
				if key.Matches(msg, e.Key) {
					v.cursor = i
					return v, v.activate(i)
				}
			}
		}
	}
	return v, nil
}

func (v *View) activate(i int) tea.Cmd {
	e := v.entries[i]
	if e.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: e.View} }
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("docrag"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render("answers from your documentation"))
	b.WriteString("\n\n")

	shortcuts := make([]string, 0, len(v.entries))
	for i, e := range v.entries {
		h := e.Key.Help()
		shortcuts = append(shortcuts, h.Key)

		label := v.styles.Normal.Render(e.Label)
		prefix := "  "
		if i == v.cursor {
			label = v.styles.Selected.Render(" " + e.Label + " ")
			prefix = "> "
		}
		b.WriteString(prefix + label + v.styles.Muted.Render(" ["+h.Key+"]"))
		if i == v.cursor && e.Hint != "" {
			b.WriteString(v.styles.Muted.Render("  " + e.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] move  [enter] open  [" + strings.Join(shortcuts, "/") + "] jump"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the cursor position.
func (v *View) Selected() int {
	return v.cursor
}
