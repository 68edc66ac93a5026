// Package status is the one-line bar under the ask view: what docrag is
// doing on the left, the keys that apply right now on the right.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

// State is what the bar reports on its left side.
type State string

const (
	StateReady     State = "ready"
	StateAnswering State = "answering"
	StateAnswered  State = "answered"
	StateError     State = "error"
)

// Bar renders status and key hints.
type Bar struct {
	styles *styles.Styles
	help   help.Model
	spin   spinner.Model
	hints  help.KeyMap

	state      State
	message    string
	chunkCount int
	width      int
}

// NewBar creates a bar showing hints. hints may be nil.
func NewBar(s *styles.Styles, hints help.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}

	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = s.Normal
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = lipgloss.NewStyle().Foreground(s.Theme().Primary)

	return &Bar{
		styles: s,
		help:   h,
		spin:   sp,
		hints:  hints,
		state:  StateReady,
		width:  80,
	}
}

// Answering switches to the answering state and starts the spinner.
func (b *Bar) Answering() tea.Cmd {
	b.state = StateAnswering
	b.message = ""
	return b.spin.Tick
}

// Answered records how many chunks the answer was built from.
func (b *Bar) Answered(chunks int) {
	b.state = StateAnswered
	b.message = ""
	b.chunkCount = chunks
}

// Failed shows err until the next state change.
func (b *Bar) Failed(err error) {
	b.state = StateError
	b.message = err.Error()
}

// Update advances the spinner while an answer is pending.
func (b *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	tick, ok := msg.(spinner.TickMsg)
	if !ok || b.state != StateAnswering {
		return b, nil
	}
	var cmd tea.Cmd
	b.spin, cmd = b.spin.Update(tick)
	return b, cmd
}

// View renders the bar at its width.
func (b *Bar) View() string {
	left := b.left()
	right := ""
	if b.hints != nil {
		b.help.Width = max(b.width-lipgloss.Width(left)-3, 0)
		right = b.help.View(b.hints)
	}

	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) left() string {
	switch b.state {
	case StateAnswering:
		return b.spin.View() + " " + b.styles.Muted.Render("Answering...")
	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)
	case StateAnswered:
		if b.chunkCount == 1 {
			return b.styles.Normal.Render("1 context chunk")
		}
		if b.chunkCount > 0 {
			return b.styles.Normal.Render(fmt.Sprintf("%d context chunks", b.chunkCount))
		}
		return b.styles.Warning.Render("No context retrieved")
	}
	return b.styles.Muted.Render("Ready")
}

// SetHints replaces the key hints, for example when focus moves.
func (b *Bar) SetHints(hints help.KeyMap) {
	b.hints = hints
}

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

func (b *Bar) State() State    { return b.state }
func (b *Bar) Message() string { return b.message }
func (b *Bar) ChunkCount() int { return b.chunkCount }

// Clear returns the bar to ready.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.chunkCount = 0
}
