// Package input holds the question box used by the ask view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

const (
	maxQuestionLen = 1024
	maxHistory     = 50
	minInputWidth  = 20
	// labelWidth covers the "Ask:" label plus the field border and padding.
	labelWidth = 10
)

var (
	prevKey = key.NewBinding(key.WithKeys("up", "ctrl+p"))
	nextKey = key.NewBinding(key.WithKeys("down", "ctrl+n"))
)

// QuestionInput is a single-line question box that remembers what was asked.
// Up and down walk back and forth through earlier questions; the text being
// typed is restored when walking past the newest one.
type QuestionInput struct {
	field  textinput.Model
	styles *styles.Styles
	width  int

	history []string
	// cursor indexes history while browsing and equals len(history) otherwise.
	cursor int
	draft  string
}

// NewQuestionInput returns a focused, empty question box.
func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.Placeholder = "Ask a question about the documentation..."
	field.CharLimit = maxQuestionLen
	field.Prompt = ""
	field.Focus()

	q := &QuestionInput{field: field, styles: s}
	q.SetWidth(60)
	return q
}

// Init starts the cursor blinking.
func (q *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles history keys itself and passes everything else to the field.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && q.field.Focused() {
		switch {
		case key.Matches(km, prevKey):
			q.recall(-1)
			return q, nil
		case key.Matches(km, nextKey):
			q.recall(1)
			return q, nil
		}
	}

	var cmd tea.Cmd
	q.field, cmd = q.field.Update(msg)
	return q, cmd
}

func (q *QuestionInput) recall(step int) {
	next := q.cursor + step
	if next < 0 || next > len(q.history) {
		return
	}
	if q.cursor == len(q.history) {
		q.draft = q.field.Value()
	}
	q.cursor = next
	if next == len(q.history) {
		q.field.SetValue(q.draft)
	} else {
		q.field.SetValue(q.history[next])
	}
	q.field.CursorEnd()
}

// Submit returns the trimmed question and clears the box. A non-empty
// question is added to the history unless it repeats the last one.
func (q *QuestionInput) Submit() string {
	question := strings.TrimSpace(q.field.Value())
	if question != "" && (len(q.history) == 0 || q.history[len(q.history)-1] != question) {
		q.history = append(q.history, question)
		if len(q.history) > maxHistory {
			q.history = q.history[len(q.history)-maxHistory:]
		}
	}
	q.field.Reset()
	q.cursor = len(q.history)
	q.draft = ""
	return question
}

// History returns earlier questions, oldest first.
func (q *QuestionInput) History() []string {
	return q.history
}

// View renders the label and the field on one line.
func (q *QuestionInput) View() string {
	label := q.styles.Title.Render("Ask:")
	field := q.styles.InputField.Render(q.field.View())
	return lipgloss.JoinHorizontal(lipgloss.Center, label, " ", field)
}

func (q *QuestionInput) Value() string {
	return q.field.Value()
}

func (q *QuestionInput) SetValue(value string) {
	q.field.SetValue(value)
	q.field.CursorEnd()
}

func (q *QuestionInput) Focus() tea.Cmd {
	return q.field.Focus()
}

func (q *QuestionInput) Blur() {
	q.field.Blur()
}

func (q *QuestionInput) Focused() bool {
	return q.field.Focused()
}

// SetWidth sizes the whole line, label included.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	q.field.Width = max(width-labelWidth, minInputWidth)
}

func (q *QuestionInput) Width() int {
	return q.width
}

// Reset clears the box and stops browsing history. History is kept.
func (q *QuestionInput) Reset() {
	q.field.Reset()
	q.cursor = len(q.history)
	q.draft = ""
}
