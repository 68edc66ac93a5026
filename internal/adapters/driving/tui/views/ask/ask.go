// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Focus identifies which part of the view receives keys.
type Focus int

const (
	// FocusInput routes keys to the question input.
	FocusInput Focus = iota
	// FocusAnswer scrolls the answer.
	FocusAnswer
	// FocusContext navigates the context chunks.
	FocusContext
)

// View represents the ask view with question input, answer, context list and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	list      *list.ChunkList
	statusbar *status.Bar

	answerService driving.AnswerService
	ctx           context.Context

	question string
	answer   string
	pane     viewport.Model

	width  int
	height int
	ready  bool
	err    error
	focus  Focus
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answerService driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQuestionInput(s),
		list:          list.NewChunkList(s),
		statusbar:     status.NewBar(s, km.For(keymap.ModeQuestion)),
		answerService: answerService,
		ctx:           context.Background(),
		pane:          viewport.New(0, 0),
		width:         80,
		height:        24,
	}
	v.setFocus(FocusInput)
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.statusbar, cmd = v.statusbar.Update(msg)
		return v, cmd

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.Failed(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focus == FocusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

// setFocus moves key handling and the status bar hints together.
func (v *View) setFocus(f Focus) {
	v.focus = f
	mode := keymap.ModeQuestion
	switch f {
	case FocusAnswer:
		mode = keymap.ModeAnswer
	case FocusContext:
		mode = keymap.ModeContext
	}
	v.statusbar.SetHints(v.keymap.For(mode))
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	km := v.keymap
	if key.Matches(msg, km.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focus == FocusInput {
		if !key.Matches(msg, km.Submit) {
			var cmd tea.Cmd
			v.input, cmd = v.input.Update(msg)
			return v, cmd
		}
		question := v.input.Submit()
		if question == "" {
			return v, nil
		}
		v.question = question
		v.err = nil
		v.input.Blur()
		v.setFocus(FocusAnswer)
		return v, tea.Batch(v.statusbar.Answering(), v.performAnswer(question))
	}

	switch {
	case key.Matches(msg, km.Toggle):
		if v.focus == FocusAnswer {
			v.setFocus(FocusContext)
		} else {
			v.setFocus(FocusAnswer)
		}
	case key.Matches(msg, km.NewQuestion):
		v.setFocus(FocusInput)
		v.input.Reset()
		return v, v.input.Focus()
	case key.Matches(msg, km.Up):
		if v.focus == FocusContext {
			v.list.MoveUp()
		} else {
			v.pane.SetYOffset(v.pane.YOffset - 1)
		}
	case key.Matches(msg, km.Down):
		if v.focus == FocusContext {
			v.list.MoveDown()
		} else {
			v.pane.SetYOffset(v.pane.YOffset + 1)
		}
	case v.focus == FocusContext && key.Matches(msg, km.ReadPage):
		if sc := v.list.SelectedChunk(); sc != nil {
			url := sc.Chunk.URL
			return v, func() tea.Msg {
				return messages.PageSelected{URL: url}
			}
		}
	}

	return v, nil
}

// performAnswer answers the question and fetches the context it was built from.
// A failed context lookup leaves the context empty; the answer already
// reflects it.
func (v *View) performAnswer(question string) tea.Cmd {
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}

		answer := v.answerService.Answer(v.ctx, question)
		result, err := v.answerService.Retrieve(v.ctx, question, 0, 0)
		if err != nil {
			result = nil
		}
		return messages.AnswerCompleted{Query: question, Answer: answer, Context: result}
	}
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Failed(msg.Err)
		return
	}

	v.err = nil
	v.question = msg.Query
	v.answer = msg.Answer
	v.wrapAnswer()
	v.pane.GotoTop()
	v.list.SetChunks(msg.Context)
	v.keymap.SetHasContext(len(msg.Context) > 0)
	v.statusbar.Answered(len(msg.Context))
	v.setFocus(FocusAnswer)
	v.input.Blur()
}

// wrapAnswer refills the answer pane at the current width.
func (v *View) wrapAnswer() {
	v.pane.Width = max(v.width-4, 20)
	v.pane.Height = v.answerHeight()
	if v.answer == "" {
		v.pane.SetContent("")
		return
	}
	v.pane.SetContent(lipgloss.NewStyle().Width(v.pane.Width).Render(v.answer))
}

func (v *View) answerHeight() int {
	// Header, input, status and the context list share the rest.
	return max((v.height-12)/2, 3)
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)

	sections = append(sections, v.styles.Title.Render("docrag"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	switch {
	case v.statusbar.State() == status.StateAnswering:
		sections = append(sections, v.styles.Muted.Render("Thinking about: "+v.question))
	case v.answer != "":
		sections = append(sections, v.renderAnswer(), "", v.renderContext())
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderAnswer() string {
	header := v.styles.Subtitle.Render("Answer")
	if v.focus == FocusAnswer {
		header = v.styles.Selected.Render(" Answer ")
	}

	if !v.pane.AtTop() || !v.pane.AtBottom() {
		header += v.styles.Muted.Render(fmt.Sprintf("  %.0f%%", v.pane.ScrollPercent()*100))
	}
	return header + "\n" + v.styles.Normal.Render(v.pane.View())
}

func (v *View) renderContext() string {
	if v.focus == FocusContext {
		return v.list.View()
	}
	return v.styles.Muted.Render(v.list.View())
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, max(height-v.answerHeight()-12, 4))
	v.statusbar.SetWidth(width)
	v.wrapAnswer()
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the text currently in the input.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the question input.
func (v *View) SetQuestion(question string) {
	v.input.SetValue(question)
}

// Answer returns the last answer.
func (v *View) Answer() string {
	return v.answer
}

// Context returns the chunks the last answer was composed from.
func (v *View) Context() []domain.ScoredChunk {
	return v.list.Chunks()
}

// SelectedChunk returns the highlighted context chunk.
func (v *View) SelectedChunk() *domain.ScoredChunk {
	return v.list.SelectedChunk()
}

// Focus returns which part of the view receives keys.
func (v *View) Focus() Focus {
	return v.focus
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset resets the view to an empty question.
func (v *View) Reset() {
	v.setFocus(FocusInput)
	v.input.Focus()
	v.input.Reset()
	v.question = ""
	v.answer = ""
	v.wrapAnswer()
	v.list.SetChunks(nil)
	v.err = nil
	v.statusbar.Clear()
}
