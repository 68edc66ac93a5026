package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(q *QuestionInput, text string) {
	q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func press(q *QuestionInput, k tea.KeyType) {
	q.Update(tea.KeyMsg{Type: k})
}

func ask(q *QuestionInput, text string) string {
	typeText(q, text)
	return q.Submit()
}

func TestNewQuestionInput(t *testing.T) {
	q := NewQuestionInput(nil)

	require.NotNil(t, q.styles)
	assert.True(t, q.Focused())
	assert.Empty(t, q.Value())
	assert.Empty(t, q.History())
	assert.NotNil(t, q.Init())
}

func TestQuestionInput_Typing(t *testing.T) {
	q := NewQuestionInput(nil)

	typeText(q, "how do tools work")
	press(q, tea.KeyBackspace)

	assert.Equal(t, "how do tools wor", q.Value())
}

func TestQuestionInput_IgnoresKeysWhenBlurred(t *testing.T) {
	q := NewQuestionInput(nil)
	q.Blur()

	typeText(q, "x")

	assert.Empty(t, q.Value())
	assert.False(t, q.Focused())
	assert.NotNil(t, q.Focus())
	assert.True(t, q.Focused())
}

func TestQuestionInput_Submit(t *testing.T) {
	q := NewQuestionInput(nil)

	got := ask(q, "  what is a tool?  ")

	assert.Equal(t, "what is a tool?", got)
	assert.Empty(t, q.Value())
	assert.Equal(t, []string{"what is a tool?"}, q.History())
}

func TestQuestionInput_SubmitBlankKeepsHistory(t *testing.T) {
	q := NewQuestionInput(nil)
	ask(q, "first")

	assert.Empty(t, ask(q, "   "))
	assert.Equal(t, []string{"first"}, q.History())
}

func TestQuestionInput_SubmitSkipsRepeat(t *testing.T) {
	q := NewQuestionInput(nil)

	ask(q, "same")
	ask(q, "same")
	ask(q, "other")
	ask(q, "same")

	assert.Equal(t, []string{"same", "other", "same"}, q.History())
}

func TestQuestionInput_HistoryIsBounded(t *testing.T) {
	q := NewQuestionInput(nil)
	for i := range maxHistory + 5 {
		ask(q, string(rune('A'+i%26))+string(rune('a'+i/26)))
	}

	assert.Len(t, q.History(), maxHistory)
	assert.Equal(t, "Fa", q.History()[0])
}

func TestQuestionInput_Recall(t *testing.T) {
	q := NewQuestionInput(nil)
	ask(q, "one")
	ask(q, "two")
	typeText(q, "dra")

	press(q, tea.KeyUp)
	assert.Equal(t, "two", q.Value())

	press(q, tea.KeyUp)
	assert.Equal(t, "one", q.Value())

	press(q, tea.KeyUp)
	assert.Equal(t, "one", q.Value(), "stops at the oldest")

	press(q, tea.KeyDown)
	assert.Equal(t, "two", q.Value())

	press(q, tea.KeyDown)
	assert.Equal(t, "dra", q.Value(), "walking past the newest restores the draft")

	press(q, tea.KeyDown)
	assert.Equal(t, "dra", q.Value())
}

func TestQuestionInput_RecallThenEdit(t *testing.T) {
	q := NewQuestionInput(nil)
	ask(q, "list pages")

	press(q, tea.KeyUp)
	typeText(q, " about agents")

	assert.Equal(t, "list pages about agents", q.Submit())
	assert.Equal(t, []string{"list pages", "list pages about agents"}, q.History())
}

func TestQuestionInput_Reset(t *testing.T) {
	q := NewQuestionInput(nil)
	ask(q, "kept")
	typeText(q, "dropped")
	press(q, tea.KeyUp)

	q.Reset()

	assert.Empty(t, q.Value())
	assert.Equal(t, []string{"kept"}, q.History())
	press(q, tea.KeyUp)
	assert.Equal(t, "kept", q.Value())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())
	assert.Equal(t, 100-labelWidth, q.field.Width)

	q.SetWidth(5)
	assert.Equal(t, 5, q.Width())
	assert.Equal(t, minInputWidth, q.field.Width)
}

func TestQuestionInput_View(t *testing.T) {
	q := NewQuestionInput(nil)
	q.SetValue("agents")

	out := q.View()

	assert.Contains(t, out, "Ask:")
	assert.Contains(t, out, "agents")
}
