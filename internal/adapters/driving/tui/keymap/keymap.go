// Package keymap holds the ask view's key bindings, grouped by what has
// focus so the status bar only advertises keys that do something.
package keymap

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// Mode is the part of the ask view that receives keys.
type Mode int

const (
	ModeQuestion Mode = iota
	ModeAnswer
	ModeContext
)

// KeyMap is every binding of the ask view.
type KeyMap struct {
	Quit        key.Binding
	Back        key.Binding
	Submit      key.Binding
	NewQuestion key.Binding
	Toggle      key.Binding
	Up          key.Binding
	Down        key.Binding
	ReadPage    key.Binding
}

// DefaultKeyMap returns the docrag bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "menu")),
		Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		NewQuestion: key.NewBinding(key.WithKeys("n", "/"), key.WithHelp("n", "new question")),
		Toggle:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "answer/context")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		ReadPage:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "read page")),
	}
}

// SetHasContext enables the answer/context toggle only when the last
// answer came with retrieved chunks.
func (k *KeyMap) SetHasContext(ok bool) {
	k.Toggle.SetEnabled(ok)
}

// For returns the bindings live in mode as a help.KeyMap.
func (k *KeyMap) For(mode Mode) help.KeyMap {
	return modeHelp{k: k, mode: mode}
}

type modeHelp struct {
	k    *KeyMap
	mode Mode
}

func (m modeHelp) ShortHelp() []key.Binding {
	k := m.k
	switch m.mode {
	case ModeAnswer:
		return []key.Binding{k.NewQuestion, k.Toggle, k.Up, k.Down, k.Back}
	case ModeContext:
		return []key.Binding{k.Up, k.Down, k.ReadPage, k.Toggle, k.Back}
	default:
		return []key.Binding{k.Submit, k.Back, k.Quit}
	}
}

func (m modeHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp(), {m.k.Quit}}
}
