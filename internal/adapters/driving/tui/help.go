package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/views/menu"
)

// pageKeys are handled by the page list and reader, which match on strings.
var pageKeys = []key.Binding{
	key.NewBinding(key.WithHelp("/", "filter by URL")),
	key.NewBinding(key.WithHelp("enter", "read page")),
	key.NewBinding(key.WithHelp("r", "reload")),
	key.NewBinding(key.WithHelp("g/G", "top/bottom of a page")),
}

// helpText lists the keys of every view, taken from the bindings they use.
func helpText(km *keymap.KeyMap) string {
	var b strings.Builder
	section := func(title string, bindings []key.Binding) {
		fmt.Fprintf(&b, "%s\n", title)
		for _, kb := range bindings {
			h := kb.Help()
			if h.Key == "" {
				continue
			}
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}

	var menuKeys []key.Binding
	for _, e := range menu.Entries() {
		menuKeys = append(menuKeys, e.Key)
	}
	section("Menu", menuKeys)

	question := km.For(keymap.ModeQuestion).ShortHelp()
	answer := km.For(keymap.ModeAnswer).ShortHelp()
	chunks := km.For(keymap.ModeContext).ShortHelp()
	section("Ask", dedupe(question, answer, chunks))
	section("Pages", pageKeys)
	section("Anywhere", []key.Binding{km.Quit})

	b.WriteString("[esc] back to menu")
	return b.String()
}

// dedupe keeps the first binding for each help key and description pair.
func dedupe(groups ...[]key.Binding) []key.Binding {
	seen := make(map[key.Help]bool)
	var out []key.Binding
	for _, g := range groups {
		for _, kb := range g {
			if seen[kb.Help()] {
				continue
			}
			seen[kb.Help()] = true
			out = append(out, kb)
		}
	}
	return out
}
