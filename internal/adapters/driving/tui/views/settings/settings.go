// Package settings is the TUI view for choosing the chunk store, the
// embedding and LLM providers, and the retrieval tuning values.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Section is the pane the view is showing.
type Section int

const (
	SectionOverview Section = iota
	SectionStore
	SectionEmbedding
	SectionLLM
)

var errNoService = errors.New("settings service not available")

// option is one choice in a picker section.
type option struct {
	label string
	value string
	note  string
	// prompt is set when the choice takes a secret before it is saved.
	prompt string
	// required means the secret may not be left blank.
	required bool
}

// picker is a section that selects one option and saves it.
type picker struct {
	title   string
	options []option
	current func(*domain.AppSettings) string
	apply   func(svc driving.SettingsService, value, secret string) error
}

var pickers = map[Section]picker{
	SectionStore: {
		title:   "Select Chunk Store",
		options: storeOptions(),
		current: func(s *domain.AppSettings) string { return s.Store.Backend.String() },
		apply: func(svc driving.SettingsService, value, dsn string) error {
			if err := svc.Set("store.backend", value); err != nil {
				return err
			}
			if dsn == "" {
				return nil
			}
			return svc.Set("store.dsn", dsn)
		},
	},
	SectionEmbedding: {
		title:   "Select Embedding Provider",
		options: providerOptions(domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels()),
		current: func(s *domain.AppSettings) string { return s.Embedding.Provider.String() },
		apply: func(svc driving.SettingsService, value, key string) error {
			p := domain.AIProvider(value)
			return svc.SetEmbeddingProvider(p, domain.DefaultEmbeddingModels()[p], key)
		},
	},
	SectionLLM: {
		title:   "Select LLM Provider",
		options: providerOptions(domain.AllLLMProviders(), domain.DefaultLLMModels()),
		current: func(s *domain.AppSettings) string { return s.LLM.Provider.String() },
		apply: func(svc driving.SettingsService, value, key string) error {
			p := domain.AIProvider(value)
			return svc.SetLLMProvider(p, domain.DefaultLLMModels()[p], key)
		},
	},
}

func storeOptions() []option {
	backends := domain.AllStoreBackends()
	opts := make([]option, 0, len(backends))
	for _, b := range backends {
		o := option{label: b.Description(), value: b.String()}
		if b == domain.StoreBackendPostgres {
			o.note = "Requires: store.dsn or DOCRAG_POSTGRES_DSN"
			o.prompt = "DSN (blank keeps current):"
		}
		opts = append(opts, o)
	}
	return opts
}

func providerOptions(providers []domain.AIProvider, models map[domain.AIProvider]string) []option {
	opts := make([]option, 0, len(providers))
	for _, p := range providers {
		o := option{label: p.Description(), value: p.String()}
		if m, ok := models[p]; ok {
			o.note = "Model: " + m
		}
		if p.RequiresAPIKey() {
			o.prompt = "API Key:"
			o.required = true
		}
		opts = append(opts, o)
	}
	return opts
}

// row is one line of the overview. Rows with a section open a picker;
// rows with a key are edited in place.
type row struct {
	label   string
	value   func(*domain.AppSettings) string
	status  func(*domain.AppSettings) (string, bool)
	section Section
	key     string
	numeric bool
}

var rows = []row{
	{
		label:   "Chunk Store",
		value:   func(s *domain.AppSettings) string { return s.Store.Backend.Description() },
		status:  storeStatus,
		section: SectionStore,
	},
	{
		label: "Embedding Provider",
		value: func(s *domain.AppSettings) string {
			return providerValue(s.Embedding.Provider, s.Embedding.Model)
		},
		status: func(s *domain.AppSettings) (string, bool) {
			return providerStatus(s.Embedding.IsConfigured())
		},
		section: SectionEmbedding,
	},
	{
		label: "LLM Provider",
		value: func(s *domain.AppSettings) string {
			return providerValue(s.LLM.Provider, s.LLM.Model)
		},
		status: func(s *domain.AppSettings) (string, bool) {
			return providerStatus(s.LLM.IsConfigured())
		},
		section: SectionLLM,
	},
	intRow("Chunk Size", "chunking.size", func(s *domain.AppSettings) int { return s.Chunking.Size }),
	intRow("Top K", "retrieval.top_k", func(s *domain.AppSettings) int { return s.Retrieval.TopK }),
	intRow("Context Budget", "retrieval.budget", func(s *domain.AppSettings) int { return s.Retrieval.Budget }),
	intRow("Ingest Concurrency", "ingest.concurrency", func(s *domain.AppSettings) int { return s.Ingest.Concurrency }),
	{
		label: "Default Source",
		value: func(s *domain.AppSettings) string { return s.Ingest.Source },
		key:   "ingest.source",
	},
}

func intRow(label, key string, get func(*domain.AppSettings) int) row {
	return row{
		label:   label,
		value:   func(s *domain.AppSettings) string { return strconv.Itoa(get(s)) },
		key:     key,
		numeric: true,
	}
}

func providerValue(p domain.AIProvider, model string) string {
	if p == "" {
		return "Not Set"
	}
	return fmt.Sprintf("%s (%s)", p.Description(), model)
}

func providerStatus(configured bool) (string, bool) {
	if configured {
		return "[configured]", true
	}
	return "[needs API key]", false
}

func storeStatus(s *domain.AppSettings) (string, bool) {
	if s.Store.Backend == domain.StoreBackendPostgres && s.Store.DSN == "" {
		return "[needs DSN]", false
	}
	return "", true
}

// View is the settings view.
type View struct {
	styles  *styles.Styles
	service driving.SettingsService

	settings *domain.AppSettings
	err      error

	section  Section
	selected int

	// editing is true while input has focus, either for a picker secret
	// or for an overview value.
	editing bool
	input   textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a settings view backed by service.
func NewView(s *styles.Styles, service driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	input := textinput.New()
	input.CharLimit = 256

	return &View{
		styles:  s,
		service: service,
		section: SectionOverview,
		input:   input,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	svc := v.service
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: errNoService}
		}
		s, err := svc.Get()
		return messages.SettingsLoaded{Settings: s, Err: err}
	}
}

// save runs fn against the service off the update loop.
func (v *View) save(fn func(driving.SettingsService) error) tea.Cmd {
	svc := v.service
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: errNoService}
		}
		return messages.SettingsSaved{Err: fn(svc)}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.settings = msg.Settings
		v.err = nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.backToOverview()
		return v, v.load()

	case tea.KeyMsg:
		if v.settings == nil {
			if msg.String() == "esc" {
				return v, changeView(messages.ViewMenu)
			}
			return v, nil
		}
		if v.editing {
			return v.handleInputKey(msg)
		}
		return v.handleKey(msg)
	}
	return v, nil
}

func changeView(target messages.ViewType) tea.Cmd {
	return func() tea.Msg { return messages.ViewChanged{View: target} }
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if v.section == SectionOverview {
			return v, changeView(messages.ViewMenu)
		}
		v.backToOverview()
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < v.itemCount()-1 {
			v.selected++
		}
	case "tab":
		if o, ok := v.selectedOption(); ok && o.prompt != "" {
			return v, v.focusInput("", true)
		}
	case "enter":
		if v.section == SectionOverview {
			return v, v.openRow(rows[v.selected])
		}
		return v, v.choose()
	}
	return v, nil
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc", "tab", "shift+tab":
		v.blurInput()
		return v, nil
	case "enter":
		return v, v.submitInput()
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) openRow(r row) tea.Cmd {
	if r.key != "" {
		return v.focusInput(r.value(v.settings), false)
	}
	v.section = r.section
	v.selected = v.currentIndex()
	return nil
}

// choose saves the selected picker option, or asks for its secret first.
func (v *View) choose() tea.Cmd {
	o, ok := v.selectedOption()
	if !ok {
		return nil
	}
	if o.prompt != "" {
		return v.focusInput("", true)
	}
	p := pickers[v.section]
	return v.save(func(svc driving.SettingsService) error {
		return p.apply(svc, o.value, "")
	})
}

func (v *View) submitInput() tea.Cmd {
	value := strings.TrimSpace(v.input.Value())

	if v.section == SectionOverview {
		r := rows[v.selected]
		if r.numeric {
			if n, err := strconv.Atoi(value); err != nil || n <= 0 {
				v.err = fmt.Errorf("%s must be a positive integer", r.label)
				return nil
			}
		}
		return v.save(func(svc driving.SettingsService) error {
			return svc.Set(r.key, value)
		})
	}

	o, ok := v.selectedOption()
	if !ok {
		return nil
	}
	if o.required && value == "" {
		v.err = fmt.Errorf("%s requires an API key", o.label)
		return nil
	}
	p := pickers[v.section]
	return v.save(func(svc driving.SettingsService) error {
		return p.apply(svc, o.value, value)
	})
}

func (v *View) focusInput(value string, secret bool) tea.Cmd {
	v.editing = true
	v.input.SetValue(value)
	v.input.CursorEnd()
	if secret {
		v.input.EchoMode = textinput.EchoPassword
		v.input.Placeholder = "Enter secret"
	} else {
		v.input.EchoMode = textinput.EchoNormal
		v.input.Placeholder = ""
	}
	return v.input.Focus()
}

func (v *View) blurInput() {
	v.editing = false
	v.input.SetValue("")
	v.input.Blur()
}

func (v *View) backToOverview() {
	v.blurInput()
	v.section = SectionOverview
	v.selected = 0
}

func (v *View) itemCount() int {
	if v.section == SectionOverview {
		return len(rows)
	}
	return len(pickers[v.section].options)
}

func (v *View) selectedOption() (option, bool) {
	p, ok := pickers[v.section]
	if !ok || v.selected < 0 || v.selected >= len(p.options) {
		return option{}, false
	}
	return p.options[v.selected], true
}

// currentIndex is the position of the configured value in the active
// picker, or 0 when it is unset or settings are not loaded.
func (v *View) currentIndex() int {
	p, ok := pickers[v.section]
	if !ok || v.settings == nil {
		return 0
	}
	cur := p.current(v.settings)
	for i, o := range p.options {
		if o.value == cur {
			return i
		}
	}
	return 0
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	if v.section == SectionOverview {
		b.WriteString(v.renderOverview())
	} else {
		b.WriteString(v.renderPicker(pickers[v.section]))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) line(selected bool, text string) string {
	if selected {
		return v.styles.Selected.Render("> "+text) + "\n"
	}
	return v.styles.Normal.Render("  "+text) + "\n"
}

func (v *View) renderOverview() string {
	var b strings.Builder

	for i, r := range rows {
		if i == 3 {
			b.WriteString("\n")
			b.WriteString(v.styles.Subtitle.Render("Retrieval"))
			b.WriteString("\n")
		}

		selected := i == v.selected
		if selected && v.editing {
			b.WriteString(v.line(true, r.label+":"))
			b.WriteString("    " + v.input.View() + "\n")
			continue
		}

		text := fmt.Sprintf("%s: %s", r.label, r.value(v.settings))
		if r.status != nil {
			if status, ok := r.status(v.settings); status != "" {
				style := v.styles.Warning
				if ok {
					style = v.styles.Success
				}
				text += " " + style.Render(status)
			}
		}
		b.WriteString(v.line(selected, text))
	}

	b.WriteString("\n")
	if v.service != nil {
		if err := v.service.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render("Warning: " + err.Error()))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
	}
	return b.String()
}

func (v *View) renderPicker(p picker) string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render(p.title))
	b.WriteString("\n\n")

	cur := p.current(v.settings)
	for i, o := range p.options {
		text := o.label
		if o.value == cur {
			text += v.styles.Success.Render(" (current)")
		}
		b.WriteString(v.line(i == v.selected && !v.editing, text))
		if o.note != "" {
			b.WriteString(v.styles.Muted.Render("    " + o.note))
			b.WriteString("\n")
		}
	}

	if o, ok := v.selectedOption(); ok && o.prompt != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render(o.prompt))
		b.WriteString("\n")
		b.WriteString(v.input.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderHelp() string {
	switch {
	case v.editing && v.section == SectionOverview:
		return v.styles.Help.Render("[enter] save  [esc] cancel")
	case v.editing:
		return v.styles.Help.Render("[tab] back to list  [enter] save  [esc] cancel")
	case v.section == SectionOverview:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [esc] back")
	default:
		if o, ok := v.selectedOption(); ok && o.prompt != "" {
			return v.styles.Help.Render("[j/k] navigate  [tab] edit secret  [enter] select  [esc] back")
		}
		return v.styles.Help.Render("[j/k] navigate  [enter] select  [esc] back")
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Reset returns the view to the overview and clears any pending input.
func (v *View) Reset() {
	v.backToOverview()
	v.err = nil
}
