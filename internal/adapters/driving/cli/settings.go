package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Show or change chunking, retrieval, ingest, provider and store settings.

Settings live in ~/.docrag/config.toml. Without a subcommand this prints them.`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Pick providers and a store interactively",
	Args:  cobra.NoArgs,
	RunE:  runSettingsWizard,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting by its dotted key:

  docrag settings set chunking.size 4000
  docrag settings set retrieval.top_k 8
  docrag settings set store.backend postgres

'docrag settings keys' lists the keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys accepted by set",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Choose the embedding provider",
	Args:  cobra.NoArgs,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Choose the LLM provider",
	Args:  cobra.NoArgs,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(
		settingsShowCmd,
		settingsWizardCmd,
		settingsSetCmd,
		settingsKeysCmd,
		settingsEmbeddingCmd,
		settingsLLMCmd,
	)
	rootCmd.AddCommand(settingsCmd)
}

func settingsRequired() error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := settingsRequired(); err != nil {
		return err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, sec := range describeSettings(settings) {
		fmt.Fprintf(out, "[%s]\n", sec.name)
		for _, f := range sec.fields {
			fmt.Fprintf(out, "  %s: %s\n", f[0], f[1])
		}
		fmt.Fprintln(out)
	}

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
		fmt.Fprintln(out, "Run 'docrag settings wizard' to fix it.")
		return nil
	}
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

type settingsSection struct {
	name   string
	fields [][2]string
}

func describeSettings(s *domain.AppSettings) []settingsSection {
	itoa := strconv.Itoa
	store := settingsSection{name: "Store", fields: [][2]string{{"Backend", s.Store.Backend.Description()}}}
	switch s.Store.Backend {
	case domain.StoreBackendPostgres:
		store.fields = append(store.fields, [2]string{"DSN", secretOrUnset(s.Store.DSN)}, [2]string{"Table", s.Store.Table})
	case domain.StoreBackendSQLite:
		if s.Store.Path != "" {
			store.fields = append(store.fields, [2]string{"Path", s.Store.Path})
		}
	}

	return []settingsSection{
		{name: "Chunking", fields: [][2]string{{"Size", itoa(s.Chunking.Size)}}},
		{name: "Retrieval", fields: [][2]string{{"Top K", itoa(s.Retrieval.TopK)}, {"Budget", itoa(s.Retrieval.Budget)}}},
		{name: "Ingest", fields: [][2]string{{"Concurrency", itoa(s.Ingest.Concurrency)}, {"Source", s.Ingest.Source}}},
		describeProvider("Embedding", s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL, s.Embedding.APIKey,
			s.Embedding.IsConfigured(), [2]string{"Dimensions", itoa(s.Embedding.ResolvedDimensions())}),
		describeProvider("LLM", s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured()),
		store,
	}
}

// describeProvider lists extra before the closing Status field.
func describeProvider(name string, p domain.AIProvider, model, baseURL, apiKey string, configured bool, extra ...[2]string) settingsSection {
	fields := [][2]string{{"Provider", p.Description()}, {"Model", model}}
	if p.IsLocal() {
		fields = append(fields, [2]string{"Base URL", baseURL})
	}
	if p.RequiresAPIKey() {
		fields = append(fields, [2]string{"API Key", secretOrUnset(apiKey)})
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	fields = append(fields, extra...)
	return settingsSection{name: name, fields: append(fields, [2]string{"Status", status})}
}

func secretOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return maskAPIKey(v)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := settingsRequired(); err != nil {
		return err
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("setting %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s updated.\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if err := settingsRequired(); err != nil {
		return err
	}
	for _, k := range settingsService.Keys() {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if err := settingsRequired(); err != nil {
		return err
	}
	return newPrompter(cmd).configure(embeddingKind)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if err := settingsRequired(); err != nil {
		return err
	}
	return newPrompter(cmd).configure(llmKind)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if err := settingsRequired(); err != nil {
		return err
	}
	p := newPrompter(cmd)

	p.heading("1/3 Embedding provider")
	if err := p.configure(embeddingKind); err != nil {
		return err
	}

	p.heading("2/3 LLM provider")
	p.say("Without an LLM, chunk titles use the first line and questions cannot be answered.")
	if p.confirm("Configure an LLM now?") {
		if err := p.configure(llmKind); err != nil {
			return err
		}
	} else {
		p.say("Skipped.\n")
	}

	p.heading("3/3 Chunk store")
	backends := domain.AllStoreBackends()
	backend := backends[p.choose(lo.Map(backends, func(b domain.StoreBackend, _ int) string { return b.Description() }), 2)]
	if err := settingsService.Set("store.backend", backend.String()); err != nil {
		return fmt.Errorf("setting store backend: %w", err)
	}
	if backend == domain.StoreBackendPostgres {
		if dsn := p.ask("PostgreSQL DSN (blank uses $DOCRAG_POSTGRES_DSN): "); dsn != "" {
			if err := settingsService.Set("store.dsn", dsn); err != nil {
				return fmt.Errorf("setting store DSN: %w", err)
			}
		}
	}
	p.say(fmt.Sprintf("Chunk store: %s\n", backend.Description()))

	if err := settingsService.Validate(); err != nil {
		p.say(fmt.Sprintf("Warning: %v", err))
		return nil
	}
	p.say("Settings saved.")
	return nil
}

// providerKind describes one of the two provider settings the prompter can
// configure.
type providerKind struct {
	name      string
	providers func() []domain.AIProvider
	defaults  func() map[domain.AIProvider]string
	set       func(domain.AIProvider, string, string) error
	validate  func() error
}

var (
	embeddingKind = providerKind{
		name:      "embedding",
		providers: domain.AllEmbeddingProviders,
		defaults:  domain.DefaultEmbeddingModels,
		set:       func(p domain.AIProvider, m, k string) error { return settingsService.SetEmbeddingProvider(p, m, k) },
		validate:  func() error { return settingsService.ValidateEmbeddingConfig() },
	}
	llmKind = providerKind{
		name:      "LLM",
		providers: domain.AllLLMProviders,
		defaults:  domain.DefaultLLMModels,
		set:       func(p domain.AIProvider, m, k string) error { return settingsService.SetLLMProvider(p, m, k) },
		validate:  func() error { return settingsService.ValidateLLMConfig() },
	}
)

// prompter asks questions on the command's input and output.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// secret reads an API key, without echo when stdin is a terminal.
	secret func() string
}

func newPrompter(cmd *cobra.Command) *prompter {
	p := &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
	p.secret = func() string { return p.line() }
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		p.secret = func() string {
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(p.out)
			if err != nil {
				return ""
			}
			return strings.TrimSpace(string(b))
		}
	}
	return p
}

func (p *prompter) say(s string) { fmt.Fprintln(p.out, s) }

func (p *prompter) heading(s string) {
	fmt.Fprintf(p.out, "%s\n%s\n", s, strings.Repeat("-", len(s)))
}

func (p *prompter) line() string {
	s, _ := p.in.ReadString('\n') //nolint:errcheck // EOF reads as an empty answer
	return strings.TrimSpace(s)
}

func (p *prompter) ask(question string) string {
	fmt.Fprint(p.out, question)
	return p.line()
}

func (p *prompter) confirm(question string) bool {
	switch strings.ToLower(p.ask(question + " [Y/n]: ")) {
	case "n", "no":
		return false
	}
	return true
}

// choose lists options and returns the picked index. def is 1-based and is
// used for blank or invalid answers.
func (p *prompter) choose(options []string, def int) int {
	for i, o := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, o)
	}
	return parseChoice(p.ask(fmt.Sprintf("Choice [%d]: ", def)), len(options), def) - 1
}

func (p *prompter) configure(kind providerKind) error {
	providers := kind.providers()
	fmt.Fprintf(p.out, "Select %s provider\n", kind.name)
	provider := providers[p.choose(lo.Map(providers, func(a domain.AIProvider, _ int) string { return a.Description() }), 1)]

	model := kind.defaults()[provider]
	if m := p.ask(fmt.Sprintf("Model [%s]: ", model)); m != "" {
		model = m
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		fmt.Fprint(p.out, "API key: ")
		if apiKey = p.secret(); apiKey == "" {
			return fmt.Errorf("%w: %s needs an API key", domain.ErrInvalidInput, provider.Description())
		}
	}

	if err := kind.set(provider, model, apiKey); err != nil {
		return fmt.Errorf("saving %s provider: %w", kind.name, err)
	}

	fmt.Fprint(p.out, "Checking connection... ")
	if err := kind.validate(); err != nil {
		p.say("failed")
		return fmt.Errorf("%s provider check: %w", kind.name, err)
	}
	p.say("ok")
	fmt.Fprintf(p.out, "%s provider: %s (%s)\n\n", kind.name, provider.Description(), model)
	return nil
}

func parseChoice(input string, maxVal, defaultVal int) int {
	val, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// maskAPIKey keeps the first and last four characters of long secrets.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
