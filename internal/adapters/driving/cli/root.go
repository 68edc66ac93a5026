// Package cli provides the docrag command line interface.
package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// SourceOpener opens crawler output at path. baseURL derives page URLs for
// Markdown directories without front matter.
type SourceOpener func(path, baseURL string) (driven.DocumentSource, error)

// SchedulerFactory builds a scheduler re-ingesting source.
type SchedulerFactory func(source driven.DocumentSource, settings domain.ScheduleSettings) driving.Scheduler

// Services holds the services the commands run against.
type Services struct {
	Answer    driving.AnswerService
	Pages     driving.PageService
	Ingest    driving.IngestService
	History   driving.RunHistory
	Open      SourceOpener
	Scheduler SchedulerFactory

	// Close releases the services. May be nil.
	Close func() error
}

// Bootstrap builds the services on first use, so that commands such as
// version and settings never open the store or contact AI providers.
type Bootstrap func(ctx context.Context) (*Services, error)

var (
	answerService    driving.AnswerService
	pageService      driving.PageService
	ingestService    driving.IngestService
	runHistory       driving.RunHistory
	settingsService  driving.SettingsService
	sourceOpener     SourceOpener
	schedulerFactory SchedulerFactory

	bootstrap    Bootstrap
	closeService func() error
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Answer questions from crawled documentation",
	Long: `docrag chunks crawled documentation pages, embeds and stores them in a
vector store, and answers questions by retrieving the most relevant chunks
and handing them to a language model.

Typical use:
  docrag ingest ./crawl/pages.jsonl
  docrag ask "How do I register a tool?"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands use for
// every service call.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service. It is cheap to build and
// needed before any other service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetBootstrap sets the function that builds the remaining services.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs already built services.
func SetServices(s *Services) {
	answerService = s.Answer
	pageService = s.Pages
	ingestService = s.Ingest
	runHistory = s.History
	sourceOpener = s.Open
	schedulerFactory = s.Scheduler
	closeService = s.Close
}

// requireServices runs the bootstrap unless the services are already installed.
func requireServices(cmd *cobra.Command) error {
	if answerService != nil || bootstrap == nil {
		return nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func closeServices() error {
	if closeService == nil {
		return nil
	}
	fn := closeService
	closeService = nil
	return fn()
}

// commandContext returns the command's context, or a background context
// when the command was not started through ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// errNotConfigured builds the error returned when a command's service is missing.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}

// formatDuration rounds d for display.
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
