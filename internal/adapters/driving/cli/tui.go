package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

var (
	tuiIngestPath     string
	tuiIngestBaseURL  string
	tuiIngestInterval time.Duration
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for docrag.

The TUI lets you ask questions, inspect the chunks each answer was drawn
from, browse indexed pages and change settings with keyboard navigation.

With --ingest the given crawler output is re-ingested in the background
while the TUI runs.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Ask / Select
  Tab      - Switch between answer and context
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiIngestPath, "ingest", "", "crawler output to re-ingest in the background")
	tuiCmd.Flags().StringVar(&tuiIngestBaseURL, "base-url", "", "base URL for Markdown pages without a url front matter field")
	tuiCmd.Flags().DurationVar(&tuiIngestInterval, "interval", time.Hour, "background re-ingest interval")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := requireServices(cmd); err != nil {
		return err
	}
	if answerService == nil {
		return errNotConfigured("answer")
	}
	if pageService == nil {
		return errNotConfigured("page")
	}

	ctx := commandContext(cmd)

	// Log lines would corrupt the alternate screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	if tuiIngestPath != "" {
		stop, err := startBackgroundIngest(ctx)
		if err != nil {
			return err
		}
		defer stop()
	}

	ports := &tui.Ports{
		Answer:   answerService,
		Pages:    pageService,
		Settings: settingsService,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// startBackgroundIngest runs the scheduler until the returned stop is called.
func startBackgroundIngest(ctx context.Context) (func(), error) {
	if sourceOpener == nil {
		return nil, errNotConfigured("source")
	}
	if schedulerFactory == nil {
		return nil, errNotConfigured("scheduler")
	}

	settings := domain.ScheduleSettings{Interval: tuiIngestInterval}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	source, err := sourceOpener(tuiIngestPath, tuiIngestBaseURL)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	schedulerCtx, cancel := context.WithCancel(ctx)
	scheduler := schedulerFactory(source, settings)

	go func() {
		//nolint:errcheck // scheduler errors shouldn't block the TUI
		scheduler.Start(schedulerCtx)
	}()

	return func() {
		cancel()
		scheduler.Stop() //nolint:errcheck // best effort on exit
		if closer, ok := source.(interface{ Close() error }); ok {
			closer.Close() //nolint:errcheck // best effort
		}
	}, nil
}
