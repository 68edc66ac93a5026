package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var (
	ingestBaseURL  string
	ingestWatch    bool
	ingestInterval time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Chunk, embed and store crawled pages",
	Long: `Reads crawler output and stores every page as embedded chunks.

The path is a JSONL file with one {"url", "content", "fetched_at"} object per
line, "-" for JSONL on stdin, or a directory of Markdown files.

Re-ingesting a page overwrites its chunks. Chunks that fail to embed or store
are reported and the rest of the batch continues.

With --watch or --interval the command keeps running and re-ingests the
source until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestBaseURL, "base-url", "", "base URL for Markdown files without a url front matter field")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep ingesting files the crawler writes to a Markdown directory")
	ingestCmd.Flags().DurationVar(&ingestInterval, "interval", 0, "re-ingest the whole source at this interval")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd); err != nil {
		return err
	}
	if ingestService == nil {
		return errNotConfigured("ingest")
	}
	if sourceOpener == nil {
		return errNotConfigured("document source")
	}

	source, err := sourceOpener(args[0], ingestBaseURL)
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	if closer, ok := source.(interface{ Close() error }); ok {
		defer closer.Close() //nolint:errcheck // best effort
	}

	ctx := commandContext(cmd)

	if ingestWatch || ingestInterval > 0 {
		return runScheduled(ctx, cmd, source)
	}

	cmd.Printf("Ingesting %s...\n", source.Name())
	report, err := ingestWithProgress(ctx, cmd, ingestService, source)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func runScheduled(ctx context.Context, cmd *cobra.Command, source driven.DocumentSource) error {
	if schedulerFactory == nil {
		return errNotConfigured("scheduler")
	}
	if _, ok := source.(driven.WatchableSource); ingestWatch && !ok {
		return errors.New("--watch requires a Markdown directory")
	}

	settings := domain.ScheduleSettings{Interval: ingestInterval}
	if err := settings.Validate(); err != nil {
		return err
	}

	cmd.Printf("Ingesting %s until interrupted...\n", source.Name())
	err := schedulerFactory(source, settings).Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ingestWithProgress runs the batch while displaying progress updates.
func ingestWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	ingest driving.IngestService,
	source driven.DocumentSource,
) (*domain.IngestReport, error) {
	type result struct {
		report *domain.IngestReport
		err    error
	}

	// Start ingest in goroutine
	done := make(chan result, 1)
	go func() {
		report, err := ingest.Ingest(ctx, source)
		done <- result{report, err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case r := <-done:
			if lastCount > 0 {
				cmd.Println()
			}
			return r.report, r.err
		case <-ticker.C:
			status := ingest.Status()
			if status.Running && status.DocumentsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d documents, %d chunks stored", status.DocumentsProcessed, status.ChunksStored)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Run %s finished in %s\n", report.RunID, formatDuration(report.Duration()))
	cmd.Printf("  Documents: %d\n", report.Documents)
	cmd.Printf("  Chunks:    %d\n", report.Chunks)
	cmd.Printf("  Stored:    %d\n", report.Stored)
	if report.Trimmed > 0 {
		cmd.Printf("  Trimmed:   %d stale chunks\n", report.Trimmed)
	}
	if report.OK() {
		return
	}

	cmd.Printf("  Failed:    %d\n", len(report.Failures)+len(report.DocumentFailures))
	for _, f := range report.DocumentFailures {
		cmd.Printf("    %s: %v\n", f.URL, f.Err)
	}
	for _, f := range report.Failures {
		cmd.Printf("    %s: %v\n", f.Key, f.Err)
	}
}
