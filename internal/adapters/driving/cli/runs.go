package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent ingest runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "maximum number of runs")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if err := requireServices(cmd); err != nil {
		return err
	}
	if runHistory == nil {
		return errNotConfigured("run history")
	}

	runs, err := runHistory.Recent(commandContext(cmd), runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No ingest runs recorded.")
		return nil
	}

	for i := range runs {
		r := &runs[i]
		status := "ok"
		if !r.Success() {
			status = "failed: " + r.Error
		}
		cmd.Printf("  %s  %s  %s\n", r.StartedAt.Format("2006-01-02 15:04:05"), r.ID, r.Source)
		cmd.Printf("      %d documents, %d stored, %d failed, %d trimmed in %s (%s)\n",
			r.Documents, r.Stored, r.Failed, r.Trimmed, formatDuration(r.Duration()), status)
	}
	return nil
}
