package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	retrieveK      int
	retrieveBudget int
	retrieveJSON   bool
	retrieveFull   bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the chunks retrieved for a query",
	Long: `Embeds the query, runs a similarity search against the chunk store and
prints the assembled context, most similar chunk first.

Chunks are added whole until the next one would exceed the budget.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveK, "top-k", "k", 0, "maximum number of chunks (0 = configured default)")
	retrieveCmd.Flags().IntVarP(&retrieveBudget, "budget", "b", 0, "maximum combined chunk length (0 = configured default)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output chunks as JSON")
	retrieveCmd.Flags().BoolVar(&retrieveFull, "full", false, "print full chunk content")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd); err != nil {
		return err
	}
	if answerService == nil {
		return errNotConfigured("retrieval")
	}

	result, err := answerService.Retrieve(commandContext(cmd), args[0], retrieveK, retrieveBudget)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		return outputRetrieveJSON(cmd, result)
	}
	return outputRetrieveTable(cmd, result)
}

type retrievedChunk struct {
	URL         string  `json:"url"`
	ChunkNumber int     `json:"chunk_number"`
	Title       string  `json:"title"`
	Summary     string  `json:"summary"`
	Content     string  `json:"content"`
	Score       float64 `json:"score"`
}

func outputRetrieveJSON(cmd *cobra.Command, result domain.RetrievalResult) error {
	out := make([]retrievedChunk, len(result))
	for i := range result {
		c := &result[i].Chunk
		out[i] = retrievedChunk{
			URL:         c.URL,
			ChunkNumber: c.Sequence,
			Title:       c.Title,
			Summary:     c.Summary,
			Content:     c.Content,
			Score:       result[i].Score,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrieveTable(cmd *cobra.Command, result domain.RetrievalResult) error {
	if len(result) == 0 {
		cmd.Println("No relevant documentation found.")
		return nil
	}

	cmd.Println("Chunks:")
	cmd.Println()
	total := 0
	for i := range result {
		// Format: [N] Title (Score)
		c := &result[i].Chunk
		title := c.Title
		if title == "" {
			title = c.Key().String()
		}
		total += len(c.Content)

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, result[i].Score)
		cmd.Printf("      %s #%d, %d chars\n", c.URL, c.Sequence, len(c.Content))
		if c.Summary != "" {
			cmd.Printf("      %s\n", c.Summary)
		}
		if retrieveFull {
			cmd.Println()
			cmd.Println(indent(c.Content, "      "))
		}
		cmd.Println()
	}
	cmd.Printf("Total: %d chunks, %d chars\n", len(result), total)
	return nil
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
