package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var askSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documentation",
	Long: `Retrieves the documentation chunks most relevant to the question and asks
the configured LLM to answer from them.

When nothing relevant is indexed, or a provider or the store is unavailable,
the answer is "No relevant documentation found."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "list the pages the answer was drawn from")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd); err != nil {
		return err
	}
	if answerService == nil {
		return errNotConfigured("answer")
	}

	ctx := commandContext(cmd)
	question := strings.Join(args, " ")

	cmd.Println(answerService.Answer(ctx, question))

	if !askSources {
		return nil
	}
	result, err := answerService.Retrieve(ctx, question, 0, 0)
	if err != nil || len(result) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Sources:")
	seen := make(map[string]bool, len(result))
	for i := range result {
		url := result[i].Chunk.URL
		if seen[url] {
			continue
		}
		seen[url] = true
		cmd.Printf("  - %s\n", url)
	}
	return nil
}
