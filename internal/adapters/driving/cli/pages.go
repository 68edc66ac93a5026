package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Browse indexed documentation pages",
	Long:  `List indexed pages or print a page reassembled from its chunks.`,
	RunE:  runPagesList,
}

var pagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed page URLs",
	Args:  cobra.NoArgs,
	RunE:  runPagesList,
}

var pagesShowCmd = &cobra.Command{
	Use:   "show [url]",
	Short: "Print a page's content",
	Args:  cobra.ExactArgs(1),
	RunE:  runPagesShow,
}

func init() {
	pagesCmd.AddCommand(pagesListCmd)
	pagesCmd.AddCommand(pagesShowCmd)
	rootCmd.AddCommand(pagesCmd)
}

func runPagesList(cmd *cobra.Command, _ []string) error {
	if err := requireServices(cmd); err != nil {
		return err
	}
	if pageService == nil {
		return errNotConfigured("page")
	}

	pages, err := pageService.ListPages(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}

	if len(pages) == 0 {
		cmd.Println("No pages indexed. Run 'docrag ingest' first.")
		return nil
	}

	for _, url := range pages {
		cmd.Printf("  %s\n", url)
	}
	cmd.Println()
	cmd.Printf("Total: %d pages\n", len(pages))
	return nil
}

func runPagesShow(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd); err != nil {
		return err
	}
	if pageService == nil {
		return errNotConfigured("page")
	}

	page, err := pageService.PageContent(commandContext(cmd), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("page not indexed: %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get page: %w", err)
	}

	cmd.Println(page.Content)
	return nil
}
