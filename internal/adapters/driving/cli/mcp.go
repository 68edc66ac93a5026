package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve documentation tools to MCP clients",
	Long: `Serve the indexed documentation to MCP clients.

Tools:
  retrieve_relevant_documentation  ranked chunks for a query
  answer                           an answer composed from those chunks
  list_documentation_pages         every indexed page URL
  get_page_content                 a page reassembled from its chunks

Pages are also exposed as docrag://pages resources.

The server speaks JSON-RPC on stdin/stdout, which is what desktop assistants
launch. Pass --http to serve streamable HTTP instead, e.g. for MCP Inspector:

  docrag mcp serve
  docrag mcp serve --http localhost:3001

A client entry for stdio looks like:

  "docrag": {"command": "docrag", "args": ["mcp", "serve"]}`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := requireServices(cmd); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Answer: answerService, Pages: pageService}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpHTTPAddr == "" {
		return server.Run(ctx)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on %s\n", mcpHTTPAddr)
	return server.RunHTTP(ctx, mcpHTTPAddr)
}
