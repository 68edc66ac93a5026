package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start a JSON API exposing the answer, retrieval, page and ingest operations.

Endpoints:
  GET  /check/healthy
  POST /api/v1/answer          {"query": "..."}
  POST /api/v1/retrieve        {"query": "...", "k": 5, "budget": 8000}
  GET  /api/v1/pages
  GET  /api/v1/pages/content?url=...
  POST /api/v1/ingest          {"documents": [{"url": "...", "content": "..."}]}
  GET  /api/v1/ingest/status
  GET  /api/v1/runs?limit=10`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireServices(cmd); err != nil {
		return err
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Answer:  answerService,
		Pages:   pageService,
		Ingest:  ingestService,
		History: runHistory,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on %s\n", serveAddr)
	return server.Run(commandContext(cmd), serveAddr)
}
