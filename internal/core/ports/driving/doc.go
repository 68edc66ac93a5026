// Package driving holds the operations docrag offers its front ends: asking
// and retrieving, browsing pages, ingesting crawler output, scheduled
// re-ingest and settings. The CLI, TUI, HTTP API and MCP server all call
// through these interfaces; internal/core/services implements them.
package driving
