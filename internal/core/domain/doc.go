// Package domain defines the core business entities for docrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A crawled documentation page
//   - Chunk: A retrievable unit of a page, keyed by (URL, Sequence)
//   - ScoredChunk: A chunk returned by similarity search
//   - IngestReport: The outcome of a write-path batch
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
