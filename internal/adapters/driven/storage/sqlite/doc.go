// Package sqlite stores chunks in an embedded SQLite database.
//
// It uses modernc.org/sqlite, a pure Go SQLite, so the binary needs no CGO.
// One database file holds:
//
//   - site_pages: one row per chunk, keyed by (url, chunk_number), with the
//     metadata as JSON text and the embedding as little-endian float32 bytes
//   - ingest_runs: the ingest run history
//
// # Search
//
// SQLite has no vector index here, so Search filters candidates on metadata in
// SQL and ranks them by cosine similarity in Go. This suits documentation sites
// of a few thousand pages; larger corpora belong in the postgres store.
//
// # Schema
//
// The schema is managed by versioned migrations in migrations/.
//
// # Data Location
//
// By default, the database is stored at ~/.docrag/data/docrag.db
package sqlite
