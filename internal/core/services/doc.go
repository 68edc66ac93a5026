// Package services implements the driving port interfaces.
//
// The write path is IngestService (chunk, describe, embed, upsert) with
// Scheduler on top of it for periodic re-ingest. The read path is
// RetrievalService and AnswerService, and PageService browses what is indexed.
// Services only talk to infrastructure through driven ports.
package services
