// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ChunkStore: Chunk persistence and similarity search
//   - EmbeddingService: Turns chunk and query text into vectors
//   - DocumentSource: Reads crawler output
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//   - PostProcessorPipeline: Splits documents into chunks
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Without it, chunk titles fall back to the first line and
//     answers are unavailable.
//   - TokenCounter: Without it, token counts are not recorded.
//   - RunStore: Without it, ingest runs are not kept in a history.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
