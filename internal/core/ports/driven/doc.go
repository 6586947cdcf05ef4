// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Turns text into vectors (OpenAI-compatible API)
//   - LLMService: Chat completion for answer composition
//   - VectorStore: Chunk persistence and per-source similarity search
//   - SourceNormaliser: Streams uniform chunks out of one data source
//   - Extractor: Turns a binary document into text
//   - EvidenceSource: Reads the relational evidence-request view
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - IngestLock: Single-writer lease. Without it, ingestion runs unguarded.
//   - PromptStore: User-editable prompts. Without it, built-in prompts are used.
//   - SchedulerStore: Persists periodic refresh state and history.
//   - ConfigStore: Persistent key/value settings.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
