// Package domain defines the core business entities for evidence-rag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A bounded unit of source text with its natural key
//   - EmbeddedChunk / StoredRow / RetrievedRow: A chunk through its lifecycle
//   - MergedContext: Per-source grouped retrieval results for one query
//   - EvidenceRow: A relational row from the evidence-request view
//   - Config: Explicit runtime configuration passed to every collaborator
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
