// Package sqlite provides a SQLite-based implementation of the driven ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple interfaces
// through a single database connection:
//
//   - VectorStore: Embedded chunks and per-source cosine similarity search
//   - IngestLock: Single-writer ingestion lease
//   - EvidenceSource: The v_evidence_requests_with_context view
//   - SchedulerStore: Periodic refresh state and history
//
// # Similarity
//
// Cosine similarity is computed inside SQLite by the deterministic scalar
// function rag_cosine_similarity(embedding, query), registered with the
// driver before the first connection opens. Search orders by it and breaks
// ties by rowid, newest first.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.evidence-rag/data/rag.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
