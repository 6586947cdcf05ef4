package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceType is the coarse provenance category of a chunk.
type SourceType string

// Known source types.
const (
	// SourceDocument is the flat document (the SSP).
	SourceDocument SourceType = "document"

	// SourceReport is the structured vulnerability report.
	SourceReport SourceType = "report"

	// SourceTable is the relational evidence-request view.
	SourceTable SourceType = "table"
)

// SourceTypes is the fixed order used for ingestion, fan-out reassembly
// and context rendering.
var SourceTypes = []SourceType{SourceDocument, SourceReport, SourceTable}

// sourceLabels are the short citation labels shown to the model and to users.
var sourceLabels = map[SourceType]string{
	SourceDocument: "doc",
	SourceReport:   "json",
	SourceTable:    "db",
}

// IsValid reports whether t is one of the known source types.
func (t SourceType) IsValid() bool {
	_, ok := sourceLabels[t]
	return ok
}

// Label returns the short citation label for the source type.
func (t SourceType) Label() string {
	if label, ok := sourceLabels[t]; ok {
		return label
	}
	return string(t)
}

// Heading returns the section heading used in rendered context.
func (t SourceType) Heading() string {
	return fmt.Sprintf("=== %s SOURCES ===", strings.ToUpper(t.Label()))
}

// String returns the stored value of the source type.
func (t SourceType) String() string {
	return string(t)
}

// ParseSourceType accepts either the stored value or the citation label.
func ParseSourceType(s string) (SourceType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range SourceTypes {
		if s == string(t) || s == t.Label() {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown source type %q", ErrInvalidInput, s)
}

// ChunkKey is the natural key of a chunk. Re-ingesting the same key
// overwrites rather than duplicates.
type ChunkKey struct {
	SourceType SourceType
	SourceID   string
	ChunkIndex int
}

// String renders the key for logs.
func (k ChunkKey) String() string {
	return fmt.Sprintf("%s/%s#%d", k.SourceType, k.SourceID, k.ChunkIndex)
}

// Chunk is a bounded unit of source text, the unit of embedding and storage.
type Chunk struct {
	// SourceType is the provenance category.
	SourceType SourceType

	// SourceID identifies the record within its source.
	SourceID string

	// ChunkIndex is the 0-based window position within the record.
	ChunkIndex int

	// Content is the text that gets embedded. Never empty.
	Content string

	// Metadata holds arbitrary structured context about the chunk.
	Metadata map[string]any
}

// Key returns the natural key of the chunk.
func (c *Chunk) Key() ChunkKey {
	return ChunkKey{SourceType: c.SourceType, SourceID: c.SourceID, ChunkIndex: c.ChunkIndex}
}

// Validate checks the chunk invariants.
func (c *Chunk) Validate() error {
	if !c.SourceType.IsValid() {
		return fmt.Errorf("%w: unknown source type %q", ErrInvalidInput, c.SourceType)
	}
	if c.SourceID == "" {
		return fmt.Errorf("%w: empty source id", ErrInvalidInput)
	}
	if c.ChunkIndex < 0 {
		return fmt.Errorf("%w: negative chunk index %d", ErrInvalidInput, c.ChunkIndex)
	}
	if c.Content == "" {
		return fmt.Errorf("%w: empty content for %s", ErrInvalidInput, c.Key())
	}
	return nil
}

// EmbeddedChunk is a Chunk with its embedding vector.
type EmbeddedChunk struct {
	Chunk

	// Embedding has the store-wide dimensionality.
	Embedding []float32
}

// StoredRow is an EmbeddedChunk persisted by a vector store.
type StoredRow struct {
	EmbeddedChunk

	// ID is an opaque identifier assigned by the store.
	ID string

	// CreatedAt is when the row was first inserted.
	CreatedAt time.Time
}

// RetrievedRow is a StoredRow scored against a query. Never persisted.
type RetrievedRow struct {
	StoredRow

	// Similarity is the cosine similarity in [-1, 1]; higher is closer.
	Similarity float64
}
