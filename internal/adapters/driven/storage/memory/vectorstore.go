package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Similarity is computed by brute force over the rows of one source.
type VectorStore struct {
	mu   sync.RWMutex
	rows map[domain.ChunkKey]*storedRow
	seq  int64
	dim  int
}

// storedRow carries an insertion sequence used to break similarity ties.
type storedRow struct {
	domain.StoredRow
	seq int64
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{rows: make(map[domain.ChunkKey]*storedRow)}
}

// Replace deletes every row of sourceType, then inserts rows.
func (s *VectorStore) Replace(_ context.Context, sourceType domain.SourceType, rows []domain.EmbeddedChunk) error {
	if !sourceType.IsValid() {
		return fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, sourceType)
	}
	for i := range rows {
		if rows[i].SourceType != sourceType {
			return fmt.Errorf("%w: row %s does not belong to %s", domain.ErrInvalidInput, rows[i].Key(), sourceType)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make(map[domain.ChunkKey]*storedRow, len(s.rows))
	for k, r := range s.rows {
		if r.SourceType != sourceType {
			kept[k] = r
		}
	}

	dim := s.dim
	if len(kept) == 0 {
		dim = 0
	}
	if err := checkRows(rows, &dim); err != nil {
		return err
	}

	s.rows = kept
	s.dim = dim
	s.put(rows)
	if len(s.rows) == 0 {
		s.dim = 0
	}
	return nil
}

// Upsert inserts rows, overwriting any row with the same natural key.
func (s *VectorStore) Upsert(_ context.Context, rows []domain.EmbeddedChunk) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dim
	if err := checkRows(rows, &dim); err != nil {
		return err
	}
	s.dim = dim
	s.put(rows)
	return nil
}

// checkRows validates rows and their dimensionality before any write.
func checkRows(rows []domain.EmbeddedChunk, dim *int) error {
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return err
		}
		n := len(rows[i].Embedding)
		if n == 0 {
			return fmt.Errorf("%w: empty embedding for %s", domain.ErrInvalidInput, rows[i].Key())
		}
		if *dim == 0 {
			*dim = n
		}
		if n != *dim {
			return fmt.Errorf("%w: %s has %d dimensions, store has %d", domain.ErrDimensionMismatch, rows[i].Key(), n, *dim)
		}
	}
	return nil
}

// put writes validated rows. Caller holds the write lock.
func (s *VectorStore) put(rows []domain.EmbeddedChunk) {
	now := time.Now().UTC()
	for i := range rows {
		row := rows[i]
		row.Embedding = slices.Clone(row.Embedding)
		row.Metadata = maps.Clone(row.Metadata)

		key := row.Key()
		s.seq++
		if existing, ok := s.rows[key]; ok {
			existing.EmbeddedChunk = row
			continue
		}
		s.rows[key] = &storedRow{
			StoredRow: domain.StoredRow{EmbeddedChunk: row, ID: uuid.New().String(), CreatedAt: now},
			seq:       s.seq,
		}
	}
}

// Search returns up to k rows of sourceType by cosine similarity.
func (s *VectorStore) Search(_ context.Context, sourceType domain.SourceType, query []float32, k int) ([]domain.RetrievedRow, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: match count must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dim == 0 {
		return []domain.RetrievedRow{}, nil
	}
	if s.dim != len(query) {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d", domain.ErrDimensionMismatch, len(query), s.dim)
	}

	type scored struct {
		row *storedRow
		sim float64
	}
	var candidates []scored
	for _, r := range s.rows {
		if r.SourceType == sourceType {
			candidates = append(candidates, scored{row: r, sim: cosineSimilarity(query, r.Embedding)})
		}
	}

	slices.SortFunc(candidates, func(a, b scored) int {
		if c := cmp.Compare(b.sim, a.sim); c != 0 {
			return c
		}
		return cmp.Compare(b.row.seq, a.row.seq)
	})

	results := make([]domain.RetrievedRow, 0, min(k, len(candidates)))
	for _, c := range candidates[:min(k, len(candidates))] {
		stored := c.row.StoredRow
		stored.Embedding = slices.Clone(stored.Embedding)
		stored.Metadata = maps.Clone(stored.Metadata)
		results = append(results, domain.RetrievedRow{StoredRow: stored, Similarity: c.sim})
	}
	return results, nil
}

// Count returns the number of stored rows for sourceType.
func (s *VectorStore) Count(_ context.Context, sourceType domain.SourceType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.rows {
		if r.SourceType == sourceType {
			n++
		}
	}
	return n, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
