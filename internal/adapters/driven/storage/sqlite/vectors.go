package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
)

// jsonEmptyObject is stored for chunks without metadata.
const jsonEmptyObject = "{}"

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

const upsertChunkSQL = `
	INSERT INTO rag_chunks (id, source_type, source_id, chunk_index, content, metadata, embedding, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(source_type, source_id, chunk_index) DO UPDATE SET
		content = excluded.content,
		metadata = excluded.metadata,
		embedding = excluded.embedding
`

// Replace deletes every row of sourceType, then inserts rows, in one transaction.
func (s *vectorStore) Replace(ctx context.Context, sourceType domain.SourceType, rows []domain.EmbeddedChunk) error {
	if !sourceType.IsValid() {
		return fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, sourceType)
	}
	for i := range rows {
		if rows[i].SourceType != sourceType {
			return fmt.Errorf("%w: row %s does not belong to %s", domain.ErrInvalidInput, rows[i].Key(), sourceType)
		}
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM rag_chunks WHERE source_type = ?", sourceType); err != nil {
			return fmt.Errorf("%w: deleting %s rows: %w", domain.ErrStore, sourceType, err)
		}
		return s.insert(ctx, tx, rows)
	})
}

// Upsert inserts rows, overwriting any row with the same natural key.
func (s *vectorStore) Upsert(ctx context.Context, rows []domain.EmbeddedChunk) error {
	if len(rows) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.insert(ctx, tx, rows)
	})
}

// insert validates rows against the store dimensionality and writes them
// with one prepared statement.
func (s *vectorStore) insert(ctx context.Context, tx *sql.Tx, rows []domain.EmbeddedChunk) error {
	if len(rows) == 0 {
		return nil
	}

	dim, err := dimension(ctx, tx)
	if err != nil {
		return err
	}

	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return err
		}
		n := len(rows[i].Embedding)
		if n == 0 {
			return fmt.Errorf("%w: empty embedding for %s", domain.ErrInvalidInput, rows[i].Key())
		}
		if dim == 0 {
			dim = n
		}
		if n != dim {
			return fmt.Errorf("%w: %s has %d dimensions, store has %d", domain.ErrDimensionMismatch, rows[i].Key(), n, dim)
		}
	}

	stmt, err := tx.PrepareContext(ctx, upsertChunkSQL)
	if err != nil {
		return fmt.Errorf("%w: preparing upsert: %w", domain.ErrStore, err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeLayout)
	for i := range rows {
		row := &rows[i]
		metadata, err := encodeMetadata(row.Metadata)
		if err != nil {
			return fmt.Errorf("%w: encoding metadata for %s: %w", domain.ErrStore, row.Key(), err)
		}

		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), row.SourceType, row.SourceID, row.ChunkIndex,
			row.Content, metadata, float32SliceToBytes(row.Embedding), now,
		); err != nil {
			return fmt.Errorf("%w: upserting %s: %w", domain.ErrStore, row.Key(), err)
		}
	}
	return nil
}

// Search returns up to k rows of sourceType by cosine similarity, newest
// first among equal scores.
func (s *vectorStore) Search(ctx context.Context, sourceType domain.SourceType, query []float32, k int) ([]domain.RetrievedRow, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: match count must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrInvalidInput)
	}

	dim, err := dimension(ctx, s.store.db)
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		return []domain.RetrievedRow{}, nil
	}
	if dim != len(query) {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d", domain.ErrDimensionMismatch, len(query), dim)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_type, source_id, chunk_index, content, metadata, embedding, created_at,
			`+similarityFunc+`(embedding, ?) AS similarity
		FROM rag_chunks
		WHERE source_type = ?
		ORDER BY similarity DESC, rowid DESC
		LIMIT ?
	`, float32SliceToBytes(query), sourceType, k)
	if err != nil {
		return nil, fmt.Errorf("%w: searching %s: %w", domain.ErrStore, sourceType, err)
	}
	defer rows.Close()

	results := make([]domain.RetrievedRow, 0, k)
	for rows.Next() {
		var r domain.RetrievedRow
		var metadata, createdAt string
		var embedding []byte
		var similarity sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.SourceType, &r.SourceID, &r.ChunkIndex, &r.Content,
			&metadata, &embedding, &createdAt, &similarity); err != nil {
			return nil, fmt.Errorf("%w: scanning %s row: %w", domain.ErrStore, sourceType, err)
		}
		if r.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, fmt.Errorf("%w: decoding metadata of %s: %w", domain.ErrStore, r.Key(), err)
		}
		r.Embedding = bytesToFloat32Slice(embedding)
		r.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		r.Similarity = similarity.Float64
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s rows: %w", domain.ErrStore, sourceType, err)
	}

	return results, nil
}

// Count returns the number of stored rows for sourceType.
func (s *vectorStore) Count(ctx context.Context, sourceType domain.SourceType) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rag_chunks WHERE source_type = ?", sourceType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting %s rows: %w", domain.ErrStore, sourceType, err)
	}
	return n, nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *vectorStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStore, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing: %w", domain.ErrStore, err)
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dimension returns the embedding length already held by the store,
// or 0 when it is empty.
func dimension(ctx context.Context, q queryer) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT length(embedding) / 4 FROM rag_chunks LIMIT 1").Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading store dimension: %w", domain.ErrStore, err)
	}
	return n, nil
}

func encodeMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return jsonEmptyObject, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetadata(s string) (map[string]any, error) {
	m := map[string]any{}
	if s == "" || s == "null" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
