package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/extraction/fallback"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/extraction/plaintext"
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/normalisers"
)

// stubExtractor returns fixed text.
type stubExtractor struct {
	text string
	err  error
	got  []byte
}

func (s *stubExtractor) Name() string { return "stub" }

func (s *stubExtractor) Extract(_ context.Context, _ string, content []byte) (string, error) {
	s.got = content
	return s.text, s.err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_DefaultSourceID(t *testing.T) {
	n := New(Config{Path: "/data/SSP.docx"}, &stubExtractor{})
	assert.Equal(t, "SSP.docx", n.SourceID())
	assert.Equal(t, domain.SourceDocument, n.SourceType())
	assert.Equal(t, domain.DefaultChunkSize, n.chunker.ChunkSize())
	assert.Equal(t, domain.DefaultChunkOverlap, n.chunker.Overlap())
}

func TestNew_ConfiguredSourceID(t *testing.T) {
	n := New(Config{Path: "/data/ssp-v3.docx", SourceID: "SSP.docx"}, &stubExtractor{})
	assert.Equal(t, "SSP.docx", n.SourceID())
}

func TestNormalise_Windows(t *testing.T) {
	path := writeFile(t, "SSP.docx", "binary")
	extractor := &stubExtractor{text: "abcdefghij"}
	n := New(Config{Path: path, ChunkSize: 4, ChunkOverlap: 1}, extractor)

	chunks, err := normalisers.Drain(n.Normalise(context.Background()))

	require.NoError(t, err)
	assert.Equal(t, "binary", string(extractor.got))
	require.Len(t, chunks, 3)

	want := []string{"abcd", "defg", "ghij"}
	for i, c := range chunks {
		assert.Equal(t, domain.SourceDocument, c.SourceType)
		assert.Equal(t, "SSP.docx", c.SourceID)
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, want[i], c.Content)
		assert.Equal(t, map[string]any{"chunk_index": i}, c.Metadata)
		assert.NoError(t, c.Validate())
	}
}

func TestNormalise_DefaultWindowSize(t *testing.T) {
	path := writeFile(t, "SSP.docx", "binary")
	text := strings.Repeat("a", 2500)
	n := New(Config{Path: path}, &stubExtractor{text: text})

	chunks, err := normalisers.Drain(n.Normalise(context.Background()))

	require.NoError(t, err)
	// windows start at 0, 1000 and 2000
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Content, 1200)
	assert.Len(t, chunks[1].Content, 1200)
	assert.Len(t, chunks[2].Content, 500)
}

func TestNormalise_MissingFile(t *testing.T) {
	n := New(Config{Path: filepath.Join(t.TempDir(), "missing.docx")}, &stubExtractor{text: "x"})

	chunks, err := normalisers.Drain(n.Normalise(context.Background()))

	assert.Empty(t, chunks)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataSource)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNormalise_ExtractionFailed(t *testing.T) {
	path := writeFile(t, "SSP.docx", "binary")
	n := New(Config{Path: path}, &stubExtractor{err: errors.New("corrupt")})

	_, err := normalisers.Drain(n.Normalise(context.Background()))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataSource)
	assert.Contains(t, err.Error(), "corrupt")
}

func TestNormalise_EmptyText(t *testing.T) {
	path := writeFile(t, "SSP.docx", "binary")
	n := New(Config{Path: path}, &stubExtractor{text: ""})

	chunks, err := normalisers.Drain(n.Normalise(context.Background()))

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestNormalise_BlankFileThroughChain(t *testing.T) {
	path := writeFile(t, "SSP.txt", "   \n")
	n := New(Config{Path: path}, fallback.NewChain(plaintext.New()))

	chunks, err := normalisers.Drain(n.Normalise(context.Background()))

	require.NoError(t, err)
	assert.Empty(t, chunks)
}
