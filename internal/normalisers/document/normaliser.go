// Package document normalises the SSP document into overlapping text windows.
package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/logger"
	"github.com/custodia-labs/evidence-rag/internal/normalisers"
	"github.com/custodia-labs/evidence-rag/internal/postprocessors/chunker"
)

// Ensure Normaliser implements the interface.
var _ driven.SourceNormaliser = (*Normaliser)(nil)

// Config holds configuration for the document normaliser.
type Config struct {
	// Path is the document file.
	Path string

	// SourceID identifies every chunk of the document.
	// Defaults to the file's base name.
	SourceID string

	// ChunkSize and ChunkOverlap shape the windows (default: 1200/200).
	// ChunkOverlap is only read when ChunkSize is set.
	ChunkSize    int
	ChunkOverlap int
}

// Normaliser reads one document, extracts its text and splits it.
type Normaliser struct {
	path      string
	sourceID  string
	chunker   *chunker.Processor
	extractor driven.Extractor
}

// New creates a document normaliser that extracts text with extractor.
func New(cfg Config, extractor driven.Extractor) *Normaliser {
	sourceID := cfg.SourceID
	if sourceID == "" {
		sourceID = filepath.Base(cfg.Path)
	}

	// A zero Config keeps the default window; an explicit size carries its
	// overlap as given, including 0.
	var opts []chunker.Option
	if cfg.ChunkSize > 0 {
		opts = append(opts, chunker.WithChunkSize(cfg.ChunkSize), chunker.WithOverlap(cfg.ChunkOverlap))
	}

	return &Normaliser{
		path:      cfg.Path,
		sourceID:  sourceID,
		chunker:   chunker.New(opts...),
		extractor: extractor,
	}
}

// SourceType returns domain.SourceDocument.
func (n *Normaliser) SourceType() domain.SourceType {
	return domain.SourceDocument
}

// SourceID returns the identifier carried by every chunk.
func (n *Normaliser) SourceID() string {
	return n.sourceID
}

// Normalise streams one chunk per window of the extracted text.
func (n *Normaliser) Normalise(ctx context.Context) (<-chan domain.Chunk, <-chan error) {
	return normalisers.Stream(ctx, n.produce)
}

func (n *Normaliser) produce(ctx context.Context, emit normalisers.EmitFunc) error {
	content, err := os.ReadFile(n.path)
	if err != nil {
		return fmt.Errorf("%w: read document: %w", domain.ErrDataSource, err)
	}

	logger.Progress("Parsing %s via %s...", filepath.Base(n.path), n.extractor.Name())
	text, err := n.extractor.Extract(ctx, n.path, content)
	if err != nil {
		return fmt.Errorf("%w: extract %s: %w", domain.ErrDataSource, filepath.Base(n.path), err)
	}

	index := 0
	for window := range n.chunker.Windows(text) {
		chunk := domain.Chunk{
			SourceType: domain.SourceDocument,
			SourceID:   n.sourceID,
			ChunkIndex: index,
			Content:    window,
			Metadata:   map[string]any{"chunk_index": index},
		}
		if !emit(chunk) {
			return ctx.Err()
		}
		index++
	}

	logger.Debug("document %s produced %d chunks", n.sourceID, index)
	return nil
}
