// Package fallback composes extractors into a degrade-not-fail strategy.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/logger"
)

// Ensure Chain and ByExtension implement the interface.
var (
	_ driven.Extractor = (*Chain)(nil)
	_ driven.Extractor = (*ByExtension)(nil)
)

// Chain tries a primary extractor, then each fallback in order. An error or
// an empty result moves on to the next extractor with a warning. When nothing
// produced text but at least one extractor ran cleanly, the document is
// empty rather than failed.
type Chain struct {
	extractors []driven.Extractor
}

// NewChain creates a chain. Nil extractors are skipped so an optional
// primary can be passed unconditionally.
func NewChain(primary driven.Extractor, fallbacks ...driven.Extractor) *Chain {
	c := &Chain{}
	for _, e := range append([]driven.Extractor{primary}, fallbacks...) {
		if e != nil {
			c.extractors = append(c.extractors, e)
		}
	}
	return c
}

// Name lists the chained extractors.
func (c *Chain) Name() string {
	names := make([]string, len(c.extractors))
	for i, e := range c.extractors {
		names[i] = e.Name()
	}
	return strings.Join(names, "->")
}

// Extract returns the first non-empty text. Context cancellation stops the
// chain immediately.
func (c *Chain) Extract(ctx context.Context, filename string, content []byte) (string, error) {
	var errs []error
	blank := false
	for _, e := range c.extractors {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := e.Extract(ctx, filename, content)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logger.Warn("%s extraction failed for %s, trying next extractor: %v", e.Name(), filepath.Base(filename), err)
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			logger.Warn("%s extracted no text from %s, trying next extractor", e.Name(), filepath.Base(filename))
			blank = true
			continue
		}

		logger.Debug("extracted %d characters from %s with %s", len(text), filepath.Base(filename), e.Name())
		return text, nil
	}

	if blank {
		logger.Warn("no text extracted from %s, treating it as empty", filepath.Base(filename))
		return "", nil
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: no extractor configured", domain.ErrExtractionFailed)
	}
	return "", fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailed, filepath.Base(filename), errors.Join(errs...))
}

// ByExtension routes to an extractor by lower-cased file extension.
type ByExtension struct {
	routes   map[string]driven.Extractor
	fallback driven.Extractor
}

// NewByExtension creates a router. Keys include the dot, e.g. ".docx".
// fallback handles unknown extensions and may be nil.
func NewByExtension(routes map[string]driven.Extractor, fallback driven.Extractor) *ByExtension {
	normalised := make(map[string]driven.Extractor, len(routes))
	for ext, e := range routes {
		normalised[strings.ToLower(ext)] = e
	}
	return &ByExtension{routes: normalised, fallback: fallback}
}

// Name returns the router name.
func (b *ByExtension) Name() string {
	return "local"
}

// Extract dispatches on the extension of filename.
func (b *ByExtension) Extract(ctx context.Context, filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if e, ok := b.routes[ext]; ok {
		return e.Extract(ctx, filename, content)
	}
	if b.fallback != nil {
		return b.fallback.Extract(ctx, filename, content)
	}
	return "", fmt.Errorf("%w: no extractor for %q", domain.ErrExtractionFailed, ext)
}
