// Package plaintext passes text and markdown documents through unchanged.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor returns UTF-8 content as text.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// Extract returns the content with a leading byte order mark removed.
// Content that is not valid UTF-8 is rejected so binary files are not
// embedded as garbage.
func (e *Extractor) Extract(_ context.Context, _ string, content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: plaintext: content is not valid UTF-8", domain.ErrExtractionFailed)
	}
	text := strings.TrimPrefix(string(content), "\ufeff")
	return strings.TrimSpace(text), nil
}
