// Package chunker splits long text into overlapping fixed-size windows.
package chunker

import (
	"iter"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per window.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Split returns the windows of text as a lazy sequence. Sizes count Unicode
// code points, so a multi-byte character is never cut in half.
//
// Each window starts overlap characters before the previous window's end,
// unless that would not advance past the previous start, in which case it
// starts at the previous end. The final window may be shorter than size.
// Ranging over the sequence again restarts it from the beginning.
func Split(text string, size, overlap int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if size <= 0 || text == "" {
			return
		}
		if overlap < 0 {
			overlap = 0
		}

		runes := []rune(text)
		length := len(runes)
		start := 0
		for start < length {
			end := min(length, start+size)
			if !yield(string(runes[start:end])) {
				return
			}
			if end == length {
				return
			}
			next := max(0, end-overlap)
			if next <= start {
				start = end
			} else {
				start = next
			}
		}
	}
}

// Collect materialises every window of text.
func Collect(text string, size, overlap int) []string {
	var windows []string //nolint:prealloc // count depends on overlap guard
	for w := range Split(text, size, overlap) {
		windows = append(windows, w)
	}
	return windows
}

// Processor holds a window configuration.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
// An overlap at or above the chunk size yields non-overlapping windows.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Windows splits text with the processor's configuration.
func (p *Processor) Windows(text string) iter.Seq[string] {
	return Split(text, p.chunkSize, p.overlap)
}
