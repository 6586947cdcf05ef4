package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/normalisers"
)

// --- Mock implementations ---

// bagEmbedder is a deterministic bag-of-words embedder: each lower-cased
// token increments one hashed dimension.
type bagEmbedder struct {
	mu         sync.Mutex
	dims       int
	embedCalls int
	batchSizes []int
	err        error
}

func newBagEmbedder() *bagEmbedder {
	return &bagEmbedder{dims: 64}
}

func (e *bagEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(e.dims)]++
	}
	return v
}

func (e *bagEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.embedCalls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *bagEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchSizes = append(e.batchSizes, len(texts))
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *bagEmbedder) calls() (embeds int, batches []int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedCalls, append([]int(nil), e.batchSizes...)
}

func (e *bagEmbedder) Dimensions() int              { return e.dims }
func (e *bagEmbedder) ModelName() string            { return "bag-of-words" }
func (e *bagEmbedder) Ping(_ context.Context) error { return nil }
func (e *bagEmbedder) Close() error                 { return nil }

// stubLLM records the conversation it was sent.
type stubLLM struct {
	reply    string
	err      error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (l *stubLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	l.calls++
	l.messages = messages
	l.opts = opts
	return l.reply, l.err
}

func (l *stubLLM) ModelName() string            { return "stub-chat" }
func (l *stubLLM) Ping(_ context.Context) error { return nil }
func (l *stubLLM) Close() error                 { return nil }

// stubPrompts serves a single answer prompt.
type stubPrompts struct {
	prompt string
	err    error
}

func (p *stubPrompts) Load(_ string) (string, error) { return p.prompt, p.err }
func (p *stubPrompts) Reload()                       {}

// sliceNormaliser streams fixed chunks, then err.
type sliceNormaliser struct {
	sourceType domain.SourceType
	chunks     []domain.Chunk
	err        error
}

func (n *sliceNormaliser) SourceType() domain.SourceType { return n.sourceType }

func (n *sliceNormaliser) Normalise(ctx context.Context) (<-chan domain.Chunk, <-chan error) {
	return normalisers.Stream(ctx, func(ctx context.Context, emit normalisers.EmitFunc) error {
		for _, c := range n.chunks {
			if !emit(c) {
				return ctx.Err()
			}
		}
		return n.err
	})
}

// textChunks builds n chunks of sourceType with distinct content.
func textChunks(sourceType domain.SourceType, id string, contents ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = domain.Chunk{SourceType: sourceType, SourceID: id, ChunkIndex: i, Content: c}
	}
	return chunks
}

// stubEvidence serves fixed evidence rows.
type stubEvidence struct {
	rows     []domain.EvidenceRow
	err      error
	gotLimit int
}

func (s *stubEvidence) ListEvidenceRequests(_ context.Context, limit int) ([]domain.EvidenceRow, error) {
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && limit < len(s.rows) {
		return s.rows[:limit], nil
	}
	return s.rows, nil
}

// failingSearchStore fails Search for one source type.
type failingSearchStore struct {
	driven.VectorStore
	failOn domain.SourceType
	err    error
}

func (s *failingSearchStore) Search(ctx context.Context, t domain.SourceType, q []float32, k int) ([]domain.RetrievedRow, error) {
	if t == s.failOn {
		return nil, s.err
	}
	return s.VectorStore.Search(ctx, t, q, k)
}

// Ensure mocks implement interfaces
var (
	_ driven.EmbeddingService = (*bagEmbedder)(nil)
	_ driven.LLMService       = (*stubLLM)(nil)
	_ driven.PromptStore      = (*stubPrompts)(nil)
	_ driven.SourceNormaliser = (*sliceNormaliser)(nil)
	_ driven.EvidenceSource   = (*stubEvidence)(nil)
)
