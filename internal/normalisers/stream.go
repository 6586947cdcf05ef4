package normalisers

import (
	"context"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// EmitFunc sends one chunk downstream. It returns false once the consumer
// has gone away and production should stop.
type EmitFunc func(domain.Chunk) bool

// Stream runs produce in a goroutine and exposes its chunks and its error as
// channels. The chunk channel is closed before the error channel, so a
// consumer ranges over chunks and then reads the error.
func Stream(ctx context.Context, produce func(ctx context.Context, emit EmitFunc) error) (<-chan domain.Chunk, <-chan error) {
	chunks := make(chan domain.Chunk)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(chunks)

		emit := func(c domain.Chunk) bool {
			select {
			case chunks <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if err := produce(ctx, emit); err != nil {
			errs <- err
			return
		}
		if err := ctx.Err(); err != nil {
			errs <- err
		}
	}()

	return chunks, errs
}

// Drain collects every chunk and the terminal error.
func Drain(chunks <-chan domain.Chunk, errs <-chan error) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for c := range chunks {
		out = append(out, c)
	}
	return out, <-errs
}
