package driving

import "context"

// Scheduler runs periodic source refresh in the background.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop waits for running tasks and stops the loop.
	Stop() error
}
