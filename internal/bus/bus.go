// Package bus implements the process-wide worker pool that runs reader
// callbacks and user closures off the per-session I/O goroutines
// (spec.md §2 module 9, §5). Every Session created by a Client shares
// that Client's single Bus.
package bus

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxWorkers matches ClientConfig.maxThreadpoolThreads' documented
// default (spec.md §6).
const DefaultMaxWorkers = 8

// Bus is a fixed-size pool of long-lived workers draining a shared job
// queue. Sessions post user closures and reader-side completion work to
// it so a slow closure can never block the writer or reader goroutine of
// any session (spec.md §5 suspension point "(d) threadpool workers block
// on the closure queue").
type Bus struct {
	jobs chan func()
	g    *errgroup.Group
}

// New starts a Bus with the given number of workers (a count below 1
// selects DefaultMaxWorkers) and a job queue of four slots per worker
// sized to smooth over bursts.
func New(workers int) *Bus {
	if workers < 1 {
		workers = DefaultMaxWorkers
	}
	b := &Bus{
		jobs: make(chan func(), workers*4),
	}
	g, _ := errgroup.WithContext(context.Background())
	b.g = g
	for i := 0; i < workers; i++ {
		g.Go(b.worker)
	}
	return b
}

func (b *Bus) worker() error {
	for job := range b.jobs {
		job()
	}
	return nil
}

// Post enqueues fn to run on a worker goroutine. It never blocks the
// caller indefinitely longer than it takes a worker to pick the job up
// off the channel.
func (b *Bus) Post(fn func()) {
	b.jobs <- fn
}

// Shutdown stops accepting new work, waits for the queue to drain and
// every worker to exit, and reports the first worker error (workers in
// this package never return a non-nil error, but the shape is kept so a
// future worker kind can surface one; spec.md §8 invariant 6: "after
// shutdown, no threads remain").
func (b *Bus) Shutdown() error {
	close(b.jobs)
	if err := b.g.Wait(); err != nil {
		return fmt.Errorf("bus: worker exited with error: %w", err)
	}
	return nil
}
