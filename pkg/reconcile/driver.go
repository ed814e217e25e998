package reconcile

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

// Pusher delivers one batch of events to a peer and reports whether the
// peer accepted it. A transport error or a peer-side rejection are both
// treated as failure: the batch is re-queued at the head and retried.
type Pusher[T any] func(ctx context.Context, batch []T) error

// Drainer periodically takes a batch from a Queue and pushes it to its
// peer with exponential backoff on failure, respecting the queue's FIFO
// and at-most-one-batch-in-flight invariants. It models the "periodic task
// invoked at a heartbeat cadence, idempotent if no events are pending"
// drainer described for the bucket->index direction, and is reused
// verbatim for the index->bucket direction against a per-bucket queue.
type Drainer[T any] struct {
	queue    *Queue[T]
	push     Pusher[T]
	interval time.Duration
	maxBatch int
}

// NewDrainer creates a Drainer that ticks at interval, draining up to
// maxBatch events per attempt (MaxEventsPerBatch by convention).
func NewDrainer[T any](queue *Queue[T], push Pusher[T], interval time.Duration, maxBatch int) *Drainer[T] {
	if maxBatch <= 0 {
		maxBatch = MaxEventsPerBatch
	}
	return &Drainer[T]{queue: queue, push: push, interval: interval, maxBatch: maxBatch}
}

// Run blocks until ctx is canceled, attempting a drain once per tick. A
// tick that finds nothing pending, or a batch already in flight, is a
// no-op — the drainer is idempotent when there is nothing to do.
func (d *Drainer[T]) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.tick(ctx); err != nil && ctx.Err() == nil {
				return err
			}
		}
	}
}

func (d *Drainer[T]) tick(ctx context.Context) error {
	batch, ok := d.queue.TryTakeBatch(d.maxBatch)
	if !ok {
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0 // retried for as long as ctx allows; caller cancels ctx to stop

	operation := func() error {
		return d.push(ctx, batch)
	}

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	if err != nil {
		d.queue.MarkFailure()
		return nil
	}

	d.queue.MarkSuccess()
	return nil
}

// Source adapts a queue that lives behind another type's own mutex — like
// bucketstore.Store's outbox or index.Engine's per-bucket outboxes — to the
// same drain/push/backoff loop Drainer runs against a bare Queue. Store and
// Engine don't hand out their internal *Queue[T] directly because draining
// it must happen under the same lock as every other mutation; Source lets
// them keep that encapsulation while reusing the drain loop.
type Source[T any] struct {
	Drain   func(maxBatch int) ([]T, bool)
	Ack     func()
	Requeue func()
}

// RunSourceLoop runs the same push-with-backoff-and-requeue-on-failure loop
// as Drainer.Run, against a Source instead of a bare Queue.
func RunSourceLoop[T any](ctx context.Context, src Source[T], push Pusher[T], interval time.Duration, maxBatch int) error {
	if maxBatch <= 0 {
		maxBatch = MaxEventsPerBatch
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			batch, ok := src.Drain(maxBatch)
			if !ok {
				continue
			}

			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 0

			err := backoff.Retry(func() error { return push(ctx, batch) }, backoff.WithContext(b, ctx))
			if err != nil {
				src.Requeue()
				continue
			}
			src.Ack()
		}
	}
}

// RunAll starts one Drainer per peer concurrently and blocks until ctx is
// canceled or any drainer returns a non-context error, at which point all
// drainers are stopped and the error is returned.
func RunAll(ctx context.Context, drainers ...interface{ Run(context.Context) error }) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range drainers {
		d := d
		g.Go(func() error {
			return d.Run(gctx)
		})
	}
	return g.Wait()
}
