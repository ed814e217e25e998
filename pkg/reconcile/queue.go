// Package reconcile implements the bidirectional event-sync protocol that
// connects an index to its buckets: per-peer FIFO queues, batching at
// MAX_EVENTS_TO_SYNC_PER_BATCH, at-least-once delivery with an in-flight
// marker, and backoff retry on transient push failure.
package reconcile

import "sync"

// MaxEventsPerBatch is the nominal cap on events sent in one sync call
// (spec §6 MAX_EVENTS_TO_SYNC_PER_BATCH).
const MaxEventsPerBatch = 10_000

// Queue is a FIFO of pending outbound events for one peer, with an
// at-most-one-batch-in-flight marker. Both directions of the protocol — a
// bucket's IndexSyncState and the index's per-bucket BucketSyncState — are
// built on the same shape, generic over the event payload type.
type Queue[T any] struct {
	mu        sync.Mutex
	pending   []T
	inFlight  []T
	isSending bool
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Enqueue appends an event to the tail of the pending list. This is called
// synchronously inside the mutation that produced the event, before any
// outbound call is attempted — a crash after this point but before the
// event is sent does not lose it.
func (q *Queue[T]) Enqueue(event T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, event)
}

// EnqueueMany appends a batch of events at once, preserving order.
func (q *Queue[T]) EnqueueMany(events []T) {
	if len(events) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, events...)
}

// TryTakeBatch marks up to maxBatch pending events as in-flight and returns
// them, provided no batch is already in flight. Returns ok=false if a batch
// is already in flight or there is nothing pending.
func (q *Queue[T]) TryTakeBatch(maxBatch int) (batch []T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.isSending || len(q.pending) == 0 {
		return nil, false
	}

	n := len(q.pending)
	if n > maxBatch {
		n = maxBatch
	}
	q.inFlight = append([]T(nil), q.pending[:n]...)
	q.pending = q.pending[n:]
	q.isSending = true
	return q.inFlight, true
}

// MarkSuccess clears the in-flight marker after a batch was accepted by the peer.
func (q *Queue[T]) MarkSuccess() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight = nil
	q.isSending = false
}

// MarkFailure re-queues the in-flight batch at the head of pending,
// preserving per-bucket ordering, and clears the in-flight marker so the
// next drain attempt can retry.
func (q *Queue[T]) MarkFailure() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.inFlight) > 0 {
		q.pending = append(append([]T(nil), q.inFlight...), q.pending...)
	}
	q.inFlight = nil
	q.isSending = false
}

// Len returns the number of events currently pending (not counting any batch in flight).
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// IsSending reports whether a batch is currently in flight for this peer.
func (q *Queue[T]) IsSending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.isSending
}

// Peek returns a copy of all queued events in delivery order, in-flight
// events first, without disturbing queue state. Used by snapshot code to
// persist queue contents across a restart.
func (q *Queue[T]) Peek() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, 0, len(q.inFlight)+len(q.pending))
	out = append(out, q.inFlight...)
	out = append(out, q.pending...)
	return out
}

// NewQueueFrom creates a queue pre-loaded with pending events, in order,
// with nothing in flight. Used to restore a queue from a snapshot.
func NewQueueFrom[T any](pending []T) *Queue[T] {
	q := &Queue[T]{}
	if len(pending) > 0 {
		q.pending = append([]T(nil), pending...)
	}
	return q
}
