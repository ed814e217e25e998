// Package rollout is a FIFO pending/in-progress/failed queue for rolling
// operations over the bucket directory, one operator enqueue at a time.
//
// It is adapted from canisters_requiring_upgrade.rs's WASM-upgrade queue
// (pending/in_progress/failed over a set of canister ids); the actual
// WASM upgrade mechanics are out of scope here, but the queue shape is
// reused verbatim and repurposed to track bucket maintenance-mode
// rollout — draining a bucket of in-flight uploads before it is taken
// out of allocation rotation for decommissioning — keyed by bucket id
// instead of canister id and version pair.
package rollout

import (
	"sort"
	"sync"

	"github.com/coldvault/core/pkg/ids"
)

// FailedDrain records one bucket whose maintenance-mode drain did not
// complete, with the operator-supplied reason.
type FailedDrain struct {
	Bucket ids.BucketId
	Reason string
}

// Queue tracks which buckets are pending maintenance-mode drain,
// currently draining, and which drains failed. Safe for concurrent use.
type Queue struct {
	mu         sync.Mutex
	pending    []ids.BucketId
	inProgress map[ids.BucketId]struct{}
	failed     []FailedDrain
}

// NewQueue creates an empty rollout queue.
func NewQueue() *Queue {
	return &Queue{inProgress: make(map[ids.BucketId]struct{})}
}

// Enqueue appends a bucket to the tail of the pending list, requesting it
// be drained for maintenance mode. A bucket already pending, in progress,
// or previously failed can be enqueued again; duplicates are harmless —
// TryTakeNext only ever hands out a bucket actually at the head.
func (q *Queue) Enqueue(bucket ids.BucketId) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, bucket)
}

// TryTakeNext pops the bucket at the head of pending and marks it in
// progress. Returns ok=false when nothing is pending.
func (q *Queue) TryTakeNext() (bucket ids.BucketId, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return ids.BucketId{}, false
	}
	bucket = q.pending[0]
	q.pending = q.pending[1:]
	q.inProgress[bucket] = struct{}{}
	return bucket, true
}

// MarkSuccess clears a bucket's in-progress marker once its drain
// completes and it is safe to decommission.
func (q *Queue) MarkSuccess(bucket ids.BucketId) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inProgress, bucket)
}

// MarkFailure clears a bucket's in-progress marker and records it as
// failed with reason, so an operator can inspect Metrics and retry.
func (q *Queue) MarkFailure(bucket ids.BucketId, reason string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inProgress, bucket)
	q.failed = append(q.failed, FailedDrain{Bucket: bucket, Reason: reason})
}

// IsInProgress reports whether bucket is currently draining.
func (q *Queue) IsInProgress(bucket ids.BucketId) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.inProgress[bucket]
	return ok
}

// CountInProgress returns the number of buckets currently draining.
func (q *Queue) CountInProgress() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inProgress)
}

// Remove cancels a pending or in-progress drain request for bucket and
// clears any failure record for it — an operator decided the bucket
// should stay in rotation after all.
func (q *Queue) Remove(bucket ids.BucketId) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.pending[:0]
	for _, b := range q.pending {
		if b != bucket {
			pending = append(pending, b)
		}
	}
	q.pending = pending
	delete(q.inProgress, bucket)

	failed := q.failed[:0]
	for _, f := range q.failed {
		if f.Bucket != bucket {
			failed = append(failed, f)
		}
	}
	q.failed = failed
}

// FailedDrainCount groups failed drains sharing a reason, the rollout
// analog of the original's from_version/to_version failure grouping.
type FailedDrainCount struct {
	Reason string
	Count  int
}

// Metrics summarizes queue state for operator visibility.
type Metrics struct {
	Pending    int
	InProgress int
	Failed     []FailedDrainCount
}

// Metrics reports the current queue depth and a reason-grouped summary
// of failed drains, sorted by reason for stable output.
func (q *Queue) Metrics() Metrics {
	q.mu.Lock()
	defer q.mu.Unlock()

	counts := make(map[string]int)
	for _, f := range q.failed {
		counts[f.Reason]++
	}
	failed := make([]FailedDrainCount, 0, len(counts))
	for reason, count := range counts {
		failed = append(failed, FailedDrainCount{Reason: reason, Count: count})
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Reason < failed[j].Reason })

	return Metrics{
		Pending:    len(q.pending),
		InProgress: len(q.inProgress),
		Failed:     failed,
	}
}
