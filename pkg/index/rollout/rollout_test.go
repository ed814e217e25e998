package rollout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/index/rollout"
)

func TestQueueEnqueueAndTakeNext(t *testing.T) {
	q := rollout.NewQueue()
	a, b := ids.NewBucketId(), ids.NewBucketId()
	q.Enqueue(a)
	q.Enqueue(b)

	got, ok := q.TryTakeNext()
	require.True(t, ok)
	assert.Equal(t, a, got)
	assert.True(t, q.IsInProgress(a))
	assert.Equal(t, 1, q.CountInProgress())
}

func TestQueueTakeNextEmptyReturnsFalse(t *testing.T) {
	q := rollout.NewQueue()
	_, ok := q.TryTakeNext()
	assert.False(t, ok)
}

func TestQueueMarkSuccessClearsInProgress(t *testing.T) {
	q := rollout.NewQueue()
	bucket := ids.NewBucketId()
	q.Enqueue(bucket)
	q.TryTakeNext()

	q.MarkSuccess(bucket)
	assert.False(t, q.IsInProgress(bucket))
	assert.Equal(t, 0, q.CountInProgress())
}

func TestQueueMarkFailureRecordsReasonAndClearsInProgress(t *testing.T) {
	q := rollout.NewQueue()
	bucket := ids.NewBucketId()
	q.Enqueue(bucket)
	q.TryTakeNext()

	q.MarkFailure(bucket, "upload still in flight")
	assert.False(t, q.IsInProgress(bucket))

	m := q.Metrics()
	require.Len(t, m.Failed, 1)
	assert.Equal(t, "upload still in flight", m.Failed[0].Reason)
	assert.Equal(t, 1, m.Failed[0].Count)
}

func TestQueueMetricsGroupsFailuresByReason(t *testing.T) {
	q := rollout.NewQueue()
	b1, b2, b3 := ids.NewBucketId(), ids.NewBucketId(), ids.NewBucketId()
	for _, b := range []ids.BucketId{b1, b2, b3} {
		q.Enqueue(b)
		q.TryTakeNext()
	}
	q.MarkFailure(b1, "timeout")
	q.MarkFailure(b2, "timeout")
	q.MarkFailure(b3, "disk full")

	m := q.Metrics()
	assert.Equal(t, 0, m.Pending)
	assert.Equal(t, 0, m.InProgress)
	require.Len(t, m.Failed, 2)
	assert.Equal(t, "disk full", m.Failed[0].Reason)
	assert.Equal(t, 1, m.Failed[0].Count)
	assert.Equal(t, "timeout", m.Failed[1].Reason)
	assert.Equal(t, 2, m.Failed[1].Count)
}

func TestQueueRemoveClearsPendingInProgressAndFailed(t *testing.T) {
	q := rollout.NewQueue()
	bucket := ids.NewBucketId()
	other := ids.NewBucketId()
	q.Enqueue(bucket)
	q.Enqueue(other)

	q.Remove(bucket)

	got, ok := q.TryTakeNext()
	require.True(t, ok)
	assert.Equal(t, other, got)

	_, ok = q.TryTakeNext()
	assert.False(t, ok)
}
