package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/core/pkg/reconcile"
)

func TestQueueEnqueueAndTakeBatch(t *testing.T) {
	q := reconcile.NewQueue[string]()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")
	assert.Equal(t, 3, q.Len())

	batch, ok := q.TryTakeBatch(2)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, batch)
	assert.Equal(t, 1, q.Len())
	assert.True(t, q.IsSending())
}

func TestQueueNoConcurrentBatches(t *testing.T) {
	q := reconcile.NewQueue[int]()
	q.EnqueueMany([]int{1, 2, 3})

	_, ok := q.TryTakeBatch(10)
	require.True(t, ok)

	_, ok = q.TryTakeBatch(10)
	assert.False(t, ok, "a second batch must not be taken while one is in flight")
}

func TestQueueMarkSuccessClearsInFlight(t *testing.T) {
	q := reconcile.NewQueue[int]()
	q.EnqueueMany([]int{1, 2})
	q.TryTakeBatch(10)
	q.MarkSuccess()

	assert.False(t, q.IsSending())

	// Once acked nothing is in flight, and with pending empty there is no
	// new batch to take.
	_, ok := q.TryTakeBatch(10)
	assert.False(t, ok)
}

func TestQueueMarkFailureRequeuesAtHead(t *testing.T) {
	q := reconcile.NewQueue[int]()
	q.EnqueueMany([]int{1, 2})
	batch, ok := q.TryTakeBatch(1)
	require.True(t, ok)
	assert.Equal(t, []int{1}, batch)

	q.MarkFailure()

	assert.False(t, q.IsSending())
	assert.Equal(t, 2, q.Len())

	// The failed batch must come back out first, preserving order.
	batch2, ok := q.TryTakeBatch(10)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, batch2)
}

func TestQueueTakeBatchEmptyReturnsFalse(t *testing.T) {
	q := reconcile.NewQueue[int]()
	_, ok := q.TryTakeBatch(10)
	assert.False(t, ok)
}
