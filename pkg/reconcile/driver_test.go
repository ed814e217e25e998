package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/core/pkg/reconcile"
)

func TestDrainerPushesAndAcksOnSuccess(t *testing.T) {
	q := reconcile.NewQueue[int]()
	q.EnqueueMany([]int{1, 2, 3})

	var pushed atomic.Int32
	push := func(ctx context.Context, batch []int) error {
		pushed.Add(int32(len(batch)))
		return nil
	}

	d := reconcile.NewDrainer(q, push, 5*time.Millisecond, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, int32(3), pushed.Load())
	assert.Equal(t, 0, q.Len())
	assert.False(t, q.IsSending())
}

func TestDrainerNoOpWhenQueueEmpty(t *testing.T) {
	q := reconcile.NewQueue[int]()
	called := false
	push := func(ctx context.Context, batch []int) error {
		called = true
		return nil
	}

	d := reconcile.NewDrainer(q, push, 5*time.Millisecond, 10)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_ = d.Run(ctx)
	assert.False(t, called)
}

func TestRunSourceLoopDrainsThroughClosures(t *testing.T) {
	var mu sync.Mutex
	pending := []int{1, 2, 3}
	acked := false

	src := reconcile.Source[int]{
		Drain: func(maxBatch int) ([]int, bool) {
			mu.Lock()
			defer mu.Unlock()
			if len(pending) == 0 {
				return nil, false
			}
			batch := pending
			pending = nil
			return batch, true
		},
		Ack: func() {
			mu.Lock()
			defer mu.Unlock()
			acked = true
		},
		Requeue: func() {
			mu.Lock()
			defer mu.Unlock()
			pending = []int{1, 2, 3}
		},
	}

	var pushed atomic.Int32
	push := func(ctx context.Context, batch []int) error {
		pushed.Add(int32(len(batch)))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := reconcile.RunSourceLoop(ctx, src, push, 5*time.Millisecond, 10)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, int32(3), pushed.Load())
	mu.Lock()
	assert.True(t, acked)
	mu.Unlock()
}

func TestRunSourceLoopRequeuesOnPushFailure(t *testing.T) {
	var mu sync.Mutex
	pending := []int{1}
	requeued := false

	src := reconcile.Source[int]{
		Drain: func(maxBatch int) ([]int, bool) {
			mu.Lock()
			defer mu.Unlock()
			if len(pending) == 0 {
				return nil, false
			}
			batch := pending
			pending = nil
			return batch, true
		},
		Ack: func() {},
		Requeue: func() {
			mu.Lock()
			defer mu.Unlock()
			requeued = true
		},
	}

	push := func(ctx context.Context, batch []int) error {
		return errors.New("boom")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := reconcile.RunSourceLoop(ctx, src, push, 5*time.Millisecond, 10)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	assert.True(t, requeued)
	mu.Unlock()
}
