package index

import (
	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/reconcile"
)

// Snapshot is the index's full logical state, used for process restart and
// for seeding a durable indexstore backend.
type Snapshot struct {
	Users       map[ids.UserId]UserRecord
	BlobBuckets map[ids.Hash]BlobBucketSnapshot
	Buckets     []BucketRecord
	Outboxes    map[ids.BucketId][]reconcile.IndexEvent
}

// BlobBucketSnapshot is BlobBucketEntry with its UserSet flattened to a
// slice, so a durable indexstore backend can serialize it without reaching
// into the engine's internal map representation.
type BlobBucketSnapshot struct {
	Size    uint64
	Bucket  ids.BucketId
	UserSet []ids.UserId
}

// Snapshot captures the engine's full in-memory state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	users := make(map[ids.UserId]UserRecord, len(e.users))
	for id, rec := range e.users {
		users[id] = *rec
	}

	blobBuckets := make(map[ids.Hash]BlobBucketSnapshot, len(e.blobBuckets))
	for h, entry := range e.blobBuckets {
		userSet := make([]ids.UserId, 0, len(entry.UserSet))
		for u := range entry.UserSet {
			userSet = append(userSet, u)
		}
		blobBuckets[h] = BlobBucketSnapshot{Size: entry.Size, Bucket: entry.Bucket, UserSet: userSet}
	}

	outboxes := make(map[ids.BucketId][]reconcile.IndexEvent, len(e.outboxes))
	for id, q := range e.outboxes {
		outboxes[id] = q.Peek()
	}

	return Snapshot{
		Users:       users,
		BlobBuckets: blobBuckets,
		Buckets:     e.buckets.snapshot(),
		Outboxes:    outboxes,
	}
}

// Restore replaces the engine's in-memory state with snap.
func (e *Engine) Restore(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.users = make(map[ids.UserId]*UserRecord, len(snap.Users))
	for id, rec := range snap.Users {
		r := rec
		e.users[id] = &r
	}

	e.blobBuckets = make(map[ids.Hash]*BlobBucketEntry, len(snap.BlobBuckets))
	for h, entry := range snap.BlobBuckets {
		userSet := make(map[ids.UserId]struct{}, len(entry.UserSet))
		for _, u := range entry.UserSet {
			userSet[u] = struct{}{}
		}
		e.blobBuckets[h] = &BlobBucketEntry{Size: entry.Size, Bucket: entry.Bucket, UserSet: userSet}
	}

	e.buckets = newBuckets()
	e.buckets.restore(snap.Buckets)

	e.outboxes = make(map[ids.BucketId]*reconcile.Queue[reconcile.IndexEvent], len(snap.Outboxes))
	for id, pending := range snap.Outboxes {
		e.outboxes[id] = reconcile.NewQueueFrom(pending)
	}
}
