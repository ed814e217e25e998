package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/index"
	"github.com/coldvault/core/pkg/reconcile"
)

func TestSnapshotRowsRoundTrip(t *testing.T) {
	user1, user2 := ids.NewUserId(), ids.NewUserId()
	bucket := ids.NewBucketId()
	hash := ids.HashBytes([]byte("chunk"))
	accessor := ids.NewAccessorId()

	snap := index.Snapshot{
		Users: map[ids.UserId]index.UserRecord{
			user1: {ByteLimit: 10, BytesUsed: 1},
			user2: {ByteLimit: 20, BytesUsed: 2},
		},
		Buckets: []index.BucketRecord{
			{ID: bucket, UsedBytes: 100, DataLimit: 1000, Full: false},
		},
		BlobBuckets: map[ids.Hash]index.BlobBucketSnapshot{
			hash: {Size: 4096, Bucket: bucket, UserSet: []ids.UserId{user1, user2}},
		},
		Outboxes: map[ids.BucketId][]reconcile.IndexEvent{
			bucket: {
				reconcile.NewUserAddedEvent(user1),
				reconcile.NewUserRemovedEvent(user2),
				reconcile.NewAccessorRemovedEvent(accessor),
			},
		},
	}

	users, buckets, blobBuckets, outbox := snapshotToRows(snap)
	require.Len(t, users, 2)
	require.Len(t, buckets, 1)
	require.Len(t, blobBuckets, 1)
	require.Len(t, outbox, 3)

	got, err := rowsToSnapshot(users, buckets, blobBuckets, outbox)
	require.NoError(t, err)

	assert.Equal(t, snap.Users, got.Users)
	assert.Equal(t, snap.Buckets, got.Buckets)
	assert.Equal(t, snap.Outboxes, got.Outboxes)

	require.Contains(t, got.BlobBuckets, hash)
	gotEntry := got.BlobBuckets[hash]
	assert.Equal(t, snap.BlobBuckets[hash].Size, gotEntry.Size)
	assert.Equal(t, snap.BlobBuckets[hash].Bucket, gotEntry.Bucket)
	assert.ElementsMatch(t, snap.BlobBuckets[hash].UserSet, gotEntry.UserSet)
}

func TestRowsToSnapshotEmptyInput(t *testing.T) {
	snap, err := rowsToSnapshot(nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.Buckets)
	assert.Empty(t, snap.BlobBuckets)
	assert.Empty(t, snap.Outboxes)
}
