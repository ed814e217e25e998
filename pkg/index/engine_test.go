package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/index"
)

func randomHash() ids.Hash {
	return ids.HashBytes([]byte(ids.NewFileId().String()))
}

// Scenario 6: quota gating.
func TestAllocatedBucketQuotaGating(t *testing.T) {
	e := index.NewEngine(nil)
	bucket := ids.NewBucketId()
	e.RegisterBucket(bucket, 10_000)

	user := ids.NewUserId()
	e.AddUser(user, 1000)

	// Simulate existing usage of 900 bytes against some other hash.
	existingHash := randomHash()
	_, err := e.AddBlobReference(index.BlobReferenceAdded{
		Bucket: bucket, UploadedBy: user, BlobID: ids.NewFileId(),
		BlobHash: existingHash, BlobSize: 900,
	})
	require.NoError(t, err)

	novelHash := randomHash()
	_, err = e.AllocatedBucket(index.AllocatedBucketArgs{Caller: user, FileHash: novelHash, FileSize: 200})
	require.Error(t, err)
	idxErr, ok := err.(*index.IndexError)
	require.True(t, ok)
	assert.Equal(t, index.ErrAllowanceExceeded, idxErr.Code)

	// Same size request against the hash already referenced succeeds with
	// no additional charge.
	result, err := e.AllocatedBucket(index.AllocatedBucketArgs{Caller: user, FileHash: existingHash, FileSize: 900})
	require.NoError(t, err)
	assert.Equal(t, uint64(900), result.ProjectedAllowance.BytesUsedAfterOperation)
}

func TestAllocatedBucketUserNotFound(t *testing.T) {
	e := index.NewEngine(nil)
	_, err := e.AllocatedBucket(index.AllocatedBucketArgs{Caller: ids.NewUserId(), FileHash: randomHash(), FileSize: 10})
	require.Error(t, err)
	idxErr, ok := err.(*index.IndexError)
	require.True(t, ok)
	assert.Equal(t, index.ErrUserNotFound, idxErr.Code)
}

func TestAllocatedBucketUnavailableWhenNoCapacity(t *testing.T) {
	e := index.NewEngine(nil)
	bucket := ids.NewBucketId()
	e.RegisterBucket(bucket, 100)

	user := ids.NewUserId()
	e.AddUser(user, 1_000_000)

	_, err := e.AllocatedBucket(index.AllocatedBucketArgs{Caller: user, FileHash: randomHash(), FileSize: 200})
	require.Error(t, err)
	idxErr, ok := err.(*index.IndexError)
	require.True(t, ok)
	assert.Equal(t, index.ErrBucketUnavailable, idxErr.Code)
}

func TestAllocatedBucketV1V2Compatibility(t *testing.T) {
	e := index.NewEngine(nil)
	bucket := ids.NewBucketId()
	e.RegisterBucket(bucket, 10_000)
	user := ids.NewUserId()
	e.AddUser(user, 1000)

	hash := randomHash()
	v1, err := e.AllocatedBucketV1(index.AllocatedBucketArgsV1{Caller: user, BlobHash: hash, BlobSize: 500})
	require.NoError(t, err)
	assert.Equal(t, bucket, v1.BucketID)
	assert.Equal(t, uint64(index.DefaultChunkSize), v1.ChunkSize)
}

func TestAddBlobReferenceIdempotentReplay(t *testing.T) {
	e := index.NewEngine(nil)
	bucket := ids.NewBucketId()
	e.RegisterBucket(bucket, 10_000)
	user := ids.NewUserId()
	e.AddUser(user, 1000)

	event := index.BlobReferenceAdded{Bucket: bucket, UploadedBy: user, BlobID: ids.NewFileId(), BlobHash: randomHash(), BlobSize: 300}
	_, err := e.AddBlobReference(event)
	require.NoError(t, err)
	used, err := e.UserBytesUsed(user)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), used)

	// Replay: bytes_used must not double.
	_, err = e.AddBlobReference(event)
	require.NoError(t, err)
	used, err = e.UserBytesUsed(user)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), used)
}

func TestAddBlobReferenceRejectsOverAllowance(t *testing.T) {
	e := index.NewEngine(nil)
	bucket := ids.NewBucketId()
	e.RegisterBucket(bucket, 10_000)
	user := ids.NewUserId()
	e.AddUser(user, 100)

	rejected, err := e.AddBlobReference(index.BlobReferenceAdded{
		Bucket: bucket, UploadedBy: user, BlobID: ids.NewFileId(), BlobHash: randomHash(), BlobSize: 200,
	})
	require.NoError(t, err)
	require.NotNil(t, rejected)
	assert.Equal(t, bucket, rejected.Bucket)

	used, err := e.UserBytesUsed(user)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), used)
}

func TestRemoveBlobReferenceIdempotentReplay(t *testing.T) {
	e := index.NewEngine(nil)
	bucket := ids.NewBucketId()
	e.RegisterBucket(bucket, 10_000)
	user := ids.NewUserId()
	e.AddUser(user, 1000)

	hash := randomHash()
	_, err := e.AddBlobReference(index.BlobReferenceAdded{Bucket: bucket, UploadedBy: user, BlobID: ids.NewFileId(), BlobHash: hash, BlobSize: 400})
	require.NoError(t, err)

	err = e.RemoveBlobReference(index.BlobReferenceRemoved{Bucket: bucket, UploadedBy: user, BlobHash: hash, BlobDeleted: true})
	require.NoError(t, err)
	used, err := e.UserBytesUsed(user)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), used)

	// Deleting an already-removed reference is a no-op, not an error.
	err = e.RemoveBlobReference(index.BlobReferenceRemoved{Bucket: bucket, UploadedBy: user, BlobHash: hash, BlobDeleted: true})
	require.NoError(t, err)
}

func TestRemoveUserCascadesUserRemovedEvent(t *testing.T) {
	e := index.NewEngine(nil)
	bucket := ids.NewBucketId()
	e.RegisterBucket(bucket, 10_000)
	user := ids.NewUserId()
	e.AddUser(user, 1000)

	// AddUser already enqueued a UserAdded event; drain it first.
	_, ok := e.DrainOutbox(bucket, 10)
	require.True(t, ok)
	e.AckOutbox(bucket)

	e.RemoveUser(user)
	batch, ok := e.DrainOutbox(bucket, 10)
	require.True(t, ok)
	require.Len(t, batch, 1)
	assert.Equal(t, user, batch[0].UserId)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e := index.NewEngine(nil)
	bucket := ids.NewBucketId()
	e.RegisterBucket(bucket, 10_000)
	user := ids.NewUserId()
	e.AddUser(user, 1000)
	hash := randomHash()
	_, err := e.AddBlobReference(index.BlobReferenceAdded{Bucket: bucket, UploadedBy: user, BlobID: ids.NewFileId(), BlobHash: hash, BlobSize: 500})
	require.NoError(t, err)

	snap := e.Snapshot()

	restored := index.NewEngine(nil)
	restored.Restore(snap)

	used, err := restored.UserBytesUsed(user)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), used)

	result, err := restored.AllocatedBucket(index.AllocatedBucketArgs{Caller: user, FileHash: hash, FileSize: 500})
	require.NoError(t, err)
	assert.Equal(t, bucket, result.BucketID)
}

func TestBucketDrainExcludesBucketFromFreshAllocation(t *testing.T) {
	e := index.NewEngine(nil)
	draining := ids.NewBucketId()
	spare := ids.NewBucketId()
	e.RegisterBucket(draining, 10_000)
	e.RegisterBucket(spare, 10_000)

	user := ids.NewUserId()
	e.AddUser(user, 10_000)

	e.EnqueueBucketDrain(draining)
	taken, ok := e.TryTakeNextBucketDrain()
	require.True(t, ok)
	assert.Equal(t, draining, taken)

	// With draining in progress, a fresh allocation must land on spare.
	result, err := e.AllocatedBucket(index.AllocatedBucketArgs{Caller: user, FileHash: randomHash(), FileSize: 100})
	require.NoError(t, err)
	assert.Equal(t, spare, result.BucketID)

	e.MarkBucketDrainFailure(draining, "upload still in flight")
	metrics := e.RolloutMetrics()
	assert.Equal(t, 0, metrics.Pending)
	assert.Equal(t, 0, metrics.InProgress)
	require.Len(t, metrics.Failed, 1)
	assert.Equal(t, "upload still in flight", metrics.Failed[0].Reason)
}
