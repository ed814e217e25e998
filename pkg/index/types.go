package index

import "github.com/coldvault/core/pkg/ids"

// UserRecord is the index's quota ledger for one user.
type UserRecord struct {
	ByteLimit uint64
	BytesUsed uint64
}

// BlobBucketEntry records which bucket currently owns bytes for a hash, its
// size, and which users reference it. The bucket assignment is stable for
// the lifetime of the hash: once the last reference is removed the entry is
// deleted and the hash is free to be reallocated, possibly elsewhere.
type BlobBucketEntry struct {
	Size    uint64
	Bucket  ids.BucketId
	UserSet map[ids.UserId]struct{}
}

// BucketRecord is the index's view of one storage shard's capacity.
type BucketRecord struct {
	ID        ids.BucketId
	UsedBytes uint64
	DataLimit uint64
	Full      bool
}

// ProjectedAllowance is the byte-accounting summary returned alongside a
// successful allocation. BytesUsedAfterUpload and BytesUsedAfterOperation
// are equal for the upload path; the names diverge to leave room for
// future operations (e.g. copy) that consume quota without transferring
// bytes.
type ProjectedAllowance struct {
	ByteLimit               uint64
	BytesUsed               uint64
	BytesUsedAfterUpload    uint64
	BytesUsedAfterOperation uint64
}

// AllocatedBucketArgs is the v2 allocation request.
type AllocatedBucketArgs struct {
	Caller   ids.UserId
	FileHash ids.Hash
	FileSize uint64
}

// AllocatedBucketResult is the v2 success payload.
type AllocatedBucketResult struct {
	BucketID          ids.BucketId
	ChunkSize         uint64
	ProjectedAllowance ProjectedAllowance
}

// AllocatedBucketArgsV1 is the legacy request shape, using blob_hash/blob_size.
type AllocatedBucketArgsV1 struct {
	Caller   ids.UserId
	BlobHash ids.Hash
	BlobSize uint64
}

// AllocatedBucketResultV1 is the legacy success payload, dropping
// byte-accounting fields.
type AllocatedBucketResultV1 struct {
	BucketID  ids.BucketId
	ChunkSize uint64
}

// ToV2Args translates a legacy request into the v2 shape.
func (a AllocatedBucketArgsV1) ToV2Args() AllocatedBucketArgs {
	return AllocatedBucketArgs{Caller: a.Caller, FileHash: a.BlobHash, FileSize: a.BlobSize}
}

// ProjectedAllowanceV2ToV1 drops a v2 result's byte-accounting fields to
// produce the legacy response shape.
func ProjectedAllowanceV2ToV1(v2 AllocatedBucketResult) AllocatedBucketResultV1 {
	return AllocatedBucketResultV1{BucketID: v2.BucketID, ChunkSize: v2.ChunkSize}
}

// CanForwardResult is the pure projection returned by ReferenceCounts: what
// would happen to the user's allowance if they uploaded file_size bytes of
// file_hash, without mutating any state.
type CanForwardResult struct {
	CanForward bool
	ProjectedAllowance ProjectedAllowance
}

// BlobReferenceAdded mirrors the bucket-side event of the same name,
// received over the bucket->index sync stream.
type BlobReferenceAdded struct {
	Bucket     ids.BucketId
	UploadedBy ids.UserId
	BlobID     ids.FileId
	BlobHash   ids.Hash
	BlobSize   uint64
}

// BlobReferenceRemoved mirrors the bucket-side event of the same name.
type BlobReferenceRemoved struct {
	Bucket      ids.BucketId
	UploadedBy  ids.UserId
	BlobHash    ids.Hash
	BlobDeleted bool
}

// BlobReferenceRejected is returned to the bucket when applying a
// BlobReferenceAdded would exceed the uploader's allowance; the bucket is
// expected to revert the reference it optimistically created.
type BlobReferenceRejected struct {
	Bucket   ids.BucketId
	BlobHash ids.Hash
}
