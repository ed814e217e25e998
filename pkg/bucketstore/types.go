package bucketstore

import (
	"time"

	"github.com/coldvault/core/pkg/ids"
)

// File is a logical upload: an owner, a content hash, and the set of
// accessors granted view access. Many Files may share one underlying blob.
type File struct {
	UploadedBy ids.UserId
	Created    time.Time
	Accessors  map[ids.AccessorId]struct{}
	Hash       ids.Hash
	MimeType   string
}

// PendingFile is an in-progress chunked assembly. It becomes a File when its
// last chunk lands and the assembled bytes verify against the declared hash.
type PendingFile struct {
	UploadedBy      ids.UserId
	Created         time.Time
	Hash            ids.Hash
	MimeType        string
	Accessors       map[ids.AccessorId]struct{}
	ChunkSize       uint64
	TotalSize       uint64
	RemainingChunks map[uint32]struct{}
	Bytes           []byte
}

// chunkCount returns the number of chunks a total_size/chunk_size pair splits into.
func chunkCount(totalSize, chunkSize uint64) uint32 {
	return uint32((totalSize + chunkSize - 1) / chunkSize)
}

// expectedChunkLen returns the number of bytes the chunk at index should carry.
// Every chunk is chunkSize except the last, which takes the remainder.
func expectedChunkLen(index uint32, totalSize, chunkSize uint64) int {
	count := chunkCount(totalSize, chunkSize)
	if index != count-1 {
		return int(chunkSize)
	}
	rem := (totalSize-1)%chunkSize + 1
	return int(rem)
}

// PutChunkArgs carries one chunk of an upload.
type PutChunkArgs struct {
	UploadedBy ids.UserId
	FileId     ids.FileId
	Hash       ids.Hash
	MimeType   string
	Accessors  []ids.AccessorId
	ChunkIndex uint32
	ChunkSize  uint64
	TotalSize  uint64
	Bytes      []byte
	Now        time.Time
}

// PutChunkResult is the outcome of accepting one chunk.
type PutChunkResult struct {
	// FileCompleted is true once the final chunk has landed and verified.
	FileCompleted bool

	// FileAdded carries the BlobReferenceAdded event, but only on the call
	// that created the PendingFile — one event per logical upload.
	FileAdded *BlobReferenceAdded
}

// BlobReferenceAdded carries an upload's declared size. It is returned in
// PutChunkResult.FileAdded by the call that creates the PendingFile, and
// queued for the index as a bucket->index event when the File completes.
type BlobReferenceAdded struct {
	UploadedBy ids.UserId
	BlobId     ids.FileId
	BlobHash   ids.Hash
	BlobSize   uint64
}

// BlobReferenceRemoved is the bucket->index event emitted when a File is
// removed, either explicitly or via cascade.
type BlobReferenceRemoved struct {
	UploadedBy  ids.UserId
	BlobHash    ids.Hash
	BlobDeleted bool
}

// FileRemoved describes one file removed by remove_file, remove_accessor, or
// a UserRemoved cascade.
type FileRemoved struct {
	FileId      ids.FileId
	UploadedBy  ids.UserId
	Hash        ids.Hash
	BlobDeleted bool
}

// Metrics is a read-only snapshot of the bucket's aggregate state, returned
// by the metrics() query operation.
type Metrics struct {
	FileCount        int
	PendingFileCount int
	BlobCount        int
	BytesUsed        uint64
	DataLimitBytes   uint64
}
