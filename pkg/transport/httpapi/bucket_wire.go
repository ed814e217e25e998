package httpapi

import (
	"github.com/coldvault/core/pkg/bucketstore"
	"github.com/coldvault/core/pkg/ids"
)

// UploadChunkRequest is the wire shape of upload_chunk (§6).
type UploadChunkRequest struct {
	UploadedBy ids.UserId       `json:"uploaded_by"`
	FileID     ids.FileId       `json:"file_id"`
	Hash       ids.Hash         `json:"hash"`
	MimeType   string           `json:"mime_type"`
	Accessors  []ids.AccessorId `json:"accessors,omitempty"`
	ChunkIndex uint32           `json:"chunk_index"`
	ChunkSize  uint64           `json:"chunk_size"`
	TotalSize  uint64           `json:"total_size"`
	Bytes      []byte           `json:"bytes"`
}

// PutChunkResultResponse is the wire shape of PutChunkResult.
type PutChunkResultResponse struct {
	FileCompleted bool                             `json:"file_completed"`
	FileAdded     *bucketstore.BlobReferenceAdded  `json:"file_added,omitempty"`
}

// DeleteFilesRequest is the wire shape of delete_files.
type DeleteFilesRequest struct {
	FileIDs []ids.FileId `json:"file_ids"`
}

// DeleteFileFailure names one file that could not be deleted and why.
type DeleteFileFailure struct {
	FileID ids.FileId `json:"file_id"`
	Reason string     `json:"reason"` // "NotFound" | "NotAuthorized"
}

// DeleteFilesResponse is the wire shape of delete_files's response.
type DeleteFilesResponse struct {
	Success  []ids.FileId        `json:"success"`
	Failures []DeleteFileFailure `json:"failures,omitempty"`
}

// SyncIndexEvent is one index->bucket reconciliation event on the wire.
// Kind is one of "user_added", "user_removed", "accessor_removed"; exactly
// one of UserID/AccessorID is populated, matching the kind.
type SyncIndexEvent struct {
	Kind       string          `json:"kind"`
	UserID     ids.UserId      `json:"user_id,omitempty"`
	AccessorID ids.AccessorId  `json:"accessor_id,omitempty"`
}

// SyncIndexRequest is the wire shape of c2c_sync_index's request: an
// ordered batch of index->bucket events, preserving the FIFO order the
// index's per-bucket outbox enqueued them in.
type SyncIndexRequest struct {
	Events []SyncIndexEvent `json:"events"`
}

// SyncIndexResponse is the wire shape of c2c_sync_index's response.
type SyncIndexResponse struct {
	FilesRemoved []bucketstore.FileRemoved `json:"files_removed"`
}

// BucketMetricsResponse is the wire shape of the bucket's metrics() query.
type BucketMetricsResponse struct {
	FileCount        int    `json:"file_count"`
	PendingFileCount int    `json:"pending_file_count"`
	BlobCount        int    `json:"blob_count"`
	BytesUsed        uint64 `json:"bytes_used"`
	DataLimitBytes   uint64 `json:"data_limit_bytes"`
}

func toMetricsResponse(m bucketstore.Metrics) BucketMetricsResponse {
	return BucketMetricsResponse{
		FileCount:        m.FileCount,
		PendingFileCount: m.PendingFileCount,
		BlobCount:        m.BlobCount,
		BytesUsed:        m.BytesUsed,
		DataLimitBytes:   m.DataLimitBytes,
	}
}

// GetFileResponse is the wire shape of the bucket's get() query.
type GetFileResponse struct {
	UploadedBy ids.UserId       `json:"uploaded_by"`
	Hash       ids.Hash         `json:"hash"`
	MimeType   string           `json:"mime_type"`
	Accessors  []ids.AccessorId `json:"accessors"`
}

func toGetFileResponse(f bucketstore.File) GetFileResponse {
	accessors := make([]ids.AccessorId, 0, len(f.Accessors))
	for a := range f.Accessors {
		accessors = append(accessors, a)
	}
	return GetFileResponse{
		UploadedBy: f.UploadedBy,
		Hash:       f.Hash,
		MimeType:   f.MimeType,
		Accessors:  accessors,
	}
}
