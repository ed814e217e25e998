package httpapi

import (
	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/index"
	"github.com/coldvault/core/pkg/index/rollout"
)

// AllocatedBucketRequest is the wire shape of allocated_bucket (v2).
type AllocatedBucketRequest struct {
	Caller   ids.UserId `json:"caller"`
	FileHash ids.Hash   `json:"file_hash"`
	FileSize uint64     `json:"file_size"`
}

// ProjectedAllowanceResponse mirrors index.ProjectedAllowance on the wire.
type ProjectedAllowanceResponse struct {
	ByteLimit               uint64 `json:"byte_limit"`
	BytesUsed               uint64 `json:"bytes_used"`
	BytesUsedAfterUpload    uint64 `json:"bytes_used_after_upload"`
	BytesUsedAfterOperation uint64 `json:"bytes_used_after_operation"`
}

func toAllowanceResponse(a index.ProjectedAllowance) ProjectedAllowanceResponse {
	return ProjectedAllowanceResponse{
		ByteLimit:               a.ByteLimit,
		BytesUsed:               a.BytesUsed,
		BytesUsedAfterUpload:    a.BytesUsedAfterUpload,
		BytesUsedAfterOperation: a.BytesUsedAfterOperation,
	}
}

// AllocatedBucketResponse is the wire shape of allocated_bucket's v2 response.
type AllocatedBucketResponse struct {
	BucketID           ids.BucketId               `json:"bucket_id"`
	ChunkSize          uint64                     `json:"chunk_size"`
	ProjectedAllowance ProjectedAllowanceResponse `json:"projected_allowance"`
}

func toAllocatedBucketResponse(r index.AllocatedBucketResult) AllocatedBucketResponse {
	return AllocatedBucketResponse{
		BucketID:           r.BucketID,
		ChunkSize:          r.ChunkSize,
		ProjectedAllowance: toAllowanceResponse(r.ProjectedAllowance),
	}
}

// AllocatedBucketRequestV1 is the wire shape of the legacy allocated_bucket (v1).
type AllocatedBucketRequestV1 struct {
	Caller   ids.UserId `json:"caller"`
	BlobHash ids.Hash   `json:"blob_hash"`
	BlobSize uint64     `json:"blob_size"`
}

// AllocatedBucketResponseV1 is the wire shape of the legacy response.
type AllocatedBucketResponseV1 struct {
	BucketID  ids.BucketId `json:"bucket_id"`
	ChunkSize uint64       `json:"chunk_size"`
}

func toAllocatedBucketResponseV1(r index.AllocatedBucketResultV1) AllocatedBucketResponseV1 {
	return AllocatedBucketResponseV1{BucketID: r.BucketID, ChunkSize: r.ChunkSize}
}

// ReferenceCountsRequest is the wire shape of reference_counts.
type ReferenceCountsRequest struct {
	Caller   ids.UserId `json:"caller"`
	FileHash ids.Hash   `json:"file_hash"`
	FileSize uint64     `json:"file_size"`
}

// ReferenceCountsResponse is the wire shape of reference_counts's response.
type ReferenceCountsResponse struct {
	CanForward         bool                       `json:"can_forward"`
	ProjectedAllowance ProjectedAllowanceResponse `json:"projected_allowance"`
}

func toReferenceCountsResponse(r index.CanForwardResult) ReferenceCountsResponse {
	return ReferenceCountsResponse{
		CanForward:         r.CanForward,
		ProjectedAllowance: toAllowanceResponse(r.ProjectedAllowance),
	}
}

// AddUserRequest is the wire shape of add_user.
type AddUserRequest struct {
	User      ids.UserId `json:"user"`
	ByteLimit uint64     `json:"byte_limit"`
}

// BucketSyncEventsRequest is what the index's reconciliation drainer POSTs
// to a bucket's c2c_sync_index endpoint; defined here so both index and
// bucket handlers share one wire shape for the same operation.
type BucketSyncEventsRequest = SyncIndexRequest

// BlobSyncEvent is one bucket->index reconciliation event on the wire. Kind
// is "blob_reference_added" or "blob_reference_removed"; Bucket is filled
// in server-side from the authenticated caller's service principal, not
// trusted from the request body.
type BlobSyncEvent struct {
	Kind       string     `json:"kind"`
	UploadedBy ids.UserId `json:"uploaded_by"`
	BlobID     ids.FileId `json:"blob_id,omitempty"`
	BlobHash   ids.Hash   `json:"blob_hash"`
	BlobSize   uint64     `json:"blob_size,omitempty"`
	BlobDeleted bool      `json:"blob_deleted,omitempty"`
}

// BlobSyncRequest is the wire shape of a bucket's outbound reconciliation
// batch push to the index.
type BlobSyncRequest struct {
	Events []BlobSyncEvent `json:"events"`
}

// BlobSyncResponse reports which of the batch's BlobReferenceAdded events
// were rejected for exceeding the uploader's allowance. IndexSyncClient.Push
// treats a non-empty list as a failed push, so the batch is re-queued; the
// bucket does not revert the rejected references.
type BlobSyncResponse struct {
	Rejected []ids.Hash `json:"rejected,omitempty"`
}

// BucketDrainRequest is the wire shape of the operator-issued request to
// enqueue a bucket for maintenance-mode drain.
type BucketDrainRequest struct {
	Bucket ids.BucketId `json:"bucket"`
}

// BucketDrainTakeResponse is the wire shape of the response to taking the
// next bucket off the rollout queue's pending list.
type BucketDrainTakeResponse struct {
	Bucket ids.BucketId `json:"bucket"`
	Taken  bool         `json:"taken"`
}

// BucketDrainResultRequest is the wire shape of an operator reporting the
// outcome of a bucket's maintenance-mode drain. Reason is ignored on success.
type BucketDrainResultRequest struct {
	Bucket  ids.BucketId `json:"bucket"`
	Success bool         `json:"success"`
	Reason  string       `json:"reason,omitempty"`
}

// FailedDrainCountResponse mirrors rollout.FailedDrainCount on the wire.
type FailedDrainCountResponse struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// RolloutMetricsResponse mirrors rollout.Metrics on the wire.
type RolloutMetricsResponse struct {
	Pending    int                        `json:"pending"`
	InProgress int                        `json:"in_progress"`
	Failed     []FailedDrainCountResponse `json:"failed,omitempty"`
}

func toRolloutMetricsResponse(m rollout.Metrics) RolloutMetricsResponse {
	resp := RolloutMetricsResponse{Pending: m.Pending, InProgress: m.InProgress}
	for _, f := range m.Failed {
		resp.Failed = append(resp.Failed, FailedDrainCountResponse{Reason: f.Reason, Count: f.Count})
	}
	return resp
}
