package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for bucket and index operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Identifier attributes
	// ========================================================================
	AttrUserID     = "storage.user_id"
	AttrAccessorID = "storage.accessor_id"
	AttrFileID     = "storage.file_id"
	AttrBucketID   = "storage.bucket_id"
	AttrHash       = "storage.hash"

	// ========================================================================
	// Bucket content-store attributes
	// ========================================================================
	AttrChunkIndex = "bucket.chunk_index"
	AttrChunkSize  = "bucket.chunk_size"
	AttrBlobSize   = "bucket.blob_size"
	AttrBytesUsed  = "bucket.bytes_used"
	AttrDataLimit  = "bucket.data_limit"
	AttrPending    = "bucket.pending"
	AttrStoreType  = "bucket.store_type" // memory, badger, s3
	AttrOperation  = "storage.operation" // generic operation name

	// ========================================================================
	// Index allocation attributes
	// ========================================================================
	AttrAllowance     = "index.allowance"
	AttrAllocatedSize = "index.allocated_size"

	// ========================================================================
	// Reconciliation attributes
	// ========================================================================
	AttrPeerBucketID = "reconcile.peer_bucket_id"
	AttrBatchSize    = "reconcile.batch_size"
	AttrEventKind    = "reconcile.event_kind"
	AttrAttempt      = "reconcile.attempt"

	// ========================================================================
	// Auth attributes
	// ========================================================================
	AttrPrincipal = "auth.principal"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	SpanBucketPutChunk          = "bucket.put_chunk"
	SpanBucketRemoveFile        = "bucket.remove_file"
	SpanBucketRemovePendingFile = "bucket.remove_pending_file"
	SpanBucketRemoveAccessor    = "bucket.remove_accessor"

	SpanIndexAllocatedBucket  = "index.allocated_bucket"
	SpanIndexReferenceCounts  = "index.reference_counts"
	SpanIndexAddUser          = "index.add_user"
	SpanIndexAddBlobReference = "index.add_blob_reference"
	SpanIndexRemoveBlobRef    = "index.remove_blob_reference"

	SpanReconcilePush  = "reconcile.push_batch"
	SpanReconcileApply = "reconcile.apply_batch"
)

// UserID returns an attribute for the user identifier.
func UserID(id string) attribute.KeyValue {
	return attribute.String(AttrUserID, id)
}

// AccessorID returns an attribute for the accessor identifier.
func AccessorID(id string) attribute.KeyValue {
	return attribute.String(AttrAccessorID, id)
}

// FileID returns an attribute for the file identifier.
func FileID(id string) attribute.KeyValue {
	return attribute.String(AttrFileID, id)
}

// BucketID returns an attribute for the bucket identifier.
func BucketID(id string) attribute.KeyValue {
	return attribute.String(AttrBucketID, id)
}

// Hash returns an attribute for the content hash.
func Hash(hash string) attribute.KeyValue {
	return attribute.String(AttrHash, hash)
}

// ChunkIndex returns an attribute for a chunk's position within a blob.
func ChunkIndex(i uint32) attribute.KeyValue {
	return attribute.Int64(AttrChunkIndex, int64(i))
}

// ChunkSize returns an attribute for a chunk's byte length.
func ChunkSize(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrChunkSize, int64(n))
}

// BlobSize returns an attribute for a complete blob's byte length.
func BlobSize(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrBlobSize, int64(n))
}

// BytesUsed returns an attribute for a bucket's current usage.
func BytesUsed(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrBytesUsed, int64(n))
}

// StoreType returns an attribute for the blob backend in use (memory, badger, s3).
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Operation returns an attribute for a generic operation name.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Allowance returns an attribute for a user's remaining byte allowance.
func Allowance(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrAllowance, int64(n))
}

// PeerBucketID returns an attribute for the bucket a reconciliation batch targets.
func PeerBucketID(id string) attribute.KeyValue {
	return attribute.String(AttrPeerBucketID, id)
}

// BatchSize returns an attribute for the number of events in a reconciliation batch.
func BatchSize(n int) attribute.KeyValue {
	return attribute.Int(AttrBatchSize, n)
}

// EventKind returns an attribute naming a reconciliation event's variant.
func EventKind(kind string) attribute.KeyValue {
	return attribute.String(AttrEventKind, kind)
}

// Attempt returns an attribute for a retry attempt number.
func Attempt(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempt, n)
}

// Principal returns an attribute for the authenticated service principal.
func Principal(name string) attribute.KeyValue {
	return attribute.String(AttrPrincipal, name)
}

// StartBucketSpan starts a span for a bucket content-store operation.
func StartBucketSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// StartIndexSpan starts a span for an index allocation-engine operation.
func StartIndexSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// StartReconcileSpan starts a span for a reconciliation batch push or apply.
func StartReconcileSpan(ctx context.Context, name string, peerBucket string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{PeerBucketID(peerBucket)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
