package logger

import (
	"encoding/hex"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Identifiers
	// ========================================================================
	KeyUserID     = "user_id"
	KeyAccessorID = "accessor_id"
	KeyFileID     = "file_id"
	KeyBucketID   = "bucket_id"
	KeyHash       = "hash"

	// ========================================================================
	// Bucket content-store operations
	// ========================================================================
	KeyChunkIndex = "chunk_index" // Position of a chunk within a blob
	KeyChunkSize  = "chunk_size"  // Byte length of one chunk
	KeyBlobSize   = "blob_size"   // Total byte length of a completed blob
	KeyBytesUsed  = "bytes_used"  // Bytes currently occupied in a bucket
	KeyDataLimit  = "data_limit"  // Configured capacity of a bucket
	KeyPending    = "pending"     // Whether a file is still mid-upload
	KeyStoreType  = "store_type"  // Blob backend: memory, badger, s3

	// ========================================================================
	// Index allocation engine
	// ========================================================================
	KeyAllowance     = "allowance"      // Remaining byte allowance for a user
	KeyAllocatedSize = "allocated_size" // Bytes charged by an allocation decision

	// ========================================================================
	// Reconciliation protocol
	// ========================================================================
	KeyPeerBucketID = "peer_bucket_id" // Bucket a sync batch is addressed to
	KeyBatchSize    = "batch_size"     // Number of events in one sync batch
	KeyEventKind    = "event_kind"     // UserAdded, BlobReferenceAdded, etc.

	// ========================================================================
	// Session & Connection
	// ========================================================================
	KeyRequestID = "request_id" // HTTP request ID (from middleware.RequestID)
	KeyPrincipal = "principal"  // Authenticated service principal
	KeyProcedure = "procedure"  // Procedure name carried in LogContext
	KeyShare     = "share"      // Share path carried in LogContext
	KeyClientIP  = "client_ip"  // Client IP address (without port)
	KeyUID       = "uid"        // Effective user ID
	KeyGID       = "gid"        // Effective group ID
	KeyHandle    = "handle"     // Opaque handle bytes, hex-encoded

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric/symbolic error code
	KeyOperation  = "operation"   // Operation name for log correlation

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyStoreName  = "store_name"  // Named store identifier from configuration
	KeyBucketName = "bucket_name" // Cloud bucket name (S3)
	KeyObjectKey  = "object_key"  // Object key in cloud storage
	KeyRegion     = "region"      // Cloud region
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// UserID returns a slog.Attr for the user identifier
func UserID(id string) slog.Attr {
	return slog.String(KeyUserID, id)
}

// AccessorID returns a slog.Attr for the accessor identifier
func AccessorID(id string) slog.Attr {
	return slog.String(KeyAccessorID, id)
}

// FileID returns a slog.Attr for the file identifier
func FileID(id string) slog.Attr {
	return slog.String(KeyFileID, id)
}

// BucketID returns a slog.Attr for the bucket identifier
func BucketID(id string) slog.Attr {
	return slog.String(KeyBucketID, id)
}

// Hash returns a slog.Attr for the content hash
func Hash(hash string) slog.Attr {
	return slog.String(KeyHash, hash)
}

// ChunkIndex returns a slog.Attr for a chunk's position within a blob
func ChunkIndex(i uint32) slog.Attr {
	return slog.Any(KeyChunkIndex, i)
}

// ChunkSize returns a slog.Attr for a chunk's byte length
func ChunkSize(n uint64) slog.Attr {
	return slog.Uint64(KeyChunkSize, n)
}

// BlobSize returns a slog.Attr for a completed blob's byte length
func BlobSize(n uint64) slog.Attr {
	return slog.Uint64(KeyBlobSize, n)
}

// BytesUsed returns a slog.Attr for a bucket's current usage
func BytesUsed(n uint64) slog.Attr {
	return slog.Uint64(KeyBytesUsed, n)
}

// DataLimit returns a slog.Attr for a bucket's configured capacity
func DataLimit(n uint64) slog.Attr {
	return slog.Uint64(KeyDataLimit, n)
}

// Pending returns a slog.Attr for whether a file is still mid-upload
func Pending(p bool) slog.Attr {
	return slog.Bool(KeyPending, p)
}

// StoreType returns a slog.Attr for the blob backend in use
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Allowance returns a slog.Attr for a user's remaining byte allowance
func Allowance(n uint64) slog.Attr {
	return slog.Uint64(KeyAllowance, n)
}

// AllocatedSize returns a slog.Attr for bytes charged by an allocation
func AllocatedSize(n uint64) slog.Attr {
	return slog.Uint64(KeyAllocatedSize, n)
}

// PeerBucketID returns a slog.Attr for the bucket a sync batch targets
func PeerBucketID(id string) slog.Attr {
	return slog.String(KeyPeerBucketID, id)
}

// BatchSize returns a slog.Attr for the number of events in a sync batch
func BatchSize(n int) slog.Attr {
	return slog.Int(KeyBatchSize, n)
}

// EventKind returns a slog.Attr naming a reconciliation event's variant
func EventKind(kind string) slog.Attr {
	return slog.String(KeyEventKind, kind)
}

// RequestID returns a slog.Attr for the HTTP request ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Principal returns a slog.Attr for the authenticated service principal
func Principal(name string) slog.Attr {
	return slog.String(KeyPrincipal, name)
}

// Handle returns a slog.Attr for opaque handle bytes, formatted as hex
func Handle(h []byte) slog.Attr {
	return slog.String(KeyHandle, hex.EncodeToString(h))
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a symbolic error code
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Operation returns a slog.Attr for the operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// StoreName returns a slog.Attr for a named store identifier
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// BucketName returns a slog.Attr for an S3 bucket name
func BucketName(name string) slog.Attr {
	return slog.String(KeyBucketName, name)
}

// ObjectKey returns a slog.Attr for an object key in cloud storage
func ObjectKey(k string) slog.Attr {
	return slog.String(KeyObjectKey, k)
}

// Region returns a slog.Attr for a cloud region
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}
