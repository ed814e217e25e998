package index

import "fmt"

// IndexError is a typed, recoverable error returned by the allocation and
// quota engine. As in bucketstore, these are carried as typed values rather
// than bare strings so transport handlers can map them to wire codes
// without string matching.
type IndexError struct {
	Code    ErrorCode
	Message string
}

func (e *IndexError) Error() string { return e.Message }

// ErrorCode names the category of an IndexError.
type ErrorCode int

const (
	// ErrUserNotFound indicates the caller has no UserRecord.
	ErrUserNotFound ErrorCode = iota

	// ErrAllowanceExceeded indicates the allocation would push the user
	// over their byte_limit.
	ErrAllowanceExceeded

	// ErrBucketUnavailable indicates no bucket has spare capacity.
	ErrBucketUnavailable

	// ErrAllowanceReached indicates a reported BlobReferenceAdded would
	// exceed the uploader's allowance; returned to the bucket as a
	// BlobReferenceRejected.
	ErrAllowanceReached

	// ErrInvalidArgument indicates a structurally invalid request.
	ErrInvalidArgument
)

// NewUserNotFoundError creates an IndexError for an unknown caller.
func NewUserNotFoundError() *IndexError {
	return &IndexError{Code: ErrUserNotFound, Message: "user not found"}
}

// NewAllowanceExceededError creates an IndexError carrying the projected allowance.
func NewAllowanceExceededError(projected ProjectedAllowance) *IndexError {
	return &IndexError{
		Code: ErrAllowanceExceeded,
		Message: fmt.Sprintf(
			"allowance exceeded: byte_limit=%d bytes_used_after_operation=%d",
			projected.ByteLimit, projected.BytesUsedAfterOperation,
		),
	}
}

// NewBucketUnavailableError creates an IndexError for allocation failure.
func NewBucketUnavailableError() *IndexError {
	return &IndexError{Code: ErrBucketUnavailable, Message: "no bucket has spare capacity"}
}

// NewAllowanceReachedError creates an IndexError for a reconciliation reject.
func NewAllowanceReachedError() *IndexError {
	return &IndexError{Code: ErrAllowanceReached, Message: "allowance reached"}
}

// NewInvalidArgumentError creates an IndexError for a structurally invalid request.
func NewInvalidArgumentError(reason string) *IndexError {
	return &IndexError{Code: ErrInvalidArgument, Message: reason}
}

// ConsistencyViolation is panicked, never returned, when a mutation would
// break one of the index's invariants (subtraction underflow on
// user.bytes_used, a BlobBuckets entry missing where one is guaranteed).
type ConsistencyViolation struct {
	Reason string
}

func (e *ConsistencyViolation) Error() string {
	return "consistency violation: " + e.Reason
}
