package httpapi

import (
	"errors"
	"net/http"

	"github.com/coldvault/core/pkg/bucketstore"
	"github.com/coldvault/core/pkg/index"
)

// mapStoreError maps a bucketstore.StoreError to an HTTP status and detail
// message, centralizing the translation every bucket handler would
// otherwise duplicate in a per-error switch.
func mapStoreError(err error) (int, string) {
	var storeErr *bucketstore.StoreError
	if !errors.As(err, &storeErr) {
		return http.StatusInternalServerError, "internal error"
	}

	switch storeErr.Code {
	case bucketstore.ErrNotFound:
		return http.StatusNotFound, storeErr.Message
	case bucketstore.ErrNotAuthorized:
		return http.StatusForbidden, storeErr.Message
	case bucketstore.ErrFileAlreadyExists, bucketstore.ErrChunkAlreadyExists:
		return http.StatusConflict, storeErr.Message
	case bucketstore.ErrChunkIndexTooHigh, bucketstore.ErrChunkSizeMismatch,
		bucketstore.ErrInvalidArgument:
		return http.StatusBadRequest, storeErr.Message
	case bucketstore.ErrHashMismatch:
		return http.StatusUnprocessableEntity, storeErr.Message
	case bucketstore.ErrFileTooBig:
		return http.StatusRequestEntityTooLarge, storeErr.Message
	default:
		return http.StatusInternalServerError, storeErr.Message
	}
}

// handleStoreError maps and writes a bucketstore.StoreError as a problem
// detail response.
func handleStoreError(w http.ResponseWriter, err error) {
	status, detail := mapStoreError(err)
	WriteProblem(w, status, http.StatusText(status), detail)
}

// mapIndexError maps an index.IndexError to an HTTP status and detail message.
func mapIndexError(err error) (int, string) {
	var indexErr *index.IndexError
	if !errors.As(err, &indexErr) {
		return http.StatusInternalServerError, "internal error"
	}

	switch indexErr.Code {
	case index.ErrUserNotFound:
		return http.StatusNotFound, indexErr.Message
	case index.ErrAllowanceExceeded, index.ErrAllowanceReached:
		return http.StatusUnprocessableEntity, indexErr.Message
	case index.ErrBucketUnavailable:
		return http.StatusServiceUnavailable, indexErr.Message
	case index.ErrInvalidArgument:
		return http.StatusBadRequest, indexErr.Message
	default:
		return http.StatusInternalServerError, indexErr.Message
	}
}

// handleIndexError maps and writes an index.IndexError as a problem detail response.
func handleIndexError(w http.ResponseWriter, err error) {
	status, detail := mapIndexError(err)
	WriteProblem(w, status, http.StatusText(status), detail)
}
