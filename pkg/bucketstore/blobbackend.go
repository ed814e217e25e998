package bucketstore

import "github.com/coldvault/core/pkg/ids"

// BlobBackend stores raw blob bytes keyed by content hash. The content
// store calls it only when a hash's reference count transitions between
// zero and one, so backends never see duplicate writes for the same hash
// while a reference is held.
//
// Implementations: store/memory (tests, ephemeral buckets), store/badger
// (embedded, single-node production), store/s3 (durable, shared storage).
type BlobBackend interface {
	// Put stores data under hash. Called exactly once per hash between a
	// zero-to-one reference count transition.
	Put(hash ids.Hash, data []byte) error

	// Get returns the bytes stored under hash, or ErrNotFound if absent.
	Get(hash ids.Hash) ([]byte, error)

	// Delete removes the bytes stored under hash. Called exactly once per
	// hash between a one-to-zero reference count transition.
	Delete(hash ids.Hash) error

	// Contains reports whether hash is currently stored.
	Contains(hash ids.Hash) (bool, error)

	// Size returns the byte length stored under hash, or ErrNotFound if absent.
	Size(hash ids.Hash) (uint64, error)
}
