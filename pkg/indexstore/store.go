// Package indexstore durably persists an index.Engine's Snapshot across
// restarts, the index-side analog of bucketstore's pluggable BlobBackend.
// Because the engine already serializes every mutation through its own
// mutex and exposes its complete state as one Snapshot value, a Store here
// only needs whole-snapshot save/load — there is no per-operation write
// path to plumb through, mirroring how a canister persists its heap to
// stable memory wholesale across an upgrade rather than journaling calls.
package indexstore

import (
	"context"

	"github.com/coldvault/core/pkg/index"
)

// Store durably persists and restores an index.Engine's Snapshot.
type Store interface {
	// Save overwrites the persisted snapshot with snap.
	Save(ctx context.Context, snap index.Snapshot) error

	// Load returns the persisted snapshot, or ok=false if none has been
	// saved yet (a fresh index starting from empty state).
	Load(ctx context.Context) (snap index.Snapshot, ok bool, err error)

	// Close releases any resources the store holds open.
	Close() error
}
