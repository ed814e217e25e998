// Package memory implements an in-process BlobBackend. It is used by unit
// tests and by ephemeral buckets that do not need to survive a restart.
package memory

import (
	"sync"

	"github.com/coldvault/core/pkg/bucketstore"
	"github.com/coldvault/core/pkg/ids"
)

// Backend is a BlobBackend that holds every blob in a map, guarded by its
// own mutex. Store already serializes calls into the backend, but the
// mutex here keeps Backend safe to use standalone, outside a Store too.
type Backend struct {
	mu   sync.RWMutex
	data map[ids.Hash][]byte
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{data: make(map[ids.Hash][]byte)}
}

func (b *Backend) Put(hash ids.Hash, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	b.data[hash] = stored
	return nil
}

func (b *Backend) Get(hash ids.Hash) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.data[hash]
	if !ok {
		return nil, bucketstore.NewNotFoundError()
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *Backend) Delete(hash ids.Hash) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, hash)
	return nil
}

func (b *Backend) Contains(hash ids.Hash) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.data[hash]
	return ok, nil
}

func (b *Backend) Size(hash ids.Hash) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.data[hash]
	if !ok {
		return 0, bucketstore.NewNotFoundError()
	}
	return uint64(len(data)), nil
}

var _ bucketstore.BlobBackend = (*Backend)(nil)
