// Package memory is indexstore's in-process Store, for the default
// "memory" persistence.type and for tests — a snapshot survives process
// restart only to the extent this process itself never exits.
package memory

import (
	"context"
	"sync"

	"github.com/coldvault/core/pkg/index"
	"github.com/coldvault/core/pkg/indexstore"
)

// Store holds the last saved Snapshot in a process-local variable.
type Store struct {
	mu   sync.Mutex
	snap index.Snapshot
	has  bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

var _ indexstore.Store = (*Store)(nil)

func (s *Store) Save(_ context.Context, snap index.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.has = true
	return nil
}

func (s *Store) Load(_ context.Context) (index.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.has, nil
}

func (s *Store) Close() error { return nil }
