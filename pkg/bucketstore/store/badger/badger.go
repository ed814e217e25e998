// Package badger implements an embedded, single-node BlobBackend on top of
// BadgerDB. Blobs are keyed directly by their content hash; unlike the
// metadata store this package is modeled on, there is only one data type,
// so no key-prefix namespace is needed.
package badger

import (
	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/coldvault/core/pkg/bucketstore"
	"github.com/coldvault/core/pkg/ids"
)

// Backend is a BlobBackend backed by an on-disk BadgerDB instance.
type Backend struct {
	db *badgerdb.DB
}

// Open opens (creating if absent) a BadgerDB-backed blob store at dir.
func Open(dir string) (*Backend, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Backend{db: db}, nil
}

// Close releases the underlying database handle.
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) Put(hash ids.Hash, data []byte) error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(hash[:], data)
	})
}

func (b *Backend) Get(hash ids.Hash) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(hash[:])
		if err == badgerdb.ErrKeyNotFound {
			return bucketstore.NewNotFoundError()
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Backend) Delete(hash ids.Hash) error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		err := txn.Delete(hash[:])
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

func (b *Backend) Contains(hash ids.Hash) (bool, error) {
	found := false
	err := b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(hash[:])
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (b *Backend) Size(hash ids.Hash) (uint64, error) {
	var size uint64
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(hash[:])
		if err == badgerdb.ErrKeyNotFound {
			return bucketstore.NewNotFoundError()
		}
		if err != nil {
			return err
		}
		size = uint64(item.ValueSize())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

// RunGC runs one round of BadgerDB's value-log garbage collection,
// reclaiming space from overwritten and deleted keys. Intended to be
// called periodically by the hosting process, not on every write.
func (b *Backend) RunGC(discardRatio float64) error {
	err := b.db.RunValueLogGC(discardRatio)
	if err == badgerdb.ErrNoRewrite {
		return nil
	}
	return err
}

var _ bucketstore.BlobBackend = (*Backend)(nil)
