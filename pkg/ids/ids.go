// Package ids defines the opaque, fixed-size, equality-comparable
// identifiers shared by the bucket content store, the index allocation
// engine, and the reconciliation protocol that connects them.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// UserId identifies a user known to the index's quota engine.
type UserId [16]byte

// AccessorId identifies an external capability or group granted view
// access to one or more files. Revoking an accessor can cascade-delete
// files whose accessor set becomes empty.
type AccessorId [16]byte

// FileId uniquely names one logical upload (a.k.a. blob reference id).
type FileId [16]byte

// BucketId identifies a storage shard.
type BucketId [16]byte

// Hash is a 32-byte content digest.
type Hash [32]byte

func newUUIDBacked() [16]byte {
	var out [16]byte
	copy(out[:], uuid.New()[:])
	return out
}

// NewUserId generates a random UserId.
func NewUserId() UserId { return UserId(newUUIDBacked()) }

// NewAccessorId generates a random AccessorId.
func NewAccessorId() AccessorId { return AccessorId(newUUIDBacked()) }

// NewFileId generates a random FileId.
func NewFileId() FileId { return FileId(newUUIDBacked()) }

// NewBucketId generates a random BucketId.
func NewBucketId() BucketId { return BucketId(newUUIDBacked()) }

// HashBytes computes the content digest used to address blobs.
func HashBytes(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

func (id UserId) String() string     { return hex.EncodeToString(id[:]) }
func (id AccessorId) String() string { return hex.EncodeToString(id[:]) }
func (id FileId) String() string     { return hex.EncodeToString(id[:]) }
func (id BucketId) String() string   { return hex.EncodeToString(id[:]) }
func (h Hash) String() string        { return hex.EncodeToString(h[:]) }

// IsZero reports whether the id is the zero value (never issued).
func (id UserId) IsZero() bool     { return id == UserId{} }
func (id AccessorId) IsZero() bool { return id == AccessorId{} }
func (id FileId) IsZero() bool     { return id == FileId{} }
func (id BucketId) IsZero() bool   { return id == BucketId{} }
func (h Hash) IsZero() bool        { return h == Hash{} }

func (id UserId) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id AccessorId) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id FileId) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id BucketId) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (h Hash) MarshalText() ([]byte, error)         { return []byte(h.String()), nil }

func (id *UserId) UnmarshalText(text []byte) error {
	b, err := decodeFixed(text, 16)
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	copy(id[:], b)
	return nil
}

func (id *AccessorId) UnmarshalText(text []byte) error {
	b, err := decodeFixed(text, 16)
	if err != nil {
		return fmt.Errorf("accessor id: %w", err)
	}
	copy(id[:], b)
	return nil
}

func (id *FileId) UnmarshalText(text []byte) error {
	b, err := decodeFixed(text, 16)
	if err != nil {
		return fmt.Errorf("file id: %w", err)
	}
	copy(id[:], b)
	return nil
}

func (id *BucketId) UnmarshalText(text []byte) error {
	b, err := decodeFixed(text, 16)
	if err != nil {
		return fmt.Errorf("bucket id: %w", err)
	}
	copy(id[:], b)
	return nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	b, err := decodeFixed(text, 32)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	copy(h[:], b)
	return nil
}

func decodeFixed(text []byte, size int) ([]byte, error) {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(b))
	}
	return b, nil
}

// ParseUserId parses a hex-encoded UserId.
func ParseUserId(s string) (UserId, error) {
	var id UserId
	err := id.UnmarshalText([]byte(s))
	return id, err
}

// ParseAccessorId parses a hex-encoded AccessorId.
func ParseAccessorId(s string) (AccessorId, error) {
	var id AccessorId
	err := id.UnmarshalText([]byte(s))
	return id, err
}

// ParseFileId parses a hex-encoded FileId.
func ParseFileId(s string) (FileId, error) {
	var id FileId
	err := id.UnmarshalText([]byte(s))
	return id, err
}

// ParseBucketId parses a hex-encoded BucketId.
func ParseBucketId(s string) (BucketId, error) {
	var id BucketId
	err := id.UnmarshalText([]byte(s))
	return id, err
}

// ParseHash parses a hex-encoded Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	err := h.UnmarshalText([]byte(s))
	return h, err
}
