package bucketstore

import (
	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/reconcile"
)

// Snapshot is the bucket's full logical state, minus the underlying blob
// bytes (owned by BlobBackend, which is snapshotted/restored separately by
// its own implementation). Used for process restart and for replicating a
// bucket onto a fresh host.
type Snapshot struct {
	Files           map[ids.FileId]File
	PendingFiles    map[ids.FileId]PendingFile
	ReferenceCounts map[ids.Hash]uint32
	BlobSizes       map[ids.Hash]uint64
	BytesUsed       uint64
	AuthorizedUsers []ids.UserId
	OutboxPending   []BlobEvent
}

// Snapshot captures the store's full in-memory state. The returned value
// shares no mutable state with the store: callers may serialize it freely.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := make(map[ids.FileId]File, len(s.files))
	for id, f := range s.files {
		files[id] = cloneFile(f)
	}

	pending := make(map[ids.FileId]PendingFile, len(s.pendingFiles))
	for id, pf := range s.pendingFiles {
		pending[id] = clonePendingFile(pf)
	}

	refCounts := make(map[ids.Hash]uint32, len(s.referenceCounts))
	for h, c := range s.referenceCounts {
		refCounts[h] = c
	}

	blobSizes := make(map[ids.Hash]uint64, len(s.blobSizes))
	for h, n := range s.blobSizes {
		blobSizes[h] = n
	}

	users := make([]ids.UserId, 0, len(s.authorizedUsers))
	for u := range s.authorizedUsers {
		users = append(users, u)
	}

	return Snapshot{
		Files:           files,
		PendingFiles:    pending,
		ReferenceCounts: refCounts,
		BlobSizes:       blobSizes,
		BytesUsed:       s.bytesUsed,
		AuthorizedUsers: users,
		OutboxPending:   s.outbox.Peek(),
	}
}

// Restore replaces the store's in-memory state with snap. The accessor
// index is rebuilt from Files rather than stored separately, since it is
// pure derived state. Restore does not touch the BlobBackend: callers must
// restore blob bytes independently before serving reads.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = make(map[ids.FileId]*File, len(snap.Files))
	s.accessorsIndex = make(map[ids.AccessorId]map[ids.FileId]struct{})
	for id, f := range snap.Files {
		file := cloneFile(&f)
		s.files[id] = file
		for a := range file.Accessors {
			if s.accessorsIndex[a] == nil {
				s.accessorsIndex[a] = make(map[ids.FileId]struct{})
			}
			s.accessorsIndex[a][id] = struct{}{}
		}
	}

	s.pendingFiles = make(map[ids.FileId]*PendingFile, len(snap.PendingFiles))
	for id, pf := range snap.PendingFiles {
		s.pendingFiles[id] = clonePendingFile(&pf)
	}

	s.referenceCounts = make(map[ids.Hash]uint32, len(snap.ReferenceCounts))
	for h, c := range snap.ReferenceCounts {
		s.referenceCounts[h] = c
	}

	s.blobSizes = make(map[ids.Hash]uint64, len(snap.BlobSizes))
	for h, n := range snap.BlobSizes {
		s.blobSizes[h] = n
	}

	s.bytesUsed = snap.BytesUsed

	s.authorizedUsers = make(map[ids.UserId]struct{}, len(snap.AuthorizedUsers))
	for _, u := range snap.AuthorizedUsers {
		s.authorizedUsers[u] = struct{}{}
	}

	s.outbox = reconcile.NewQueueFrom(snap.OutboxPending)
}

func cloneFile(f *File) *File {
	accessors := make(map[ids.AccessorId]struct{}, len(f.Accessors))
	for a := range f.Accessors {
		accessors[a] = struct{}{}
	}
	return &File{
		UploadedBy: f.UploadedBy,
		Created:    f.Created,
		Accessors:  accessors,
		Hash:       f.Hash,
		MimeType:   f.MimeType,
	}
}

func clonePendingFile(pf *PendingFile) *PendingFile {
	accessors := make(map[ids.AccessorId]struct{}, len(pf.Accessors))
	for a := range pf.Accessors {
		accessors[a] = struct{}{}
	}
	remaining := make(map[uint32]struct{}, len(pf.RemainingChunks))
	for i := range pf.RemainingChunks {
		remaining[i] = struct{}{}
	}
	bytesCopy := make([]byte, len(pf.Bytes))
	copy(bytesCopy, pf.Bytes)
	return &PendingFile{
		UploadedBy:      pf.UploadedBy,
		Created:         pf.Created,
		Hash:            pf.Hash,
		MimeType:        pf.MimeType,
		Accessors:       accessors,
		ChunkSize:       pf.ChunkSize,
		TotalSize:       pf.TotalSize,
		RemainingChunks: remaining,
		Bytes:           bytesCopy,
	}
}

