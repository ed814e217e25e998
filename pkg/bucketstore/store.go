package bucketstore

import (
	"sync"
	"time"

	"github.com/coldvault/core/pkg/bufpool"
	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/metrics"
	"github.com/coldvault/core/pkg/reconcile"
)

// Store is one bucket shard's content store: chunked-upload assembly,
// content-addressed deduplication, reference counting, and the reverse
// accessor index that makes fan-out deletion cheap.
//
// Every public method serializes through a single mutex, modeling the
// single-threaded-cooperative scheduling a canister gives each handler for
// free (§5): within one Store, one logical mutator runs at a time and no
// method needs to re-read state after a suspension, because the mutex
// gives the same "runs to completion" guarantee the host runtime would.
type Store struct {
	mu sync.Mutex

	env     Environment
	backend BlobBackend

	maxBlobSizeBytes uint64
	dataLimitBytes   uint64

	files           map[ids.FileId]*File
	pendingFiles    map[ids.FileId]*PendingFile
	referenceCounts map[ids.Hash]uint32
	blobSizes       map[ids.Hash]uint64
	accessorsIndex  map[ids.AccessorId]map[ids.FileId]struct{}
	bytesUsed       uint64

	// authorizedUsers mirrors the index's user membership, maintained by
	// ApplyUserAdded/ApplyUserRemoved and exposed by IsUserAuthorized.
	// Neither PutChunk nor the upload_chunk handler consults it, so chunks
	// from a user outside this set are accepted.
	authorizedUsers map[ids.UserId]struct{}

	outbox *reconcile.Queue[BlobEvent]

	metrics *metrics.BucketMetrics
}

// Config configures a new Store.
type Config struct {
	MaxBlobSizeBytes uint64
	DataLimitBytes   uint64
}

// NewStore creates an empty bucket content store.
func NewStore(env Environment, backend BlobBackend, cfg Config, m *metrics.BucketMetrics) *Store {
	return &Store{
		env:              env,
		backend:          backend,
		maxBlobSizeBytes: cfg.MaxBlobSizeBytes,
		dataLimitBytes:   cfg.DataLimitBytes,
		files:            make(map[ids.FileId]*File),
		pendingFiles:     make(map[ids.FileId]*PendingFile),
		referenceCounts:  make(map[ids.Hash]uint32),
		blobSizes:        make(map[ids.Hash]uint64),
		accessorsIndex:   make(map[ids.AccessorId]map[ids.FileId]struct{}),
		authorizedUsers:  make(map[ids.UserId]struct{}),
		outbox:           reconcile.NewQueue[BlobEvent](),
		metrics:          m,
	}
}

// PutChunk absorbs one chunk of an upload, per §4.1's validation order:
// size cap, FileId conflict, pending upsert, chunk absorption, completion.
func (s *Store) PutChunk(args PutChunkArgs) (PutChunkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if args.TotalSize == 0 {
		return PutChunkResult{}, NewInvalidArgumentError("total_size must be greater than zero")
	}
	if args.ChunkSize == 0 {
		return PutChunkResult{}, NewInvalidArgumentError("chunk_size must be greater than zero")
	}
	if args.TotalSize > s.maxBlobSizeBytes {
		s.recordPutChunkError("file_too_big")
		return PutChunkResult{}, NewFileTooBigError(s.maxBlobSizeBytes)
	}
	if _, exists := s.files[args.FileId]; exists {
		s.recordPutChunkError("file_already_exists")
		return PutChunkResult{}, NewFileAlreadyExistsError()
	}

	pf, existed := s.pendingFiles[args.FileId]
	var fileAdded *BlobReferenceAdded
	if !existed {
		pf = s.newPendingFile(args)
		s.pendingFiles[args.FileId] = pf
		fileAdded = &BlobReferenceAdded{
			UploadedBy: args.UploadedBy,
			BlobId:     args.FileId,
			BlobHash:   args.Hash,
			BlobSize:   args.TotalSize,
		}
	}

	count := chunkCount(pf.TotalSize, pf.ChunkSize)
	if args.ChunkIndex >= count {
		s.recordPutChunkError("chunk_index_too_high")
		return PutChunkResult{}, NewChunkIndexTooHighError()
	}

	expected := expectedChunkLen(args.ChunkIndex, pf.TotalSize, pf.ChunkSize)
	if len(args.Bytes) != expected {
		s.recordPutChunkError("chunk_size_mismatch")
		return PutChunkResult{}, NewChunkSizeMismatchError(expected, len(args.Bytes))
	}

	if _, remains := pf.RemainingChunks[args.ChunkIndex]; !remains {
		s.recordPutChunkError("chunk_already_exists")
		return PutChunkResult{}, NewChunkAlreadyExistsError()
	}

	offset := uint64(args.ChunkIndex) * pf.ChunkSize
	copy(pf.Bytes[offset:offset+uint64(len(args.Bytes))], args.Bytes)
	delete(pf.RemainingChunks, args.ChunkIndex)

	s.metricsRecordChunkAbsorbed()

	if len(pf.RemainingChunks) > 0 {
		return PutChunkResult{FileCompleted: false, FileAdded: fileAdded}, nil
	}

	return s.completePendingFile(args.FileId, pf, args.Now, fileAdded)
}

func (s *Store) newPendingFile(args PutChunkArgs) *PendingFile {
	count := chunkCount(args.TotalSize, args.ChunkSize)
	remaining := make(map[uint32]struct{}, count)
	for i := uint32(0); i < count; i++ {
		remaining[i] = struct{}{}
	}
	accessors := make(map[ids.AccessorId]struct{}, len(args.Accessors))
	for _, a := range args.Accessors {
		accessors[a] = struct{}{}
	}
	return &PendingFile{
		UploadedBy:      args.UploadedBy,
		Created:         args.Now,
		Hash:            args.Hash,
		MimeType:        args.MimeType,
		Accessors:       accessors,
		ChunkSize:       args.ChunkSize,
		TotalSize:       args.TotalSize,
		RemainingChunks: remaining,
		// Bytes accumulates chunks for the lifetime of the upload; pulled
		// from bufpool rather than allocated directly since every path out
		// of completePendingFile hands it back (the blob backend always
		// copies on Put, so the pool's buffer is free the moment that
		// call returns).
		Bytes: bufpool.Get(int(args.TotalSize)),
	}
}

// completePendingFile verifies the assembled blob's hash and, on success,
// atomically installs the File, links its accessors, and bumps the
// reference count — step 5 of the put_chunk algorithm. On hash mismatch
// the pending file is dropped; the assembled bytes are poisoned.
func (s *Store) completePendingFile(fileId ids.FileId, pf *PendingFile, now time.Time, fileAdded *BlobReferenceAdded) (PutChunkResult, error) {
	count := chunkCount(pf.TotalSize, pf.ChunkSize)
	actualHash := ids.HashBytes(pf.Bytes)
	if actualHash != pf.Hash {
		delete(s.pendingFiles, fileId)
		bufpool.Put(pf.Bytes)
		s.recordPutChunkError("hash_mismatch")
		return PutChunkResult{}, NewHashMismatchError(pf.Hash.String(), actualHash.String(), int(count))
	}

	delete(s.pendingFiles, fileId)

	file := &File{
		UploadedBy: pf.UploadedBy,
		Created:    now,
		Accessors:  pf.Accessors,
		Hash:       pf.Hash,
		MimeType:   pf.MimeType,
	}
	s.files[fileId] = file

	for a := range file.Accessors {
		if s.accessorsIndex[a] == nil {
			s.accessorsIndex[a] = make(map[ids.FileId]struct{})
		}
		s.accessorsIndex[a][fileId] = struct{}{}
	}

	s.referenceCounts[file.Hash]++
	if s.referenceCounts[file.Hash] == 1 {
		if err := s.backend.Put(file.Hash, pf.Bytes); err != nil {
			return PutChunkResult{}, err
		}
		size := uint64(len(pf.Bytes))
		newUsed := s.bytesUsed + size
		if newUsed < s.bytesUsed {
			panic(&ConsistencyViolation{Reason: "bytes_used overflowed on blob insert"})
		}
		s.bytesUsed = newUsed
		s.blobSizes[file.Hash] = size
	}
	bufpool.Put(pf.Bytes)

	s.outbox.Enqueue(BlobEvent{
		Kind: EventBlobReferenceAdded,
		Added: &BlobReferenceAdded{
			UploadedBy: file.UploadedBy,
			BlobId:     fileId,
			BlobHash:   file.Hash,
			BlobSize:   pf.TotalSize,
		},
	})

	s.refreshGauges()

	return PutChunkResult{FileCompleted: true, FileAdded: fileAdded}, nil
}

// RemoveFile deletes a completed File on behalf of its uploader. Returns
// NewNotAuthorizedError if uploadedBy does not match the file's owner.
func (s *Store) RemoveFile(uploadedBy ids.UserId, fileId ids.FileId) (FileRemoved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, exists := s.files[fileId]
	if !exists {
		return FileRemoved{}, NewNotFoundError()
	}
	if file.UploadedBy != uploadedBy {
		return FileRemoved{}, NewNotAuthorizedError()
	}

	return s.removeFileLocked(fileId, file), nil
}

// RemovePendingFile discards an in-progress upload. Returns false if none exists.
func (s *Store) RemovePendingFile(fileId ids.FileId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pendingFiles[fileId]; !exists {
		return false
	}
	delete(s.pendingFiles, fileId)
	return true
}

// RemoveAccessor revokes an accessor, deleting any file whose accessor set
// becomes empty as a result. Bypasses uploader authorization: the caller is
// the trusted index.
func (s *Store) RemoveAccessor(accessor ids.AccessorId) []FileRemoved {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeAccessorLocked(accessor)
}

func (s *Store) removeAccessorLocked(accessor ids.AccessorId) []FileRemoved {
	fileIds := s.accessorsIndex[accessor]
	if len(fileIds) == 0 {
		return nil
	}

	affected := make([]ids.FileId, 0, len(fileIds))
	for fid := range fileIds {
		affected = append(affected, fid)
	}

	var removed []FileRemoved
	for _, fid := range affected {
		file, exists := s.files[fid]
		if !exists {
			continue
		}
		delete(file.Accessors, accessor)
		if len(file.Accessors) == 0 {
			removed = append(removed, s.removeFileLocked(fid, file))
		}
	}
	delete(s.accessorsIndex, accessor)
	return removed
}

// removeFileLocked unconditionally deletes fileId, unlinks its accessors,
// and decrements the blob's reference count, evicting the blob on the last
// reference. Caller must hold s.mu.
func (s *Store) removeFileLocked(fileId ids.FileId, file *File) FileRemoved {
	delete(s.files, fileId)

	for a := range file.Accessors {
		if set, ok := s.accessorsIndex[a]; ok {
			delete(set, fileId)
			if len(set) == 0 {
				delete(s.accessorsIndex, a)
			}
		}
	}

	blobDeleted := false
	count := s.referenceCounts[file.Hash]
	if count == 0 {
		panic(&ConsistencyViolation{Reason: "reference count underflow for hash " + file.Hash.String()})
	}
	count--
	if count == 0 {
		delete(s.referenceCounts, file.Hash)
		size, known := s.blobSizes[file.Hash]
		if !known {
			panic(&ConsistencyViolation{Reason: "missing blob size for hash " + file.Hash.String()})
		}
		delete(s.blobSizes, file.Hash)
		if err := s.backend.Delete(file.Hash); err != nil {
			panic(&ConsistencyViolation{Reason: "blob backend delete failed: " + err.Error()})
		}
		if size > s.bytesUsed {
			panic(&ConsistencyViolation{Reason: "bytes_used underflowed on blob eviction"})
		}
		s.bytesUsed -= size
		blobDeleted = true
	} else {
		s.referenceCounts[file.Hash] = count
	}

	s.outbox.Enqueue(BlobEvent{
		Kind: EventBlobReferenceRemoved,
		Removed: &BlobReferenceRemoved{
			UploadedBy:  file.UploadedBy,
			BlobHash:    file.Hash,
			BlobDeleted: blobDeleted,
		},
	})

	s.refreshGauges()

	return FileRemoved{
		FileId:      fileId,
		UploadedBy:  file.UploadedBy,
		Hash:        file.Hash,
		BlobDeleted: blobDeleted,
	}
}

// ApplyUserAdded grants a user upload authorization, per the index->bucket
// UserAdded sync event.
func (s *Store) ApplyUserAdded(user ids.UserId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorizedUsers[user] = struct{}{}
}

// ApplyUserRemoved revokes a user and cascades remove_file across every
// file they own, per the index->bucket UserRemoved sync event.
func (s *Store) ApplyUserRemoved(user ids.UserId) []FileRemoved {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.authorizedUsers, user)

	var owned []ids.FileId
	for fid, file := range s.files {
		if file.UploadedBy == user {
			owned = append(owned, fid)
		}
	}

	var removed []FileRemoved
	for _, fid := range owned {
		file := s.files[fid]
		removed = append(removed, s.removeFileLocked(fid, file))
	}
	return removed
}

// ApplyAccessorRemoved is the index->bucket AccessorRemoved sync event
// handler; it is equivalent to RemoveAccessor but named to match the
// protocol's event vocabulary.
func (s *Store) ApplyAccessorRemoved(accessor ids.AccessorId) []FileRemoved {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeAccessorLocked(accessor)
}

// IsUserAuthorized reports whether user has been granted upload
// authorization via ApplyUserAdded.
func (s *Store) IsUserAuthorized(user ids.UserId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.authorizedUsers[user]
	return ok
}

// ---------------------------------------------------------------------
// Read-only accessors
// ---------------------------------------------------------------------

// Get returns the File named by fileId.
func (s *Store) Get(fileId ids.FileId) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, exists := s.files[fileId]
	if !exists {
		return File{}, NewNotFoundError()
	}
	return *file, nil
}

// BlobBytes returns the raw content stored under hash.
func (s *Store) BlobBytes(hash ids.Hash) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.referenceCounts[hash] == 0 {
		return nil, NewNotFoundError()
	}
	return s.backend.Get(hash)
}

// UploadedBy returns the uploader of fileId.
func (s *Store) UploadedBy(fileId ids.FileId) (ids.UserId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, exists := s.files[fileId]
	if !exists {
		return ids.UserId{}, NewNotFoundError()
	}
	return file.UploadedBy, nil
}

// ContainsHash reports whether hash is currently referenced by any File.
func (s *Store) ContainsHash(hash ids.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.referenceCounts[hash] > 0
}

// DataSize returns the stored byte length for hash.
func (s *Store) DataSize(hash ids.Hash) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size, known := s.blobSizes[hash]
	if !known {
		return 0, NewNotFoundError()
	}
	return size, nil
}

// BytesRemaining returns the bucket's configured capacity minus bytes_used.
func (s *Store) BytesRemaining() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bytesUsed >= s.dataLimitBytes {
		return 0
	}
	return s.dataLimitBytes - s.bytesUsed
}

// ReferenceCounts returns a snapshot of the hash->refcount map.
func (s *Store) ReferenceCounts() map[ids.Hash]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[ids.Hash]uint32, len(s.referenceCounts))
	for h, c := range s.referenceCounts {
		out[h] = c
	}
	return out
}

// Metrics returns a point-in-time summary of the bucket's aggregate state.
func (s *Store) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Metrics{
		FileCount:        len(s.files),
		PendingFileCount: len(s.pendingFiles),
		BlobCount:        len(s.blobSizes),
		BytesUsed:        s.bytesUsed,
		DataLimitBytes:   s.dataLimitBytes,
	}
}

func (s *Store) refreshGauges() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetBytesUsed(s.bytesUsed)
	s.metrics.SetFileCount(len(s.files))
	s.metrics.SetPendingFileCount(len(s.pendingFiles))
}

func (s *Store) recordPutChunkError(code string) {
	if s.metrics != nil {
		s.metrics.RecordPutChunkError(code)
	}
}

func (s *Store) metricsRecordChunkAbsorbed() {
	if s.metrics != nil {
		s.metrics.RecordChunkAbsorbed()
	}
}

// ---------------------------------------------------------------------
// Outbound reconciliation queue (IndexSyncState)
// ---------------------------------------------------------------------

// DrainOutbox marks up to maxBatch pending events as in-flight for delivery
// to the index. Returns ok=false if a batch is already in flight or
// nothing is pending.
func (s *Store) DrainOutbox(maxBatch int) ([]BlobEvent, bool) {
	return s.outbox.TryTakeBatch(maxBatch)
}

// AckOutbox clears the in-flight marker after the index accepts a batch.
func (s *Store) AckOutbox() {
	s.outbox.MarkSuccess()
}

// RequeueOutbox re-queues the in-flight batch at the head after a failed
// or timed-out delivery attempt.
func (s *Store) RequeueOutbox() {
	s.outbox.MarkFailure()
}

// PendingOutboxLen reports how many events are queued for delivery,
// excluding any batch currently in flight.
func (s *Store) PendingOutboxLen() int {
	return s.outbox.Len()
}
