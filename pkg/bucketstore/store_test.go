package bucketstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/core/pkg/bucketstore"
	"github.com/coldvault/core/pkg/bucketstore/store/memory"
	"github.com/coldvault/core/pkg/ids"
)

func newTestStore(t *testing.T) (*bucketstore.Store, *bucketstore.FixedEnvironment) {
	t.Helper()
	env := &bucketstore.FixedEnvironment{At: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	backend := memory.New()
	s := bucketstore.NewStore(env, backend, bucketstore.Config{
		MaxBlobSizeBytes: 10 << 20,
		DataLimitBytes:   1 << 30,
	}, nil)
	return s, env
}

func splitChunks(data []byte, chunkSize uint64) [][]byte {
	var out [][]byte
	for start := uint64(0); start < uint64(len(data)); start += chunkSize {
		end := start + chunkSize
		if end > uint64(len(data)) {
			end = uint64(len(data))
		}
		out = append(out, data[start:end])
	}
	return out
}

func uploadArgs(uploader ids.UserId, fileId ids.FileId, hash ids.Hash, accessors []ids.AccessorId, chunkIndex uint32, chunkSize, totalSize uint64, bytes []byte, now time.Time) bucketstore.PutChunkArgs {
	return bucketstore.PutChunkArgs{
		UploadedBy: uploader,
		FileId:     fileId,
		Hash:       hash,
		MimeType:   "application/octet-stream",
		Accessors:  accessors,
		ChunkIndex: chunkIndex,
		ChunkSize:  chunkSize,
		TotalSize:  totalSize,
		Bytes:      bytes,
		Now:        now,
	}
}

// Scenario 1: single small upload in two chunks.
func TestPutChunkSingleSmallUpload(t *testing.T) {
	s, env := newTestStore(t)

	uploader := ids.NewUserId()
	fileId := ids.NewFileId()
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}
	hash := ids.HashBytes(data)

	res1, err := s.PutChunk(uploadArgs(uploader, fileId, hash, nil, 0, 64, 100, data[:64], env.Now()))
	require.NoError(t, err)
	assert.False(t, res1.FileCompleted)
	require.NotNil(t, res1.FileAdded)
	assert.Equal(t, uint64(100), res1.FileAdded.BlobSize)
	assert.Equal(t, fileId, res1.FileAdded.BlobId)

	res2, err := s.PutChunk(uploadArgs(uploader, fileId, hash, nil, 1, 64, 100, data[64:], env.Now()))
	require.NoError(t, err)
	assert.True(t, res2.FileCompleted)
	assert.Nil(t, res2.FileAdded)

	file, err := s.Get(fileId)
	require.NoError(t, err)
	assert.Equal(t, hash, file.Hash)

	bytes, err := s.BlobBytes(hash)
	require.NoError(t, err)
	assert.Equal(t, data, bytes)

	refs := s.ReferenceCounts()
	assert.Equal(t, uint32(1), refs[hash])
	assert.Equal(t, uint64(100), s.Metrics().BytesUsed)
}

// Scenario 2: dedup across two uploaders with identical content.
func TestPutChunkDedup(t *testing.T) {
	s, env := newTestStore(t)

	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i * 3)
	}
	hash := ids.HashBytes(data)

	f1 := ids.NewFileId()
	u1 := ids.NewUserId()
	_, err := s.PutChunk(uploadArgs(u1, f1, hash, nil, 0, 64, 100, data[:64], env.Now()))
	require.NoError(t, err)
	_, err = s.PutChunk(uploadArgs(u1, f1, hash, nil, 1, 64, 100, data[64:], env.Now()))
	require.NoError(t, err)

	f2 := ids.NewFileId()
	u2 := ids.NewUserId()
	_, err = s.PutChunk(uploadArgs(u2, f2, hash, nil, 0, 64, 100, data[:64], env.Now()))
	require.NoError(t, err)
	res, err := s.PutChunk(uploadArgs(u2, f2, hash, nil, 1, 64, 100, data[64:], env.Now()))
	require.NoError(t, err)
	assert.True(t, res.FileCompleted)

	refs := s.ReferenceCounts()
	assert.Equal(t, uint32(2), refs[hash])
	assert.Equal(t, uint64(100), s.Metrics().BytesUsed, "dedup must not double the bytes charged")

	size, err := s.DataSize(hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), size)
}

// Scenario 3: removal requires matching uploader.
func TestRemoveFileAuthorization(t *testing.T) {
	s, env := newTestStore(t)

	data := []byte("small file contents")
	hash := ids.HashBytes(data)
	fileId := ids.NewFileId()
	owner := ids.NewUserId()
	other := ids.NewUserId()

	_, err := s.PutChunk(uploadArgs(owner, fileId, hash, nil, 0, uint64(len(data)), uint64(len(data)), data, env.Now()))
	require.NoError(t, err)

	_, err = s.RemoveFile(other, fileId)
	require.Error(t, err)
	storeErr, ok := err.(*bucketstore.StoreError)
	require.True(t, ok)
	assert.Equal(t, bucketstore.ErrNotAuthorized, storeErr.Code)

	// State unchanged: file still retrievable.
	_, err = s.Get(fileId)
	assert.NoError(t, err)
}

// Scenario 4: accessor removal cascades only to files whose accessor set
// becomes empty.
func TestRemoveAccessorCascade(t *testing.T) {
	s, env := newTestStore(t)

	a1 := ids.NewAccessorId()
	a2 := ids.NewAccessorId()
	uploader := ids.NewUserId()

	data1 := []byte("file one contents")
	hash1 := ids.HashBytes(data1)
	f1 := ids.NewFileId()
	_, err := s.PutChunk(uploadArgs(uploader, f1, hash1, []ids.AccessorId{a1, a2}, 0, uint64(len(data1)), uint64(len(data1)), data1, env.Now()))
	require.NoError(t, err)

	data2 := []byte("file two contents")
	hash2 := ids.HashBytes(data2)
	f2 := ids.NewFileId()
	_, err = s.PutChunk(uploadArgs(uploader, f2, hash2, []ids.AccessorId{a1}, 0, uint64(len(data2)), uint64(len(data2)), data2, env.Now()))
	require.NoError(t, err)

	removed := s.RemoveAccessor(a1)
	require.Len(t, removed, 1)
	assert.Equal(t, f2, removed[0].FileId)

	// F1 survives with {A2}.
	file1, err := s.Get(f1)
	require.NoError(t, err)
	_, hasA2 := file1.Accessors[a2]
	assert.True(t, hasA2)
	_, hasA1 := file1.Accessors[a1]
	assert.False(t, hasA1)

	_, err = s.Get(f2)
	assert.True(t, bucketstore.IsNotFoundError(err))

	refs := s.ReferenceCounts()
	assert.Equal(t, uint32(1), refs[hash1])
	_, stillPresent := refs[hash2]
	assert.False(t, stillPresent)
}

// Scenario 5: hash mismatch on the completing chunk discards the pending
// file; a correct resubmission under the same file_id succeeds.
func TestPutChunkHashMismatchThenRetry(t *testing.T) {
	s, env := newTestStore(t)

	uploader := ids.NewUserId()
	fileId := ids.NewFileId()
	wrongData := []byte("this is not what was declared!!")
	declaredHash := ids.HashBytes([]byte("something else entirely, same length!"))

	_, err := s.PutChunk(uploadArgs(uploader, fileId, declaredHash, nil, 0, uint64(len(wrongData)), uint64(len(wrongData)), wrongData, env.Now()))
	require.Error(t, err)
	storeErr, ok := err.(*bucketstore.StoreError)
	require.True(t, ok)
	assert.Equal(t, bucketstore.ErrHashMismatch, storeErr.Code)

	_, err = s.Get(fileId)
	assert.True(t, bucketstore.IsNotFoundError(err))

	correctData := []byte("this is the real contents, ok!!")
	correctHash := ids.HashBytes(correctData)
	res, err := s.PutChunk(uploadArgs(uploader, fileId, correctHash, nil, 0, uint64(len(correctData)), uint64(len(correctData)), correctData, env.Now()))
	require.NoError(t, err)
	assert.True(t, res.FileCompleted)
}

func TestPutChunkRejectsZeroTotalSize(t *testing.T) {
	s, env := newTestStore(t)
	_, err := s.PutChunk(uploadArgs(ids.NewUserId(), ids.NewFileId(), ids.Hash{}, nil, 0, 10, 0, nil, env.Now()))
	require.Error(t, err)
}

func TestPutChunkRejectsOversizedFile(t *testing.T) {
	env := &bucketstore.FixedEnvironment{At: time.Now()}
	backend := memory.New()
	s := bucketstore.NewStore(env, backend, bucketstore.Config{MaxBlobSizeBytes: 100, DataLimitBytes: 1 << 20}, nil)

	_, err := s.PutChunk(uploadArgs(ids.NewUserId(), ids.NewFileId(), ids.Hash{}, nil, 0, 64, 101, make([]byte, 64), env.Now()))
	require.Error(t, err)
	storeErr, ok := err.(*bucketstore.StoreError)
	require.True(t, ok)
	assert.Equal(t, bucketstore.ErrFileTooBig, storeErr.Code)
}

func TestPutChunkBoundaryChunkSizes(t *testing.T) {
	s, env := newTestStore(t)

	// total_size % chunk_size == 0: last chunk is exactly chunk_size.
	data := make([]byte, 128)
	hash := ids.HashBytes(data)
	fileId := ids.NewFileId()
	uploader := ids.NewUserId()

	for i, chunk := range splitChunks(data, 64) {
		_, err := s.PutChunk(uploadArgs(uploader, fileId, hash, nil, uint32(i), 64, 128, chunk, env.Now()))
		require.NoError(t, err)
	}

	// total_size with remainder: last chunk is the remainder.
	data2 := make([]byte, 130)
	hash2 := ids.HashBytes(data2)
	fileId2 := ids.NewFileId()

	chunks := splitChunks(data2, 64)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 2)

	for i, chunk := range chunks {
		_, err := s.PutChunk(uploadArgs(uploader, fileId2, hash2, nil, uint32(i), 64, 130, chunk, env.Now()))
		require.NoError(t, err)
	}
}

func TestPutChunkRejectsWrongChunkSize(t *testing.T) {
	s, env := newTestStore(t)
	fileId := ids.NewFileId()
	uploader := ids.NewUserId()

	_, err := s.PutChunk(uploadArgs(uploader, fileId, ids.Hash{}, nil, 0, 64, 100, make([]byte, 63), env.Now()))
	require.Error(t, err)
	storeErr, ok := err.(*bucketstore.StoreError)
	require.True(t, ok)
	assert.Equal(t, bucketstore.ErrChunkSizeMismatch, storeErr.Code)
}

func TestPutChunkRejectsDuplicateChunkIndex(t *testing.T) {
	s, env := newTestStore(t)
	fileId := ids.NewFileId()
	uploader := ids.NewUserId()
	hash := ids.Hash{}

	_, err := s.PutChunk(uploadArgs(uploader, fileId, hash, nil, 0, 64, 100, make([]byte, 64), env.Now()))
	require.NoError(t, err)

	_, err = s.PutChunk(uploadArgs(uploader, fileId, hash, nil, 0, 64, 100, make([]byte, 64), env.Now()))
	require.Error(t, err)
	storeErr, ok := err.(*bucketstore.StoreError)
	require.True(t, ok)
	assert.Equal(t, bucketstore.ErrChunkAlreadyExists, storeErr.Code)
}

func TestApplyUserRemovedCascadesToOwnedFiles(t *testing.T) {
	s, env := newTestStore(t)
	uploader := ids.NewUserId()
	other := ids.NewUserId()

	data1 := []byte("owned by the removed user")
	f1 := ids.NewFileId()
	_, err := s.PutChunk(uploadArgs(uploader, f1, ids.HashBytes(data1), nil, 0, uint64(len(data1)), uint64(len(data1)), data1, env.Now()))
	require.NoError(t, err)

	data2 := []byte("owned by someone else entirely")
	f2 := ids.NewFileId()
	_, err = s.PutChunk(uploadArgs(other, f2, ids.HashBytes(data2), nil, 0, uint64(len(data2)), uint64(len(data2)), data2, env.Now()))
	require.NoError(t, err)

	removed := s.ApplyUserRemoved(uploader)
	require.Len(t, removed, 1)
	assert.Equal(t, f1, removed[0].FileId)

	_, err = s.Get(f1)
	assert.True(t, bucketstore.IsNotFoundError(err))
	_, err = s.Get(f2)
	assert.NoError(t, err)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s, env := newTestStore(t)

	data := []byte("round trip me through a snapshot")
	hash := ids.HashBytes(data)
	fileId := ids.NewFileId()
	accessor := ids.NewAccessorId()
	uploader := ids.NewUserId()

	_, err := s.PutChunk(uploadArgs(uploader, fileId, hash, []ids.AccessorId{accessor}, 0, uint64(len(data)), uint64(len(data)), data, env.Now()))
	require.NoError(t, err)
	s.ApplyUserAdded(uploader)

	snap := s.Snapshot()

	restored, _ := newTestStore(t)
	restored.Restore(snap)

	file, err := restored.Get(fileId)
	require.NoError(t, err)
	assert.Equal(t, hash, file.Hash)
	_, hasAccessor := file.Accessors[accessor]
	assert.True(t, hasAccessor)
	assert.True(t, restored.IsUserAuthorized(uploader))
	assert.Equal(t, s.Metrics(), restored.Metrics())
}

func TestDeletingAlreadyDeletedFileReturnsNotFound(t *testing.T) {
	s, env := newTestStore(t)
	uploader := ids.NewUserId()
	fileId := ids.NewFileId()
	data := []byte("gone soon")
	_, err := s.PutChunk(uploadArgs(uploader, fileId, ids.HashBytes(data), nil, 0, uint64(len(data)), uint64(len(data)), data, env.Now()))
	require.NoError(t, err)

	_, err = s.RemoveFile(uploader, fileId)
	require.NoError(t, err)

	_, err = s.RemoveFile(uploader, fileId)
	assert.True(t, bucketstore.IsNotFoundError(err))
}
