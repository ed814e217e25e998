package index

import (
	"sync"

	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/index/rollout"
	"github.com/coldvault/core/pkg/metrics"
	"github.com/coldvault/core/pkg/reconcile"
)

// DefaultChunkSize is returned to bucket-bound uploaders absent a
// per-bucket override; it matches the bucket content store's expectation
// that every chunk but the last is exactly this size.
const DefaultChunkSize = 1 << 19 // 512 KiB

// Engine is the allocation and quota coordinator: it tracks per-user byte
// budgets, which bucket owns bytes for each hash, and each bucket's spare
// capacity. Every public method serializes through a single mutex, the
// same single-threaded-cooperative modeling used by bucketstore.Store.
type Engine struct {
	mu sync.Mutex

	users       map[ids.UserId]*UserRecord
	blobBuckets map[ids.Hash]*BlobBucketEntry
	buckets     *buckets

	// outboxes holds one outbound IndexEvent queue per bucket, draining to
	// the index->bucket sync stream (UserAdded/UserRemoved/AccessorRemoved).
	outboxes map[ids.BucketId]*reconcile.Queue[reconcile.IndexEvent]

	// rollout tracks which buckets an operator has requested drained for
	// maintenance mode ahead of decommissioning; see pkg/index/rollout.
	rollout *rollout.Queue

	metrics *metrics.IndexMetrics
}

// NewEngine creates an empty allocation engine.
func NewEngine(m *metrics.IndexMetrics) *Engine {
	return &Engine{
		users:       make(map[ids.UserId]*UserRecord),
		blobBuckets: make(map[ids.Hash]*BlobBucketEntry),
		buckets:     newBuckets(),
		outboxes:    make(map[ids.BucketId]*reconcile.Queue[reconcile.IndexEvent]),
		rollout:     rollout.NewQueue(),
		metrics:     m,
	}
}

// RegisterBucket makes the engine aware of a bucket's capacity, enabling it
// as an allocation target. Idempotent: re-registering updates the limit.
func (e *Engine) RegisterBucket(id ids.BucketId, dataLimit uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buckets.register(id, dataLimit)
	if _, ok := e.outboxes[id]; !ok {
		e.outboxes[id] = reconcile.NewQueue[reconcile.IndexEvent]()
	}
	e.refreshBucketGauge()
}

// AddUser creates a UserRecord with the given byte_limit. Guarded at the
// transport layer by a service-principal check (§6): only an operator may
// call this.
func (e *Engine) AddUser(user ids.UserId, byteLimit uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.users[user] = &UserRecord{ByteLimit: byteLimit}
	e.broadcastLocked(reconcile.NewUserAddedEvent(user))
	e.refreshUserGauge()
}

// RemoveUser deletes a UserRecord and cascades UserRemoved to every known
// bucket, which in turn deletes every file the user owns.
func (e *Engine) RemoveUser(user ids.UserId) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.users, user)
	e.broadcastLocked(reconcile.NewUserRemovedEvent(user))
	e.refreshUserGauge()
}

// RemoveAccessor cascades AccessorRemoved to every known bucket.
func (e *Engine) RemoveAccessor(accessor ids.AccessorId) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broadcastLocked(reconcile.NewAccessorRemovedEvent(accessor))
}

func (e *Engine) broadcastLocked(event reconcile.IndexEvent) {
	for _, q := range e.outboxes {
		q.Enqueue(event)
	}
}

// AllocatedBucket is the v2 allocation query (§4.2). It picks a bucket for
// a novel hash without recording the choice, and mutates neither the
// Buckets directory nor user or blob-bucket accounting: that only happens
// when the bucket later reports the completed BlobReferenceAdded.
func (e *Engine) AllocatedBucket(args AllocatedBucketArgs) (AllocatedBucketResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	user, ok := e.users[args.Caller]
	if !ok {
		return AllocatedBucketResult{}, NewUserNotFoundError()
	}

	projected := e.projectAllowanceLocked(args.Caller, user, args.FileHash, args.FileSize)
	if projected.BytesUsedAfterOperation > user.ByteLimit {
		return AllocatedBucketResult{}, NewAllowanceExceededError(projected)
	}

	bucketID, ok := e.resolveBucketLocked(args.FileHash, args.FileSize)
	if !ok {
		if e.metrics != nil {
			e.metrics.RecordAllocationFailure("bucket_unavailable")
		}
		return AllocatedBucketResult{}, NewBucketUnavailableError()
	}

	return AllocatedBucketResult{
		BucketID:           bucketID,
		ChunkSize:          DefaultChunkSize,
		ProjectedAllowance: projected,
	}, nil
}

// AllocatedBucketV1 is the legacy allocation endpoint, translating to/from
// the v2 shape per §6's v1/v2 compatibility rule. Implementations MUST
// support both endpoints during rollout.
func (e *Engine) AllocatedBucketV1(args AllocatedBucketArgsV1) (AllocatedBucketResultV1, error) {
	v2, err := e.AllocatedBucket(args.ToV2Args())
	if err != nil {
		return AllocatedBucketResultV1{}, err
	}
	return ProjectedAllowanceV2ToV1(v2), nil
}

// ReferenceCounts is the pure query counterpart of AllocatedBucket: it
// projects whether an upload would be accepted without allocating a
// bucket or mutating any state.
func (e *Engine) ReferenceCounts(caller ids.UserId, fileHash ids.Hash, fileSize uint64) (CanForwardResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	user, ok := e.users[caller]
	if !ok {
		return CanForwardResult{}, NewUserNotFoundError()
	}

	projected := e.projectAllowanceLocked(caller, user, fileHash, fileSize)
	return CanForwardResult{
		CanForward:         projected.BytesUsedAfterOperation <= user.ByteLimit,
		ProjectedAllowance: projected,
	}, nil
}

// projectAllowanceLocked computes what caller's bytes_used would become if
// they uploaded fileSize bytes of fileHash: zero additional cost if caller
// already references that hash (§4.2 rule 2), fileSize otherwise.
func (e *Engine) projectAllowanceLocked(caller ids.UserId, user *UserRecord, fileHash ids.Hash, fileSize uint64) ProjectedAllowance {
	delta := fileSize
	if entry, ok := e.blobBuckets[fileHash]; ok {
		if _, referenced := entry.UserSet[caller]; referenced {
			delta = 0
		}
	}
	after := user.BytesUsed + delta
	return ProjectedAllowance{
		ByteLimit:               user.ByteLimit,
		BytesUsed:               user.BytesUsed,
		BytesUsedAfterUpload:    after,
		BytesUsedAfterOperation: after,
	}
}

func (e *Engine) resolveBucketLocked(fileHash ids.Hash, fileSize uint64) (ids.BucketId, bool) {
	if entry, ok := e.blobBuckets[fileHash]; ok {
		return entry.Bucket, true
	}
	return e.buckets.allocate(fileSize, e.rollout.IsInProgress)
}

// AddBlobReference applies a bucket-reported BlobReferenceAdded (§4.2's
// "Reference reconciliation"). If accepting it would exceed the uploader's
// allowance, returns a BlobReferenceRejected for the bucket to act on
// instead of an error: this is an expected outcome of the protocol, not a
// failure of the call itself.
func (e *Engine) AddBlobReference(event BlobReferenceAdded) (*BlobReferenceRejected, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	user, ok := e.users[event.UploadedBy]
	if !ok {
		return nil, NewUserNotFoundError()
	}

	entry, known := e.blobBuckets[event.BlobHash]
	alreadyReferenced := known
	if known {
		_, alreadyReferenced = entry.UserSet[event.UploadedBy]
	}

	if alreadyReferenced {
		// Idempotent replay: the user already references this hash, so no
		// additional bytes are charged (§4.3 delivery semantics).
		return nil, nil
	}

	if user.BytesUsed+event.BlobSize > user.ByteLimit {
		return &BlobReferenceRejected{Bucket: event.Bucket, BlobHash: event.BlobHash}, nil
	}

	user.BytesUsed += event.BlobSize
	if e.metrics != nil {
		e.metrics.RecordBytesAllocated(event.BlobSize)
	}

	if !known {
		entry = &BlobBucketEntry{
			Size:    event.BlobSize,
			Bucket:  event.Bucket,
			UserSet: make(map[ids.UserId]struct{}),
		}
		e.blobBuckets[event.BlobHash] = entry
		e.buckets.chargeBucket(event.Bucket, event.BlobSize)
	}
	entry.UserSet[event.UploadedBy] = struct{}{}

	e.refreshUserGauge()
	return nil, nil
}

// RemoveBlobReference applies a bucket-reported BlobReferenceRemoved.
func (e *Engine) RemoveBlobReference(event BlobReferenceRemoved) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	user, ok := e.users[event.UploadedBy]
	if !ok {
		return NewUserNotFoundError()
	}

	entry, known := e.blobBuckets[event.BlobHash]
	if !known {
		// Idempotent replay of an already-removed reference: no-op.
		return nil
	}
	if _, referenced := entry.UserSet[event.UploadedBy]; !referenced {
		return nil
	}

	size := entry.Size
	delete(entry.UserSet, event.UploadedBy)

	if size > user.BytesUsed {
		panic(&ConsistencyViolation{Reason: "user bytes_used underflowed on blob reference removal"})
	}
	user.BytesUsed -= size

	if event.BlobDeleted || len(entry.UserSet) == 0 {
		delete(e.blobBuckets, event.BlobHash)
		e.buckets.releaseBucket(entry.Bucket, entry.Size)
	}

	e.refreshUserGauge()
	return nil
}

// IsUserKnown reports whether the index holds a UserRecord for user.
func (e *Engine) IsUserKnown(user ids.UserId) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.users[user]
	return ok
}

// UserBytesUsed returns the current accounted usage for user.
func (e *Engine) UserBytesUsed(user ids.UserId) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.users[user]
	if !ok {
		return 0, NewUserNotFoundError()
	}
	return rec.BytesUsed, nil
}

func (e *Engine) refreshUserGauge() {
	if e.metrics == nil {
		return
	}
	e.metrics.SetUserCount(len(e.users))
}

func (e *Engine) refreshBucketGauge() {
	if e.metrics == nil {
		return
	}
	e.metrics.SetBucketCount(len(e.buckets.records))
}

// DrainOutbox marks up to maxBatch pending IndexEvents for bucket as
// in-flight for delivery via c2c_sync_index.
func (e *Engine) DrainOutbox(bucket ids.BucketId, maxBatch int) ([]reconcile.IndexEvent, bool) {
	e.mu.Lock()
	q, ok := e.outboxes[bucket]
	e.mu.Unlock()
	if !ok {
		return nil, false
	}
	return q.TryTakeBatch(maxBatch)
}

// AckOutbox clears the in-flight marker for bucket after a successful push.
func (e *Engine) AckOutbox(bucket ids.BucketId) {
	e.mu.Lock()
	q, ok := e.outboxes[bucket]
	e.mu.Unlock()
	if ok {
		q.MarkSuccess()
	}
}

// RequeueOutbox re-queues bucket's in-flight batch at the head after a
// failed or timed-out push.
func (e *Engine) RequeueOutbox(bucket ids.BucketId) {
	e.mu.Lock()
	q, ok := e.outboxes[bucket]
	e.mu.Unlock()
	if ok {
		q.MarkFailure()
	}
}

// EnqueueBucketDrain requests that bucket be drained of in-flight
// allocations ahead of maintenance mode. Once enqueued, resolveBucketLocked
// stops handing bucket out for fresh allocations as soon as an operator
// takes it off the pending queue with TryTakeNextBucketDrain.
func (e *Engine) EnqueueBucketDrain(bucket ids.BucketId) {
	e.rollout.Enqueue(bucket)
}

// TryTakeNextBucketDrain pops the next bucket awaiting maintenance-mode
// drain and marks it in progress, excluding it from AllocatedBucket's
// fresh-allocation pool until MarkBucketDrainSuccess or
// MarkBucketDrainFailure clears it.
func (e *Engine) TryTakeNextBucketDrain() (ids.BucketId, bool) {
	return e.rollout.TryTakeNext()
}

// MarkBucketDrainSuccess records that bucket finished draining and is safe
// to decommission.
func (e *Engine) MarkBucketDrainSuccess(bucket ids.BucketId) {
	e.rollout.MarkSuccess(bucket)
}

// MarkBucketDrainFailure records that bucket's drain did not complete, with
// an operator-supplied reason, and returns it to normal allocation rotation.
func (e *Engine) MarkBucketDrainFailure(bucket ids.BucketId, reason string) {
	e.rollout.MarkFailure(bucket, reason)
}

// RolloutMetrics reports the current maintenance-mode rollout queue depth
// and a reason-grouped summary of failed drains.
func (e *Engine) RolloutMetrics() rollout.Metrics {
	return e.rollout.Metrics()
}
