package index

import "github.com/coldvault/core/pkg/ids"

// buckets is the index's directory of known storage shards, an unordered
// map; allocate() scans all of it for a least-loaded candidate.
type buckets struct {
	records map[ids.BucketId]*BucketRecord
}

func newBuckets() *buckets {
	return &buckets{records: make(map[ids.BucketId]*BucketRecord)}
}

// register adds or updates a bucket's known capacity. Called when an
// operator provisions a new bucket or reports a change in data limit.
func (b *buckets) register(id ids.BucketId, dataLimit uint64) {
	rec, exists := b.records[id]
	if !exists {
		b.records[id] = &BucketRecord{ID: id, DataLimit: dataLimit}
		return
	}
	rec.DataLimit = dataLimit
	rec.Full = rec.UsedBytes >= rec.DataLimit
}

// allocate returns the least-loaded bucket whose projected used_bytes +
// fileSize stays within its data limit, skipping any bucket for which
// exclude reports true (a bucket mid maintenance-mode drain must not
// receive new allocations). Returns ok=false if none qualify.
func (b *buckets) allocate(fileSize uint64, exclude func(ids.BucketId) bool) (ids.BucketId, bool) {
	var best *BucketRecord
	for _, rec := range b.records {
		if rec.Full {
			continue
		}
		if rec.UsedBytes+fileSize > rec.DataLimit {
			continue
		}
		if exclude != nil && exclude(rec.ID) {
			continue
		}
		if best == nil || rec.UsedBytes < best.UsedBytes {
			best = rec
		}
	}
	if best == nil {
		return ids.BucketId{}, false
	}
	return best.ID, true
}

// chargeBucket adds size to bucket's used_bytes, marking it full if it now
// meets its data limit. No-op if the bucket is unknown (defensive: the
// index should never see a bucket id it didn't allocate from).
func (b *buckets) chargeBucket(id ids.BucketId, size uint64) {
	rec, ok := b.records[id]
	if !ok {
		return
	}
	rec.UsedBytes += size
	rec.Full = rec.UsedBytes >= rec.DataLimit
}

// releaseBucket subtracts size from bucket's used_bytes, clearing full.
func (b *buckets) releaseBucket(id ids.BucketId, size uint64) {
	rec, ok := b.records[id]
	if !ok {
		return
	}
	if size > rec.UsedBytes {
		panic(&ConsistencyViolation{Reason: "bucket used_bytes underflowed on release"})
	}
	rec.UsedBytes -= size
	rec.Full = rec.UsedBytes >= rec.DataLimit
}

func (b *buckets) snapshot() []BucketRecord {
	out := make([]BucketRecord, 0, len(b.records))
	for _, rec := range b.records {
		out = append(out, *rec)
	}
	return out
}

func (b *buckets) restore(records []BucketRecord) {
	b.records = make(map[ids.BucketId]*BucketRecord, len(records))
	for _, rec := range records {
		r := rec
		b.records[rec.ID] = &r
	}
}
