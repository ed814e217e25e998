package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BucketMetrics is the Prometheus-backed instrumentation for one bucket
// shard's content store.
type BucketMetrics struct {
	bytesUsed        prometheus.Gauge
	fileCount        prometheus.Gauge
	pendingFileCount prometheus.Gauge
	chunksAbsorbed   prometheus.Counter
	putChunkErrors   *prometheus.CounterVec
}

// NewBucketMetrics creates the bucket's metric set against the process-wide
// registry. Returns nil if InitRegistry has not been called, in which case
// every method on *BucketMetrics is a no-op.
func NewBucketMetrics() *BucketMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &BucketMetrics{
		bytesUsed: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "bucket_bytes_used",
			Help: "Bytes currently occupied by completed and pending blobs in this bucket",
		}),
		fileCount: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "bucket_file_count",
			Help: "Number of completed files held by this bucket",
		}),
		pendingFileCount: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "bucket_pending_file_count",
			Help: "Number of in-progress (not yet complete) file uploads",
		}),
		chunksAbsorbed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "bucket_chunks_absorbed_total",
			Help: "Total number of chunks accepted by put_chunk",
		}),
		putChunkErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "bucket_put_chunk_errors_total",
			Help: "Total number of put_chunk calls rejected, by error code",
		}, []string{"code"}),
	}
}

// SetBytesUsed records the bucket's current occupancy.
func (m *BucketMetrics) SetBytesUsed(n uint64) {
	if m == nil {
		return
	}
	m.bytesUsed.Set(float64(n))
}

// SetFileCount records the number of completed files held.
func (m *BucketMetrics) SetFileCount(n int) {
	if m == nil {
		return
	}
	m.fileCount.Set(float64(n))
}

// SetPendingFileCount records the number of in-progress uploads.
func (m *BucketMetrics) SetPendingFileCount(n int) {
	if m == nil {
		return
	}
	m.pendingFileCount.Set(float64(n))
}

// RecordChunkAbsorbed increments the accepted-chunk counter.
func (m *BucketMetrics) RecordChunkAbsorbed() {
	if m == nil {
		return
	}
	m.chunksAbsorbed.Inc()
}

// RecordPutChunkError increments the rejected-chunk counter for one error code.
func (m *BucketMetrics) RecordPutChunkError(code string) {
	if m == nil {
		return
	}
	m.putChunkErrors.WithLabelValues(code).Inc()
}
