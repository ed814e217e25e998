package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IndexMetrics is the Prometheus-backed instrumentation for the index
// coordinator's allocation and quota engine.
type IndexMetrics struct {
	userCount          prometheus.Gauge
	bucketCount        prometheus.Gauge
	allocationFailures *prometheus.CounterVec
	bytesAllocated     prometheus.Counter
}

// NewIndexMetrics creates the index's metric set against the process-wide
// registry. Returns nil if InitRegistry has not been called.
func NewIndexMetrics() *IndexMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &IndexMetrics{
		userCount: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "index_user_count",
			Help: "Number of users known to the index",
		}),
		bucketCount: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "index_bucket_count",
			Help: "Number of bucket shards registered with the index",
		}),
		allocationFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "index_allocation_failures_total",
			Help: "Total number of allocated_bucket calls that were rejected, by reason",
		}, []string{"reason"}),
		bytesAllocated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "index_bytes_allocated_total",
			Help: "Total bytes charged against user allowances by successful allocations",
		}),
	}
}

// SetUserCount records the number of known users.
func (m *IndexMetrics) SetUserCount(n int) {
	if m == nil {
		return
	}
	m.userCount.Set(float64(n))
}

// SetBucketCount records the number of registered bucket shards.
func (m *IndexMetrics) SetBucketCount(n int) {
	if m == nil {
		return
	}
	m.bucketCount.Set(float64(n))
}

// RecordAllocationFailure increments the rejected-allocation counter for one reason.
func (m *IndexMetrics) RecordAllocationFailure(reason string) {
	if m == nil {
		return
	}
	m.allocationFailures.WithLabelValues(reason).Inc()
}

// RecordBytesAllocated adds to the total bytes charged against allowances.
func (m *IndexMetrics) RecordBytesAllocated(n uint64) {
	if m == nil {
		return
	}
	m.bytesAllocated.Add(float64(n))
}
