package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReconcileMetrics is the Prometheus-backed instrumentation for the
// bidirectional sync-event queues between the index and its buckets.
type ReconcileMetrics struct {
	eventsEnqueued *prometheus.CounterVec
	eventsAcked    *prometheus.CounterVec
	eventsRetried  *prometheus.CounterVec
	queueDepth     *prometheus.GaugeVec
}

// NewReconcileMetrics creates the reconciliation metric set against the
// process-wide registry. Returns nil if InitRegistry has not been called.
func NewReconcileMetrics() *ReconcileMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &ReconcileMetrics{
		eventsEnqueued: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_events_enqueued_total",
			Help: "Total number of sync events enqueued, by peer and event kind",
		}, []string{"peer", "kind"}),
		eventsAcked: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_events_acked_total",
			Help: "Total number of sync events acknowledged as applied, by peer",
		}, []string{"peer"}),
		eventsRetried: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_events_retried_total",
			Help: "Total number of batch push retries, by peer",
		}, []string{"peer"}),
		queueDepth: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "reconcile_queue_depth",
			Help: "Number of events currently queued for one peer",
		}, []string{"peer"}),
	}
}

// RecordEnqueued increments the enqueued-event counter for one peer and event kind.
func (m *ReconcileMetrics) RecordEnqueued(peer, kind string) {
	if m == nil {
		return
	}
	m.eventsEnqueued.WithLabelValues(peer, kind).Inc()
}

// RecordAcked increments the acknowledged-event counter for one peer.
func (m *ReconcileMetrics) RecordAcked(peer string, n int) {
	if m == nil {
		return
	}
	m.eventsAcked.WithLabelValues(peer).Add(float64(n))
}

// RecordRetried increments the retry counter for one peer.
func (m *ReconcileMetrics) RecordRetried(peer string) {
	if m == nil {
		return
	}
	m.eventsRetried.WithLabelValues(peer).Inc()
}

// SetQueueDepth records the current queue depth for one peer.
func (m *ReconcileMetrics) SetQueueDepth(peer string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(peer).Set(float64(depth))
}
