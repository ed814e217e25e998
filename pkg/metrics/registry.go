// Package metrics provides a process-wide Prometheus registry and the
// gauge/counter sets exposed by the bucket and index roles.
//
// Call InitRegistry once at process startup. Every constructor in this
// package returns nil when metrics are disabled, and every metrics method
// is nil-receiver-safe, so callers can thread a possibly-nil *BucketMetrics
// or *IndexMetrics through the storage engine with zero overhead when
// metrics are off.
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry *prometheus.Registry
	enabled  atomic.Bool
	initOnce sync.Once
)

// InitRegistry creates the process-wide Prometheus registry and registers
// the standard Go/process collectors alongside it. Subsequent calls are a
// no-op; the registry created by the first call is reused.
func InitRegistry() *prometheus.Registry {
	initOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
		enabled.Store(true)
	})
	return registry
}

// GetRegistry returns the process-wide registry, or nil if InitRegistry has
// not been called.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return enabled.Load()
}
