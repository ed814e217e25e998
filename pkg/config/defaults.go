package config

import (
	"strings"
	"time"
)

// ApplyDefaults fills unspecified fields with sensible defaults, the same
// zero-value-replacement strategy the control plane's own config uses.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyServiceAuthDefaults(&cfg.ServiceAuth)
	applyReconcileDefaults(&cfg.Reconcile)
	applyBucketDefaults(&cfg.Bucket)
	applyIndexDefaults(&cfg.Index)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8443"
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyServiceAuthDefaults(cfg *ServiceAuthConfig) {
	if cfg.Issuer == "" {
		cfg.Issuer = "coldvault"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
}

func applyReconcileDefaults(cfg *ReconcileConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = 10000 // matches MAX_EVENTS_TO_SYNC_PER_BATCH
	}
}

func applyBucketDefaults(cfg *BucketConfig) {
	if cfg.Backend.Type == "" {
		cfg.Backend.Type = "memory"
	}
	if cfg.DataLimitBytes == 0 {
		cfg.DataLimitBytes = 100 << 30 // 100 GiB
	}
	if cfg.MaxBlobSizeBytes == 0 {
		cfg.MaxBlobSizeBytes = 5 << 30 // 5 GiB
	}
}

func applyIndexDefaults(cfg *IndexConfig) {
	if cfg.Persistence.Type == "" {
		cfg.Persistence.Type = "memory"
	}
	if cfg.Persistence.Postgres.MaxOpenConns == 0 {
		cfg.Persistence.Postgres.MaxOpenConns = 10
	}
	if cfg.Persistence.Postgres.ConnMaxLifetime == 0 {
		cfg.Persistence.Postgres.ConnMaxLifetime = time.Hour
	}
	if cfg.Persistence.SnapshotInterval == 0 {
		cfg.Persistence.SnapshotInterval = time.Minute
	}
}
