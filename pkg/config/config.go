// Package config loads bucket and index server configuration from a YAML
// file, environment variables, and defaults, following the same
// file/env/defaults precedence and mapstructure/viper wiring the control
// plane uses for its own Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration shared by the bucket and index binaries.
// ApplyDefaults fills both Bucket and Index, but each process reads only
// its own section — `coldvault-bucket` reads Bucket, `coldvault-index`
// reads Index, and `storectl` reads neither (it talks over the wire).
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout bounds how long the HTTP server waits for in-flight
	// requests to drain on SIGTERM.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// HTTPAddr is the listen address for the component's wire API.
	HTTPAddr string `mapstructure:"http_addr" validate:"required" yaml:"http_addr"`

	// ServiceAuth configures the service-principal JWTs used between
	// buckets, the index, and operator tooling.
	ServiceAuth ServiceAuthConfig `mapstructure:"service_auth" yaml:"service_auth"`

	// Reconcile configures the bidirectional reconciliation drainers.
	Reconcile ReconcileConfig `mapstructure:"reconcile" yaml:"reconcile"`

	Bucket BucketConfig `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Index  IndexConfig  `mapstructure:"index" yaml:"index,omitempty"`
}

// ServiceAuthConfig configures svcauth.Service.
type ServiceAuthConfig struct {
	// Secret signs and verifies every service-principal token. Must be at
	// least 32 characters; set via COLDVAULT_SERVICE_AUTH_SECRET rather
	// than committed to a config file.
	Secret string `mapstructure:"secret" validate:"required,min=32" yaml:"secret"`

	Issuer   string        `mapstructure:"issuer" yaml:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`

	// Principal is this process's own identity, used when it calls peers.
	Principal string `mapstructure:"principal" validate:"required" yaml:"principal"`
}

// ReconcileConfig configures the reconcile.Drainer cadence shared by both
// the bucket->index and index->bucket sync directions.
type ReconcileConfig struct {
	// Interval is how often a drainer attempts to push a pending batch.
	Interval time.Duration `mapstructure:"interval" validate:"required,gt=0" yaml:"interval"`

	// MaxBatchSize bounds events per push, matching MAX_EVENTS_TO_SYNC_PER_BATCH.
	MaxBatchSize int `mapstructure:"max_batch_size" validate:"omitempty,gt=0" yaml:"max_batch_size"`
}

// LoggingConfig controls log output, matching the teacher's own field set.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing export.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
}

// MetricsConfig controls the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// BucketConfig configures one bucket shard.
type BucketConfig struct {
	// ID is this bucket's identity, as registered with the index.
	ID string `mapstructure:"id" yaml:"id,omitempty"`

	DataLimitBytes   uint64 `mapstructure:"data_limit_bytes" validate:"omitempty,gt=0" yaml:"data_limit_bytes,omitempty"`
	MaxBlobSizeBytes uint64 `mapstructure:"max_blob_size_bytes" validate:"omitempty,gt=0" yaml:"max_blob_size_bytes,omitempty"`

	// Backend selects the blob storage implementation: "memory", "badger", or "s3".
	Backend BackendConfig `mapstructure:"backend" yaml:"backend,omitempty"`

	// IndexBaseURL is where this bucket pushes its outbound reconciliation
	// batches.
	IndexBaseURL string `mapstructure:"index_base_url" validate:"omitempty,url" yaml:"index_base_url,omitempty"`

	// IndexPrincipal is the service-auth principal the index identifies
	// itself as. Only a caller presenting this principal may invoke
	// c2c_sync_index against this bucket.
	IndexPrincipal string `mapstructure:"index_principal" yaml:"index_principal,omitempty"`
}

// BackendConfig selects and configures a bucketstore.BlobBackend.
type BackendConfig struct {
	Type   string       `mapstructure:"type" validate:"omitempty,oneof=memory badger s3" yaml:"type,omitempty"`
	Badger BadgerConfig `mapstructure:"badger" yaml:"badger,omitempty"`
	S3     S3Config     `mapstructure:"s3" yaml:"s3,omitempty"`
}

// BadgerConfig configures the embedded BadgerDB blob backend. Dir is
// required when BackendConfig.Type is "badger"; checked in Validate rather
// than via a struct tag since the discriminator lives on the parent struct.
type BadgerConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`
}

// S3Config configures the S3-backed blob backend. Bucket is required when
// BackendConfig.Type is "s3"; see BadgerConfig's comment.
type S3Config struct {
	Bucket string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Region string `mapstructure:"region" yaml:"region,omitempty"`

	// AccessKeyID/SecretAccessKey pin the backend to static credentials
	// instead of the default provider chain (env, shared config, instance
	// role). Leave both empty to use the default chain.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
}

// IndexConfig configures the allocation and quota coordinator.
type IndexConfig struct {
	// Buckets lists every bucket shard the index knows how to reach, both
	// for allocation accounting and for pushing index->bucket sync batches.
	Buckets []BucketEndpoint `mapstructure:"buckets" yaml:"buckets,omitempty"`

	// Persistence selects the durable store backing the index's state:
	// "memory" or "postgres".
	Persistence PersistenceConfig `mapstructure:"persistence" yaml:"persistence,omitempty"`
}

// BucketEndpoint is one bucket shard as known to the index.
type BucketEndpoint struct {
	ID             string `mapstructure:"id" validate:"required" yaml:"id"`
	DataLimitBytes uint64 `mapstructure:"data_limit_bytes" validate:"required,gt=0" yaml:"data_limit_bytes"`
	BaseURL        string `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`
}

// PersistenceConfig selects the index's durable store.
type PersistenceConfig struct {
	Type     string         `mapstructure:"type" validate:"omitempty,oneof=memory postgres" yaml:"type,omitempty"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres,omitempty"`

	// SnapshotInterval sets how often the index checkpoints its full state
	// to the durable store, independent of the reconcile outbox cadence.
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval" yaml:"snapshot_interval,omitempty"`
}

// PostgresConfig configures the index's Postgres persistence layer. DSN is
// required when PersistenceConfig.Type is "postgres"; see BadgerConfig's comment.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn" yaml:"dsn,omitempty"`
	MigrationsPath  string        `mapstructure:"migrations_path" yaml:"migrations_path,omitempty"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns,omitempty"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime,omitempty"`
}

// Load reads configuration from an optional file, lets environment
// variables (COLDVAULT_*) override it, and fills whatever is still unset
// with defaults. An environment variable is read only for a key the file
// sets, except COLDVAULT_SERVICE_AUTH_SECRET, which is always read.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}
	_ = v.BindEnv("service_auth.secret", "COLDVAULT_SERVICE_AUTH_SECRET")

	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes cfg to path in YAML, creating parent directories as
// needed. Config files may carry a service-auth secret, so the file is
// written with owner-only permissions.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("COLDVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}
