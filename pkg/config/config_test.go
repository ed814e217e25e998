package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/core/pkg/config"
)

func TestLoadAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
service_auth:
  secret: "0123456789abcdef0123456789abcdef"
  principal: "bucket-1"

bucket:
  id: "bucket-1"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "memory", cfg.Bucket.Backend.Type)
	assert.Equal(t, uint64(100<<30), cfg.Bucket.DataLimitBytes)
	assert.Equal(t, 10000, cfg.Reconcile.MaxBatchSize)
	assert.Equal(t, "coldvault", cfg.ServiceAuth.Issuer)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err) // service_auth.secret is required and has no default
	assert.Nil(t, cfg)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := `
service_auth:
  secret: "too-short"
  principal: "bucket-1"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	_, err := config.Load(configPath)
	assert.Error(t, err)
}

func TestValidateRequiresBadgerDirWhenSelected(t *testing.T) {
	cfg := &config.Config{
		ShutdownTimeout: 1,
		HTTPAddr:        ":8443",
		Logging:         config.LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		ServiceAuth:     config.ServiceAuthConfig{Secret: "0123456789abcdef0123456789abcdef", Principal: "bucket-1"},
		Reconcile:       config.ReconcileConfig{Interval: 1, MaxBatchSize: 10},
		Bucket: config.BucketConfig{
			Backend: config.BackendConfig{Type: "badger"},
		},
	}

	err := config.Validate(cfg)
	assert.ErrorContains(t, err, "badger.dir")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := &config.Config{
		ShutdownTimeout: 1,
		HTTPAddr:        ":8443",
		Logging:         config.LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		ServiceAuth:     config.ServiceAuthConfig{Secret: "0123456789abcdef0123456789abcdef", Principal: "bucket-1"},
		Reconcile:       config.ReconcileConfig{Interval: 1, MaxBatchSize: 10},
	}

	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ServiceAuth.Secret, loaded.ServiceAuth.Secret)
}
