package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg's struct tags with go-playground/validator, the same
// library the control-plane config declares its constraints against, plus
// the backend-discriminated checks validator's tag syntax can't express
// across nested structs.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.Bucket.Backend.Type {
	case "badger":
		if cfg.Bucket.Backend.Badger.Dir == "" {
			return fmt.Errorf("invalid configuration: bucket.backend.badger.dir is required when bucket.backend.type is badger")
		}
	case "s3":
		if cfg.Bucket.Backend.S3.Bucket == "" {
			return fmt.Errorf("invalid configuration: bucket.backend.s3.bucket is required when bucket.backend.type is s3")
		}
	}

	if cfg.Index.Persistence.Type == "postgres" && cfg.Index.Persistence.Postgres.DSN == "" {
		return fmt.Errorf("invalid configuration: index.persistence.postgres.dsn is required when index.persistence.type is postgres")
	}

	return nil
}
