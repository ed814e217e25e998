// Package postgres is indexstore's durable Store, backing the "postgres"
// persistence.type with a full-replace snapshot written through GORM,
// mirroring the control-plane store's GORM-over-pgx wiring.
package postgres

import (
	"context"
	"fmt"
	"time"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coldvault/core/pkg/index"
	"github.com/coldvault/core/pkg/indexstore"
)

// Config configures a Store's connection pool.
type Config struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration

	// MigrationsPath overrides the embedded migration set with a directory
	// on disk; empty means use the embedded set.
	MigrationsPath string
}

// Store is indexstore.Store backed by PostgreSQL.
type Store struct {
	db *gorm.DB
}

var _ indexstore.Store = (*Store)(nil)

// Open runs the snapshot schema's golang-migrate migrations, connects GORM
// over the same DSN, and returns a ready Store. Schema ownership belongs to
// the migrations, not GORM's AutoMigrate, so the embedded SQL is the single
// source of truth across deploys.
func Open(cfg Config) (*Store, error) {
	if err := runMigrations(cfg.DSN, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("run indexstore migrations: %w", err)
	}

	db, err := gorm.Open(gormpostgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &Store{db: db}, nil
}

// Save overwrites the persisted snapshot with snap inside one transaction:
// every table is truncated and rewritten, matching the engine's own
// all-or-nothing Snapshot/Restore semantics.
func (s *Store) Save(ctx context.Context, snap index.Snapshot) error {
	users, buckets, blobBuckets, outbox := snapshotToRows(snap)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range allModels() {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("clear snapshot table: %w", err)
			}
		}
		if len(users) > 0 {
			if err := tx.Create(&users).Error; err != nil {
				return fmt.Errorf("save users: %w", err)
			}
		}
		if len(buckets) > 0 {
			if err := tx.Create(&buckets).Error; err != nil {
				return fmt.Errorf("save buckets: %w", err)
			}
		}
		if len(blobBuckets) > 0 {
			if err := tx.Create(&blobBuckets).Error; err != nil {
				return fmt.Errorf("save blob buckets: %w", err)
			}
		}
		if len(outbox) > 0 {
			if err := tx.Create(&outbox).Error; err != nil {
				return fmt.Errorf("save outbox events: %w", err)
			}
		}
		return nil
	})
}

// Load reads back the persisted snapshot. ok is false when no snapshot has
// ever been saved (every table empty).
func (s *Store) Load(ctx context.Context) (index.Snapshot, bool, error) {
	var users []userRow
	var buckets []bucketRow
	var blobBuckets []blobBucketRow
	var outbox []outboxEventRow

	db := s.db.WithContext(ctx)
	if err := db.Find(&users).Error; err != nil {
		return index.Snapshot{}, false, fmt.Errorf("load users: %w", err)
	}
	if err := db.Find(&buckets).Error; err != nil {
		return index.Snapshot{}, false, fmt.Errorf("load buckets: %w", err)
	}
	if err := db.Find(&blobBuckets).Error; err != nil {
		return index.Snapshot{}, false, fmt.Errorf("load blob buckets: %w", err)
	}
	if err := db.Order("bucket_id, seq").Find(&outbox).Error; err != nil {
		return index.Snapshot{}, false, fmt.Errorf("load outbox events: %w", err)
	}

	if len(users) == 0 && len(buckets) == 0 && len(blobBuckets) == 0 && len(outbox) == 0 {
		return index.Snapshot{}, false, nil
	}

	snap, err := rowsToSnapshot(users, buckets, blobBuckets, outbox)
	if err != nil {
		return index.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
