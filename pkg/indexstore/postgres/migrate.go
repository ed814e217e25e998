package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver registered as "pgx"

	"github.com/coldvault/core/internal/logger"
	"github.com/coldvault/core/pkg/indexstore/postgres/migrations"
)

// runMigrations brings the snapshot schema up to date using golang-migrate.
// migrationsPath overrides the embedded migration set when non-empty; it
// comes from PostgresConfig.MigrationsPath.
func runMigrations(dsn, migrationsPath string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{
		MigrationsTable: "index_schema_migrations",
		DatabaseName:    "coldvault_index",
	})
	if err != nil {
		return fmt.Errorf("create postgres migration driver: %w", err)
	}

	var m *migrate.Migrate
	if migrationsPath != "" {
		m, err = migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
		if err != nil {
			return fmt.Errorf("create migrate instance: %w", err)
		}
	} else {
		sourceDriver, srcErr := iofs.New(migrations.FS, ".")
		if srcErr != nil {
			return fmt.Errorf("open embedded migration source: %w", srcErr)
		}
		m, err = migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
		if err != nil {
			return fmt.Errorf("create migrate instance: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		logger.Error("index schema is in a dirty migration state", logger.Err(fmt.Errorf("version %d", version)))
	}
	return nil
}
