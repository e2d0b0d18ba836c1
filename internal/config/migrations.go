package config

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationFS embed.FS

// Migrate applies all pending up migrations for the store's dialect.
func (s *Store) Migrate() error {
	m, closeFn, err := s.newMigrator()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent steps migrations.
func (s *Store) MigrateDown(steps int) error {
	m, closeFn, err := s.newMigrator()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationVersion returns the applied schema version and whether the last
// migration left the schema dirty.
func (s *Store) MigrationVersion() (uint, bool, error) {
	m, closeFn, err := s.newMigrator()
	if err != nil {
		return 0, false, err
	}
	defer closeFn()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// newMigrator builds a migrator over the embedded SQL for this dialect.
// SQLite reuses the store's own handle (an in-memory database only exists on
// that connection), so its close func must not close the driver. Postgres
// gets a dedicated connection that is released afterwards.
func (s *Store) newMigrator() (*migrate.Migrate, func(), error) {
	dialect := "sqlite"
	if s.driver == DriverPostgres {
		dialect = "postgres"
	}

	src, err := iofs.New(migrationFS, "migrations/"+dialect)
	if err != nil {
		return nil, nil, fmt.Errorf("migration source: %w", err)
	}

	if s.driver == DriverSQLite {
		drv, err := sqlitemigrate.WithInstance(s.db.DB, &sqlitemigrate.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("migration driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
		if err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return m, func() { src.Close() }, nil
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, pgxMigrateURL(s.dsn))
	if err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return m, func() { _, _ = m.Close() }, nil
}

// pgxMigrateURL rewrites a postgres:// DSN into the scheme registered by
// the golang-migrate pgx/v5 driver.
func pgxMigrateURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}
