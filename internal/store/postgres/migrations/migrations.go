// Package migrations embeds and applies contractreg's postgres schema
// (teams, assets, contracts, proposals, registrations, api_keys,
// audit_events — spec §6/§4) using golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var schemaFiles embed.FS

// RunMigrations brings db's schema up to the latest embedded version and
// returns the version it ended at. If autoMigrate is false it logs the
// current version and applies nothing, so an operator can run the
// contractreg binary read-only against a schema someone else migrates.
func RunMigrations(db *sql.DB, autoMigrate bool) (uint, error) {
	sourceDriver, err := iofs.New(schemaFiles, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return 0, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return 0, fmt.Errorf("failed to get current migration version: %w", err)
	}

	if dirty {
		slog.Warn("contractreg schema is in a dirty state, migration was interrupted",
			"version", version,
		)
		if err := m.Force(int(version)); err != nil {
			return 0, fmt.Errorf("failed to recover dirty migration state at version %d: %w", version, err)
		}
		slog.Info("recovered dirty migration state", "version", version)
	}

	if !autoMigrate {
		slog.Info("auto-migration disabled, contractreg schema left as-is",
			"current_version", version,
			"dirty", dirty,
		)
		return version, nil
	}

	slog.Info("applying contractreg schema migrations", "current_version", version)

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to get updated migration version: %w", err)
	}

	if newVersion == version {
		slog.Info("contractreg schema already up to date", "version", version)
	} else {
		slog.Info("contractreg schema migrated", "from_version", version, "to_version", newVersion)
	}

	return newVersion, nil
}
