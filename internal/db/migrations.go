package db

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const migrationsSource = "file://migrations"

func runMigration(dbURL string, what string, step func(*migrate.Migrate) error) error {
	m, err := migrate.New(migrationsSource, dbURL)
	if err != nil {
		return fmt.Errorf("Error reading migrations: %w", err)
	}
	defer m.Close()
	err = step(m)
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("While %s: %w", what, err)
	}
	return nil
}

func MigrateUp(dbURL string) error {
	return runMigration(dbURL, "migrating up", (*migrate.Migrate).Up)
}

func MigrateDown(dbURL string) error {
	return runMigration(dbURL, "migrating down", (*migrate.Migrate).Down)
}

func Drop(dbURL string) error {
	return runMigration(dbURL, "dropping", (*migrate.Migrate).Drop)
}
