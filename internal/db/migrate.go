package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// schemaDir holds the numbered up/down pairs: tables, the seeded menu and the
// checkout idempotency keys.
const schemaDir = "schema"

//go:embed schema/*.sql
var schemaFiles embed.FS

// MigrateUp brings the pizzeria schema to the newest embedded version. A
// schema left dirty by an interrupted run is reported as an error so the
// service does not start against a half-applied schema.
func MigrateUp(dsn string, logger *log.Logger) error {
	conn, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("schema: connect: %w", err)
	}
	defer conn.Close()

	m, err := newMigrator(conn)
	if err != nil {
		return err
	}

	from, _, _ := m.Version()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("schema: apply from version %d: %w", from, err)
	}

	to, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Printf("schema: no versions embedded")
	case err != nil:
		return fmt.Errorf("schema: read version: %w", err)
	case dirty:
		return fmt.Errorf("schema: version %d is dirty", to)
	case to == from:
		logger.Printf("schema: up to date at version %d", to)
	default:
		logger.Printf("schema: moved from version %d to %d", from, to)
	}
	return nil
}

func newMigrator(conn *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(schemaFiles, schemaDir)
	if err != nil {
		return nil, fmt.Errorf("schema: read embedded files: %w", err)
	}
	target, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("schema: postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("schema: migrator: %w", err)
	}
	return m, nil
}
