package kv

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// migrateSchema brings the kv table at dbPath up to the latest embedded
// version and returns that version. It uses its own connection because
// closing the migrator closes the database handed to it.
func migrateSchema(dbPath string) (uint, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer conn.Close()

	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("load embedded schema: %w", err)
	}
	target, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("sqlite migration target: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("init migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
