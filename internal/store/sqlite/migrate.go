package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// goose keeps its settings in package state.
var gooseMu sync.Mutex

func setupGoose(logger goose.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(logger)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Migrate applies every pending migration.
func Migrate(db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(goose.NopLogger()); err != nil {
		return err
	}
	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrationStatus prints the state of each migration through logger.
func MigrationStatus(db *sql.DB, logger goose.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(logger); err != nil {
		return err
	}
	return goose.Status(db, migrationsDir)
}

// SchemaVersion returns the latest applied migration version.
func SchemaVersion(db *sql.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(goose.NopLogger()); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}
