package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ubloom/ubloom/backend/internal/config"
	"github.com/ubloom/ubloom/backend/internal/store/sqlite"
)

var migrateDBPath string

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDBPath, "db", "", "SQLite database path (defaults to DATABASE_PATH or ubloom.db)")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the account database schema",
	Long: `Apply or inspect the SQLite schema migrations.

Examples:
  ubloomctl migrate up
  ubloomctl migrate status --db /var/lib/ubloom/ubloom.db`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := sqlite.Migrate(db); err != nil {
			return err
		}
		version, err := sqlite.SchemaVersion(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of each migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		return sqlite.MigrationStatus(db, log.New(cmd.OutOrStdout(), "", 0))
	},
}

func openDatabase() (*sql.DB, error) {
	path := migrateDBPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.Database.Path
	}
	return sqlite.Open(path)
}
