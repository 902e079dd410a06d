// Package main implements ubloomctl, an operator CLI for the UBloom backend.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ubloomctl",
	Short: "Operator commands for the UBloom backend",
	Long: `ubloomctl runs the reflection engine from the command line and manages
the SQLite schema used for accounts, journals and goals.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(reflectCmd)
	rootCmd.AddCommand(migrateCmd)
}
