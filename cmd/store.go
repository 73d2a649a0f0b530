package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/internal/datastore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads configuration and opens the store without building an engine.
func storeSetup(_ *cobra.Command, _ []string) error {
	if err := resolveConfig(); err != nil {
		return err
	}
	if err := datastore.InitStore(rootCtx, cfg.Backend, cfg.DBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// storeCmd focused on storage management.
//
// Note: store subcommands only need the backend settings, so they skip engine
// construction. Migrations do not even open the store.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored hypotheses and entries",
	Long: `Manage the database holding hypotheses, variables and logged entries.

Supported backends: SQLite (default), MySQL, PostgreSQL, or Memory (nothing is kept)

Subcommands:
  status  - Show connection info and table sizes
  clear   - Remove all stored data
  migrate - Apply or roll back schema migrations
  export  - Write all data to Parquet files

Examples:
  # Check the default SQLite store
  hypolog store status

  # Use PostgreSQL (set connection string via env variable)
  HYPOLOG_BACKEND=postgresql HYPOLOG_DB_CONNECT="postgres://..." hypolog store migrate`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display connection details and table sizes",
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := datastore.Manager.GetStore().GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		datastore.PrintStoreStatus(os.Stdout, status)
	},
}

// storeClearCmd removes everything.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all hypotheses, variables and entries",
	Long: `Delete every stored record from the configured backend. This cannot be undone;
export first if you want to keep a copy.

Examples:
  hypolog store export --output-file backup
  hypolog store clear`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := datastore.Manager.GetStore().Clear(rootCtx); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeMigrateCmd runs schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
	Long: `Run the embedded schema migrations against the configured backend.

Examples:
  # Migrate to the latest version
  hypolog store migrate

  # Roll back everything
  hypolog store migrate --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return resolveConfig()
	},
	Run: func(_ *cobra.Command, _ []string) {
		target := viper.GetInt("target-version")
		if err := datastore.Migrate(rootCtx, os.Stdout, cfg.Backend, cfg.DBConnect, target); err != nil {
			contract.LogFatal("Failed to migrate store", err)
		}
	},
}

// storeExportCmd exports to Parquet.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all data to Parquet files",
	Long: `Write hypotheses, variables and entries to three Parquet files that share
the --output-file prefix.

Examples:
  hypolog store export --output-file hypolog
  # writes hypolog.hypotheses.parquet, hypolog.variables.parquet, hypolog.data_points.parquet`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := datastore.ExecuteExport(rootCtx, os.Stdout, datastore.Manager.GetStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export store", err)
		}
	},
}
