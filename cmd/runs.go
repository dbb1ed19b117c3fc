package cmd

import (
	"fmt"

	"github.com/huangsam/gitreport/internal/iocache"
	"github.com/huangsam/gitreport/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsConfig resolves the run history backend. An unset backend means none.
func runsConfig() error {
	backend, connStr, err := backendSetup("runs-backend", "runs-db-connect", schema.NoneBackend)
	if err != nil {
		return err
	}
	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsSetup opens the run store without touching the report cache.
func runsSetup(_ *cobra.Command, _ []string) error {
	if err := runsConfig(); err != nil {
		return err
	}
	if err := iocache.InitStores("", "", cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}
	return nil
}

// runsMigrateSetup only resolves the backend. Migrations and clearing open the
// database themselves, so they also work against a fresh database.
func runsMigrateSetup(_ *cobra.Command, _ []string) error {
	return runsConfig()
}

// runsCmd focused on run history management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the history of report runs",
	Long: `Manage the history of report runs used for trend tracking.

When --runs-backend is set, every report run stores:
- Run metadata (repository, head, timestamps, configuration, duration)
- Lines added and removed per language
- Commits and lines per contributor

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Examples:
  # Check tracking status
  gitreport runs status --runs-backend sqlite

  # Export for analysis in pandas or DuckDB
  gitreport runs export --runs-backend sqlite --output-file history`,
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored runs",
	Long: `Delete every stored run together with its language and contributor rows.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  gitreport runs export --runs-backend sqlite --output-file backup
  gitreport runs clear --runs-backend sqlite`,
	PreRunE: runsMigrateSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := iocache.ClearRuns(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
			return fmt.Errorf("failed to clear run history: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run history cleared successfully.")
		return nil
	},
}

// runsStatusCmd shows run history status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show the backend, the number of stored runs and repositories, the
latest run and the row count of every run table.

Examples:
  gitreport runs status --runs-backend sqlite`,
	PreRunE: runsSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store := iocache.Manager.GetRunStore()
		if store == nil {
			return fmt.Errorf("run store is not initialized")
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get run history status: %w", err)
		}
		iocache.PrintRunStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

// runsExportCmd exports the run history to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run history to Parquet",
	Long: `Export every stored run to Parquet files for analytics tools.

Writes three files next to the given prefix:
- <prefix>.runs.parquet
- <prefix>.languages.parquet
- <prefix>.contributors.parquet

Requires: --output-file parameter

Examples:
  gitreport runs export --runs-backend sqlite --output-file history
  duckdb -c "SELECT * FROM read_parquet('history.runs.parquet') LIMIT 10"`,
	PreRunE: runsSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := iocache.ExecuteRunsExport(iocache.Manager.GetRunStore(), cfg.OutputFile, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to export run history: %w", err)
		}
		return nil
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions of the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  gitreport runs migrate --runs-backend postgresql --runs-db-connect "host=... dbname=..."

  # Rollback every migration
  gitreport runs migrate --runs-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}
