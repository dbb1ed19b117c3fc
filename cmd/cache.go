package cmd

import (
	"fmt"
	"strings"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/internal/iocache"
	"github.com/huangsam/gitreport/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// backendSetup loads the config file and validates one database backend setting.
// An empty backend resolves to fallback.
func backendSetup(backendKey, connKey string, fallback schema.DatabaseBackend) (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString(backendKey)))
	if backend == "" {
		backend = fallback
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid %s '%s'. must be sqlite, mysql, postgresql, none", backendKey, backend)
	}
	connStr := viper.GetString(connKey)
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", fmt.Errorf("%s: %w", connKey, err)
	}
	return backend, connStr, nil
}

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := backendSetup("cache-backend", "cache-db-connect", schema.SQLiteBackend)
	if err != nil {
		return err
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization instead of the full
// sharedSetup, so no repository is needed.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the report cache",
	Long: `Manage the cache of finished reports that speeds up repeated runs.

A report is cached under the repository path, the resolved head commit and
every option that changes its content. Reports with warnings are never cached,
and entries older than 7 days are rebuilt.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Examples:
  # Check cache status
  gitreport cache status

  # Clear cache after rewriting history
  gitreport cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached reports",
	Long: `Delete all cached reports from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  gitreport cache clear

  # Clear MySQL cache (set connection string via env variable)
  GITREPORT_CACHE_BACKEND=mysql GITREPORT_CACHE_DB_CONNECT="..." gitreport cache clear`,
	PreRunE: cacheSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := iocache.ClearCache(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared successfully.")
		return nil
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, the number of cached reports, the newest and
oldest entries and the size of the cache table.

Examples:
  # Check cache status
  gitreport cache status`,
	PreRunE: cacheSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, "", ""); err != nil {
			return fmt.Errorf("failed to initialize cache: %w", err)
		}
		store := iocache.Manager.GetReportStore()
		if store == nil {
			return fmt.Errorf("cache store is not initialized")
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get cache status: %w", err)
		}
		iocache.PrintCacheStatus(cmd.OutOrStdout(), status)
		return nil
	},
}
