// Package cmd defines the command-line interface for gitreport.
package cmd

import (
	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.String("ref", contract.DefaultRef, "Branch, tag or commit to analyze")
	flags.String("granularity", string(schema.DayGranularity), "Activity bucket width: day or week or month")
	flags.String("since", "", "Only count commits after this time (ISO8601 or time ago)")
	flags.String("until", "", "Only count commits before this time (ISO8601 or time ago)")
	flags.Int("max-commits", 0, "Stop after this many commits (0 = unlimited)")
	flags.Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	flags.IntP("limit", "l", contract.DefaultResultLimit, "Number of contributors to display")
	flags.String("backend", string(schema.GoGitBackend), "Repository reader: gogit or git")
	flags.String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	flags.String("ignore-file", "", "File with gitignore-style patterns of paths to ignore")
	flags.Bool("skip-vendor", false, "Ignore vendored and generated dependency directories")
	flags.String("output", string(schema.TextOut), "Output format: text or json or csv or html or parquet")
	flags.String("output-file", "", "Optional path to write output to (file prefix for parquet)")
	flags.Bool("open", false, "Open the HTML report in the browser")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	flags.String("color", "yes", "Enable colored output (yes/no/true/false/1/0)")
	flags.String("log-level", "warning", "Log level: debug or info or warning or error")
	flags.String("metrics-file", "", "Write run metrics in the prometheus text format to this file")
	flags.String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	flags.String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	flags.String("runs-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	flags.String("runs-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	flags.String("profile", "", "Enable profiling and write profiles to files with this prefix")
	flags.String("config", "", "Path to config file")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
