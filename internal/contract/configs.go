package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/gitreport/schema"
	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/sirupsen/logrus"
)

// Default values for configuration.
const (
	DefaultRef         = "HEAD"
	DefaultResultLimit = 10
	MaxResultLimit     = 1000
	DefaultQueueFactor = 4
)

// CacheGranularity defines the time granularity for caching analysis results.
// Relative windows such as "30 days ago" are truncated to it so that
// consecutive runs produce the same cache key.
const CacheGranularity = time.Hour

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the analysis.
// This struct is the "final, validated" config.
type Config struct {
	RepoPath    string
	Ref         string
	Granularity schema.Granularity
	StartTime   time.Time // Zero means unbounded
	EndTime     time.Time // Zero means unbounded
	MaxCommits  int       // Zero means unbounded
	Workers     int
	QueueFactor int
	ResultLimit int
	Backend     schema.ReaderBackend

	Excludes   []string
	IgnoreFile string
	Ignore     *gitignore.GitIgnore
	SkipVendor bool

	Output     schema.OutputMode
	OutputFile string
	Open       bool
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	LogLevel    logrus.Level
	MetricsFile string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	Ref            string `mapstructure:"ref"`
	Granularity    string `mapstructure:"granularity"`
	Since          string `mapstructure:"since"`
	Until          string `mapstructure:"until"`
	MaxCommits     int    `mapstructure:"max-commits"`
	Workers        int    `mapstructure:"workers"`
	Limit          int    `mapstructure:"limit"`
	Backend        string `mapstructure:"backend"`
	Exclude        string `mapstructure:"exclude"`
	IgnoreFile     string `mapstructure:"ignore-file"`
	SkipVendor     bool   `mapstructure:"skip-vendor"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Open           bool   `mapstructure:"open"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	LogLevel       string `mapstructure:"log-level"`
	MetricsFile    string `mapstructure:"metrics-file"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunsBackend    string `mapstructure:"runs-backend"`
	RunsDBConnect  string `mapstructure:"runs-db-connect"`
}

// Clone returns a copy of the Config struct with its own Excludes slice.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	return &clone
}

// IsExcluded reports whether a path is filtered out by --exclude or --ignore-file.
func (c *Config) IsExcluded(path string) bool {
	if ShouldIgnore(path, c.Excludes) {
		return true
	}
	return c.Ignore != nil && c.Ignore.MatchesPath(path)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input, time.Now()); err != nil {
		return err
	}
	if err := processFilters(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveRepoPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}

	// --- Run History Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("runs-db-connect: %w", err)
	}

	// Both stores create their own tables, so two SQLite stores must not share a file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		runsPath := cfg.RunsDBConnect
		if runsPath == "" {
			runsPath = GetRunsDBFilePath()
		}
		if cachePath == runsPath {
			return fmt.Errorf("cache and run history must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Open = input.Open
	cfg.Width = input.Width
	cfg.SkipVendor = input.SkipVendor
	cfg.MetricsFile = input.MetricsFile
	cfg.QueueFactor = DefaultQueueFactor

	cfg.Ref = strings.TrimSpace(input.Ref)
	if cfg.Ref == "" {
		cfg.Ref = DefaultRef
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.MaxCommits < 0 {
		return fmt.Errorf("max-commits cannot be negative (received %d)", input.MaxCommits)
	}
	cfg.MaxCommits = input.MaxCommits

	// --- 3. Granularity Validation ---
	cfg.Granularity = schema.Granularity(strings.ToLower(input.Granularity))
	if _, ok := schema.ValidGranularities[cfg.Granularity]; !ok {
		return fmt.Errorf("invalid granularity '%s'. must be day, week, month", input.Granularity)
	}

	// --- 4. Reader Backend Validation ---
	cfg.Backend = schema.ReaderBackend(strings.ToLower(input.Backend))
	if _, ok := schema.ValidReaderBackends[cfg.Backend]; !ok {
		return fmt.Errorf("invalid backend '%s'. must be gogit, git", input.Backend)
	}

	// --- 5. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, csv, html, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file as a file prefix")
	}

	// --- 6. Log Level Validation ---
	level, err := logrus.ParseLevel(input.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level value: %w", err)
	}
	cfg.LogLevel = level

	return nil
}

// processTimeRange handles the date parsing and time window validation.
func processTimeRange(cfg *Config, input *ConfigRawInput, now time.Time) error {
	cfg.StartTime = time.Time{}
	cfg.EndTime = time.Time{}

	if input.Since != "" {
		t, err := ParseTimeBound("since", input.Since, now)
		if err != nil {
			return err
		}
		cfg.StartTime = t
	}
	if input.Until != "" {
		t, err := ParseTimeBound("until", input.Until, now)
		if err != nil {
			return err
		}
		cfg.EndTime = t
	}

	if !cfg.StartTime.IsZero() && !cfg.EndTime.IsZero() && cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("since (%s) cannot be after until (%s)", cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}
	return nil
}

// ParseTimeBound parses an absolute RFC3339 time or a relative "N units ago" string.
// Relative times are truncated to CacheGranularity.
func ParseTimeBound(label, s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(DateTimeFormat, s); err == nil {
		return t.UTC(), nil
	}
	t, err := ParseRelativeTime(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date format for '%s'. Expected absolute ISO8601 or 'N [units] ago'", label, s)
	}
	return t.UTC().Truncate(CacheGranularity), nil
}

// processFilters builds the exclude list and compiles the optional ignore file.
func processFilters(cfg *Config, input *ConfigRawInput) error {
	cfg.Excludes = nil
	if input.Exclude != "" {
		for p := range strings.SplitSeq(input.Exclude, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Excludes = append(cfg.Excludes, trimmed)
			}
		}
	}

	cfg.IgnoreFile = strings.TrimSpace(input.IgnoreFile)
	if cfg.IgnoreFile == "" {
		cfg.Ignore = nil
		return nil
	}
	ignore, err := gitignore.CompileIgnoreFile(cfg.IgnoreFile)
	if err != nil {
		return fmt.Errorf("cannot read ignore file %q: %w", cfg.IgnoreFile, err)
	}
	cfg.Ignore = ignore
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveRepoPath turns the positional argument into a clean absolute path.
// Whether the path holds a repository is checked when the repository is opened.
func resolveRepoPath(cfg *Config, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = "."
	}
	absPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absPath = filepath.Clean(absPath)

	// A file argument means "the repository containing this file"
	if info, statErr := os.Stat(absPath); statErr == nil && !info.IsDir() {
		absPath = filepath.Dir(absPath)
	}
	cfg.RepoPath = absPath
	return nil
}
