package contract

import (
	"os"
	"path/filepath"
)

// CacheVersion is bumped whenever the stored report layout changes.
const CacheVersion = 1

// CacheMaxAgeDays is the age after which a cached report is treated as stale.
const CacheMaxAgeDays = 7

// GetCacheDBFilePath returns the path to the SQLite DB file for report caching.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".gitreport_cache.db"
	}
	return filepath.Join(homeDir, ".gitreport_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run history.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".gitreport_runs.db"
	}
	return filepath.Join(homeDir, ".gitreport_runs.db")
}
