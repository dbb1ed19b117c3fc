package schema

import "time"

// CacheStatus represents the status of the report cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// RunStatus represents the status of the run history store.
type RunStatus struct {
	Backend      string           `json:"backend"`
	Connected    bool             `json:"connected"`
	TotalRuns    int              `json:"total_runs"`
	LastRunID    string           `json:"last_run_id"`
	LastRunTime  time.Time        `json:"last_run_time"`
	OldestRun    time.Time        `json:"oldest_run_time"`
	TableSizes   map[string]int64 `json:"table_sizes"`
	Repositories int              `json:"repositories"`
}

// RunRecord is one stored analysis run.
type RunRecord struct {
	RunID        string
	Repository   string
	Head         string
	StartTime    time.Time
	EndTime      time.Time
	TotalCommits int
	Warnings     int
	ConfigParams string // JSON-encoded configuration
}

// RunLanguageRecord is one language row of a stored run.
type RunLanguageRecord struct {
	RunID    string
	Language string
	Added    int
	Removed  int
	Files    int
}

// RunContributorRecord is one contributor row of a stored run.
type RunContributorRecord struct {
	RunID       string
	Key         string
	Name        string
	Commits     int
	Added       int
	Removed     int
	FirstCommit time.Time
	LastCommit  time.Time
}
