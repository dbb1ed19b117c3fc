// Package contract provides interfaces and shared utilities for gitreport's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/gitreport/schema"
)

// Repository defines the read-only operations the analysis needs from a git repository.
// This allows the walker and the pipeline to be tested without a real repository on disk.
type Repository interface {
	// Path returns the absolute path of the working tree (or bare directory).
	Path() string

	// ResolveRef resolves a branch, tag, remote branch, HEAD or hash to a commit ID.
	ResolveRef(ctx context.Context, ref string) (string, error)

	// ReadCommit returns the metadata and parent links of one commit, without changes.
	// Failures are reported as *RepositoryReadError.
	ReadCommit(ctx context.Context, id string) (schema.Commit, error)

	// Diff returns the changes a commit introduced relative to its first parent.
	// Merge commits yield no changes; root commits diff against the empty tree.
	Diff(ctx context.Context, commit schema.Commit) ([]schema.FileChange, error)

	// ListFilesAtRef returns every file in the tree of the given reference.
	ListFilesAtRef(ctx context.Context, ref string) ([]schema.FileEntry, error)

	// Origin returns a display form of the origin remote, or "" when there is none.
	Origin() string

	// Close releases any resources held by the reader.
	Close() error
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetReportStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Clear() error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking analysis runs and their summaries.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(repoPath string, startTime time.Time, configParams map[string]any) (string, error)

	// EndRun updates the run with completion data
	EndRun(runID string, endTime time.Time, report *schema.Report) error

	// RecordLanguages stores the language view of a report for a run
	RecordLanguages(runID string, languages []schema.LanguageStats) error

	// RecordContributors stores the contributor view of a report for a run
	RecordContributors(runID string, contributors []schema.ContributorStats) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every stored run ordered by start time
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllLanguages returns every stored language row
	GetAllLanguages() ([]schema.RunLanguageRecord, error)

	// GetAllContributors returns every stored contributor row
	GetAllContributors() ([]schema.RunContributorRecord, error)

	// Clear deletes all stored runs
	Clear() error

	// Close closes the underlying connection
	Close() error
}
