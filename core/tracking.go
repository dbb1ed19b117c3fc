package core

import (
	"fmt"
	"time"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
)

// runTracker records one analysis run in the run store. A tracker without a
// store or without a run ID does nothing, and tracking failures never fail the
// analysis.
type runTracker struct {
	store contract.RunStore
	runID string
}

// beginRun starts tracking when a run store is configured.
func beginRun(cfg *contract.Config, mgr contract.CacheManager) *runTracker {
	if mgr == nil {
		return &runTracker{}
	}
	store := mgr.GetRunStore()
	if store == nil {
		return &runTracker{}
	}

	configParams := map[string]any{
		"ref":          cfg.Ref,
		"granularity":  string(cfg.Granularity),
		"since":        formatWindowBound(cfg.StartTime),
		"until":        formatWindowBound(cfg.EndTime),
		"max_commits":  cfg.MaxCommits,
		"workers":      cfg.Workers,
		"backend":      string(cfg.Backend),
		"excludes":     cfg.Excludes,
		"skip_vendor":  cfg.SkipVendor,
		"result_limit": cfg.ResultLimit,
	}
	runID, err := store.BeginRun(cfg.RepoPath, time.Now(), configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return &runTracker{}
	}
	return &runTracker{store: store, runID: runID}
}

// end stores the summary of the finished report.
func (t *runTracker) end(report *schema.Report) {
	if t.store == nil || t.runID == "" {
		return
	}
	if err := t.store.RecordLanguages(t.runID, report.Languages); err != nil {
		logTrackingError("RecordLanguages", t.runID, err)
	}
	if err := t.store.RecordContributors(t.runID, report.Contributors); err != nil {
		logTrackingError("RecordContributors", t.runID, err)
	}
	if err := t.store.EndRun(t.runID, time.Now(), report); err != nil {
		logTrackingError("EndRun", t.runID, err)
	}
}

// logTrackingError logs database tracking errors without disrupting analysis.
func logTrackingError(operation, runID string, err error) {
	contract.LogWarn(fmt.Sprintf("Run tracking failed for %s on run %s", operation, runID), err)
}

func formatWindowBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(contract.DateTimeFormat)
}
