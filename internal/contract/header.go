package contract

import (
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// LogAnalysisHeader prints a concise, 2-line header before an analysis run.
func LogAnalysisHeader(w io.Writer, cfg *Config) {
	repoName := filepath.Base(cfg.RepoPath)
	if repoName == "" || repoName == "." {
		repoName = "current"
	}

	// Line 1: The analysis summary (Repo and Ref)
	_, _ = fmt.Fprintf(w, "🔎 Repo: %s (Ref: %s, Granularity: %s)\n", repoName, cfg.Ref, cfg.Granularity)

	// Line 2: The date range being analyzed
	_, _ = fmt.Fprintf(w, "📅 Range: %s → %s\n", formatBound(cfg.StartTime, "beginning"), formatBound(cfg.EndTime, "now"))
}

func formatBound(t time.Time, unbounded string) string {
	if t.IsZero() {
		return unbounded
	}
	return t.Format(DateTimeFormat)
}
