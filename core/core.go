// Package core has the analysis pipeline and the entry points used by the CLI and the MCP server.
package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/internal/gitrepo"
	"github.com/huangsam/gitreport/internal/outwriter"
	"github.com/huangsam/gitreport/schema"
	"github.com/sirupsen/logrus"
)

// ExecutorFunc defines the function signature for commands that analyze a repository.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteReport builds the report for cfg and renders it with the configured writer.
// A report that carries warnings is still rendered, and contract.ErrIncompleteReport
// is returned afterwards.
func ExecuteReport(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	if !isQuietMode(ctx) {
		contract.LogAnalysisHeader(os.Stderr, cfg)
	}

	report, err := BuildReport(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	metricsFromContext(ctx).RunFinished(time.Since(start))

	if err := outwriter.WriteReport(report, cfg, time.Since(start)); err != nil {
		return fmt.Errorf("cannot write report: %w", err)
	}
	if report.Incomplete() {
		return fmt.Errorf("%w: %d warning(s)", contract.ErrIncompleteReport, len(report.Warnings))
	}
	return nil
}

// BuildReport opens the repository, runs the (cached) analysis and records the run.
func BuildReport(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.Report, error) {
	repo, err := gitrepo.Open(cfg.RepoPath, cfg.Backend)
	if err != nil {
		return nil, err
	}
	defer func() { _ = repo.Close() }()

	tracker := beginRun(cfg, mgr)
	report, err := cachedAnalyze(ctx, cfg, repo, mgr)
	if err != nil {
		return nil, err
	}
	tracker.end(report)

	contract.LogInfo("Report built", logrus.Fields{
		"repository": report.Repository,
		"head":       report.Head,
		"commits":    report.TotalCommits,
		"warnings":   len(report.Warnings),
	})
	return report, nil
}
