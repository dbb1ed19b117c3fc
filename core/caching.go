package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
)

// cachedAnalyze returns a cached report for the same head and settings, or runs
// the analysis and stores its result. Incomplete reports are never stored.
func cachedAnalyze(ctx context.Context, cfg *contract.Config, repo contract.Repository, mgr contract.CacheManager) (*schema.Report, error) {
	head, err := repo.ResolveRef(ctx, cfg.Ref)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %q: %w", cfg.Ref, err)
	}

	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetReportStore()
	}
	if store == nil {
		// Fallback to direct computation
		return analyzeHead(ctx, cfg, repo, head)
	}

	key := generateCacheKey(cfg, repo.Path(), head)

	// Check for cache hit
	if report := checkCacheHit(store, key); report != nil {
		metricsFromContext(ctx).CacheLookup(true)
		report.GeneratedAt = time.Now().UTC()
		return report, nil
	}
	metricsFromContext(ctx).CacheLookup(false)

	// Cache miss: compute and store
	return computeAndStore(ctx, cfg, repo, head, store, key)
}

// checkCacheHit attempts to retrieve and validate a cached report
func checkCacheHit(store contract.CacheStore, key string) *schema.Report {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != contract.CacheVersion {
		return nil
	}
	if time.Since(time.Unix(ts, 0)) > contract.CacheMaxAgeDays*24*time.Hour {
		return nil
	}
	var report schema.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil
	}
	return &report
}

// computeAndStore computes the report and stores it in cache
func computeAndStore(ctx context.Context, cfg *contract.Config, repo contract.Repository, head string, store contract.CacheStore, key string) (*schema.Report, error) {
	report, err := analyzeHead(ctx, cfg, repo, head)
	if err != nil {
		return nil, err
	}
	if report.Incomplete() {
		return report, nil
	}

	if data, err := json.Marshal(report); err == nil {
		if err := store.Set(key, data, contract.CacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to store report in cache", err)
		}
	}
	return report, nil
}

// generateCacheKey creates a unique key from everything that shapes a report.
func generateCacheKey(cfg *contract.Config, repoPath, head string) string {
	// Relative bounds are truncated when parsed, so the exact window is stable for an hour
	key := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%d:%s:%s:%t:%s",
		repoPath,
		head,
		cfg.Ref,
		cfg.Granularity,
		cfg.StartTime.UTC().Format(time.RFC3339Nano),
		cfg.EndTime.UTC().Format(time.RFC3339Nano),
		cfg.MaxCommits,
		strings.Join(cfg.Excludes, ","),
		cfg.IgnoreFile,
		cfg.SkipVendor,
		cfg.Backend,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
