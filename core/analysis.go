package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/gitreport/core/agg"
	"github.com/huangsam/gitreport/core/walker"
	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/internal/langs"
	"github.com/huangsam/gitreport/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Analyze walks the history reachable from cfg.Ref and returns the finalized report.
// Unreadable commits become report warnings; cancellation of ctx discards every
// partial result and returns the context error.
func Analyze(ctx context.Context, cfg *contract.Config, repo contract.Repository) (*schema.Report, error) {
	head, err := repo.ResolveRef(ctx, cfg.Ref)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %q: %w", cfg.Ref, err)
	}
	return analyzeHead(ctx, cfg, repo, head)
}

// pipeline holds the shared state of one analysis run.
type pipeline struct {
	cfg        *contract.Config
	repo       contract.Repository
	classifier langs.Classifier

	mu       sync.Mutex
	warnings []schema.Warning
}

// analyzeHead runs the walker, the worker pool and the composition task for a resolved head.
func analyzeHead(ctx context.Context, cfg *contract.Config, repo contract.Repository, head string) (*schema.Report, error) {
	metrics := metricsFromContext(ctx)
	p := &pipeline{
		cfg:        cfg,
		repo:       repo,
		classifier: langs.NewCached(langs.DefaultCacheSize),
	}
	aggregator := agg.New(agg.Options{Granularity: cfg.Granularity})
	w := walker.New(repo, walker.Options{
		Since:      cfg.StartTime,
		Until:      cfg.EndTime,
		MaxCommits: cfg.MaxCommits,
	})

	workers := max(cfg.Workers, 1)
	queueFactor := cfg.QueueFactor
	if queueFactor <= 0 {
		queueFactor = contract.DefaultQueueFactor
	}

	g, gctx := errgroup.WithContext(ctx)
	commitCh := make(chan schema.Commit, workers*queueFactor)

	// 1. Walker: the only goroutine that touches the traversal state
	g.Go(func() error {
		defer close(commitCh)
		for commit, err := range w.LogFrom(gctx, head) {
			if err != nil {
				return err
			}
			metrics.CommitWalked()
			select {
			case commitCh <- commit:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// 2. Workers: diff, filter, classify and record into their own partial
	for range workers {
		partial := aggregator.NewPartial()
		g.Go(func() error {
			return p.work(gctx, partial, commitCh)
		})
	}

	// 3. Composition of the tree at head
	var composition []schema.LanguageShare
	g.Go(func() error {
		files, err := repo.ListFilesAtRef(gctx, head)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			p.warn(schema.Warning{Kind: schema.CompositionWarning, CommitID: head, Message: err.Error()})
			return nil
		}
		composition = agg.BuildComposition(files, p.classifier, p.skip)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	warnings := append(w.Warnings(), p.warnings...)
	contract.LogDebug("History walked", logrus.Fields{
		"head":     head,
		"visited":  w.Visited(),
		"yielded":  w.Yielded(),
		"warnings": len(warnings),
	})
	for _, warning := range warnings {
		metrics.Warning(string(warning.Kind))
	}

	return aggregator.Finalize(agg.Meta{
		Repository:  repo.Path(),
		Origin:      repo.Origin(),
		Ref:         cfg.Ref,
		Head:        head,
		GeneratedAt: time.Now(),
		Composition: composition,
		Warnings:    warnings,
	})
}

// work consumes commits until the channel closes or ctx is cancelled.
func (p *pipeline) work(ctx context.Context, partial *agg.Partial, commits <-chan schema.Commit) error {
	metrics := metricsFromContext(ctx)
	for commit := range commits {
		if err := ctx.Err(); err != nil {
			return err
		}
		changes, err := p.repo.Diff(ctx, commit)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			contract.LogWarn("Skipping commit with unreadable changes", err)
			p.warn(schema.Warning{Kind: schema.DiffWarning, CommitID: commit.ID, Message: err.Error()})
			continue
		}

		recorded := false
		for _, change := range changes {
			if p.skip(change.Path) {
				continue
			}
			language := p.classifier.Classify(change.Path)
			partial.Record(commit, change, language)
			metrics.FileClassified(string(language))
			recorded = true
		}
		if !recorded {
			partial.RecordCommit(commit)
		}
		contract.LogDebug("Commit recorded", logrus.Fields{"commit": commit.ID, "changes": len(changes)})
		metrics.CommitRecorded()
	}
	return nil
}

// skip reports whether a path is filtered out by --exclude, --ignore-file or --skip-vendor.
func (p *pipeline) skip(path string) bool {
	if p.cfg.IsExcluded(path) {
		return true
	}
	return p.cfg.SkipVendor && langs.IsVendored(path)
}

func (p *pipeline) warn(w schema.Warning) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnings = append(p.warnings, w)
}
