// Package agg accumulates per-commit file changes into the report views.
package agg

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
)

// Options configure an Aggregator.
type Options struct {
	Granularity schema.Granularity // Defaults to day
}

// Meta carries the run metadata copied into the finalized report.
type Meta struct {
	Repository  string
	Origin      string
	Ref         string
	Head        string
	GeneratedAt time.Time
	Composition []schema.LanguageShare
	Warnings    []schema.Warning
}

// Aggregator owns every Partial handed out for one run and merges them once.
//
// Workers should each take their own Partial with NewPartial and record into it
// without locking. Record and RecordCommit on the Aggregator itself go through a
// mutex-guarded shared partial instead.
type Aggregator struct {
	opts      Options
	mu        sync.Mutex
	partials  []*Partial
	shared    *Partial
	finalized atomic.Bool
}

// New creates an empty Aggregator.
func New(opts Options) *Aggregator {
	if opts.Granularity == "" {
		opts.Granularity = schema.DayGranularity
	}
	a := &Aggregator{opts: opts}
	a.shared = a.NewPartial()
	return a
}

// NewPartial registers and returns a new partial accumulator.
func (a *Aggregator) NewPartial() *Partial {
	a.failIfFinalized("NewPartial")
	p := newPartial(a)
	a.mu.Lock()
	a.partials = append(a.partials, p)
	a.mu.Unlock()
	return p
}

// Record is the synchronized form of Partial.Record.
func (a *Aggregator) Record(commit schema.Commit, change schema.FileChange, language schema.Language) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shared.Record(commit, change, language)
}

// RecordCommit is the synchronized form of Partial.RecordCommit.
func (a *Aggregator) RecordCommit(commit schema.Commit) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shared.RecordCommit(commit)
}

func (a *Aggregator) failIfFinalized(op string) {
	if a.finalized.Load() {
		panic(&contract.ProgrammingError{Op: op, Msg: "called after Finalize"})
	}
}

// Partial accumulates the changes recorded by one worker.
type Partial struct {
	owner     *Aggregator
	commits   map[string]commitInfo
	lines     map[string]lineTotals // Line totals per commit ID
	languages map[schema.Language]*languageTotals
}

type commitInfo struct {
	key    string
	author schema.Author
	when   time.Time
}

type lineTotals struct {
	added   int
	removed int
}

type languageTotals struct {
	added   int
	removed int
	paths   map[string]struct{}
}

func newPartial(owner *Aggregator) *Partial {
	return &Partial{
		owner:     owner,
		commits:   make(map[string]commitInfo),
		lines:     make(map[string]lineTotals),
		languages: make(map[schema.Language]*languageTotals),
	}
}

// Record accumulates one (commit, file) pair. It must be called once per pair.
//
// Added, deleted and modified files count fully toward the given language.
// A pure rename only marks the commit as touching a file: it adds no lines and
// no file to any language. Binary changes arrive with zero line counts and
// still count as a touched file.
func (p *Partial) Record(commit schema.Commit, change schema.FileChange, language schema.Language) {
	p.owner.failIfFinalized("Record")
	p.register(commit)

	if change.PureRename() {
		return
	}

	totals := p.lines[commit.ID]
	totals.added += change.Added
	totals.removed += change.Removed
	p.lines[commit.ID] = totals

	lt, ok := p.languages[language]
	if !ok {
		lt = &languageTotals{paths: make(map[string]struct{})}
		p.languages[language] = lt
	}
	lt.added += change.Added
	lt.removed += change.Removed
	lt.paths[change.Path] = struct{}{}
}

// RecordCommit registers a commit that contributes no file changes, such as a merge.
func (p *Partial) RecordCommit(commit schema.Commit) {
	p.owner.failIfFinalized("RecordCommit")
	p.register(commit)
}

// register stores commit metadata. Commits are keyed by ID, so registering the
// same commit from several records or partials counts it once.
func (p *Partial) register(commit schema.Commit) {
	if _, ok := p.commits[commit.ID]; ok {
		return
	}
	p.commits[commit.ID] = commitInfo{
		key:    IdentityKey(commit.Author),
		author: commit.Author,
		when:   commit.When.UTC(),
	}
}

// IdentityKey normalizes an author: lower-cased email when present, else the name.
// The same person using several emails yields several keys.
func IdentityKey(author schema.Author) string {
	if email := strings.ToLower(strings.TrimSpace(author.Email)); email != "" {
		return email
	}
	if name := strings.TrimSpace(author.Name); name != "" {
		return name
	}
	return "unknown"
}

// BucketStart floors a timestamp to the start of its bucket in UTC.
// Weeks start on Monday as in ISO 8601.
func BucketStart(t time.Time, g schema.Granularity) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case schema.WeekGranularity:
		offset := (int(day.Weekday()) + 6) % 7 // Days since Monday
		return day.AddDate(0, 0, -offset)
	case schema.MonthGranularity:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}
