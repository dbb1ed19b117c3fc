package agg

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/internal/langs"
	"github.com/huangsam/gitreport/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = schema.Author{Name: "Alice", Email: "alice@example.com"}
	bob   = schema.Author{Name: "Bob", Email: "bob@example.com"}
	epoch = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC) // Wednesday
)

var fixedMeta = Meta{Repository: "/fake/repo", Ref: "HEAD", Head: "M", GeneratedAt: epoch}

type recorder interface {
	Record(schema.Commit, schema.FileChange, schema.Language)
	RecordCommit(schema.Commit)
}

// feed records every change of every commit the way the analysis workers do.
func feed(t *testing.T, p recorder, commits ...schema.Commit) {
	t.Helper()
	for _, c := range commits {
		if len(c.Changes) == 0 {
			p.RecordCommit(c)
			continue
		}
		for _, fc := range c.Changes {
			p.Record(c, fc, langs.Classify(fc.Path))
		}
	}
}

// mergeRepository is a root adding a.rs, a second author editing it and adding
// b.md, then a merge whose own diff is empty.
func mergeRepository() []schema.Commit {
	return []schema.Commit{
		{
			ID: "A", Author: alice, When: epoch,
			Changes: []schema.FileChange{{Path: "a.rs", Added: 10, Kind: schema.ChangeAdded}},
		},
		{
			ID: "B", Parents: []string{"A"}, Author: bob, When: epoch.Add(time.Hour),
			Changes: []schema.FileChange{
				{Path: "a.rs", Added: 2, Removed: 1, Kind: schema.ChangeModified},
				{Path: "b.md", Added: 5, Kind: schema.ChangeAdded},
			},
		},
		{ID: "M", Parents: []string{"B", "A"}, Author: alice, When: epoch.Add(2 * time.Hour)},
	}
}

func TestFinalizeMergeRepository(t *testing.T) {
	a := New(Options{})
	feed(t, a, mergeRepository()...)

	report, err := a.Finalize(fixedMeta)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalCommits)
	assert.Equal(t, []schema.LanguageStats{
		{Language: "Rust", Added: 12, Removed: 1, Files: 1},
		{Language: "Markdown", Added: 5, Removed: 0, Files: 1},
	}, report.Languages)

	require.Len(t, report.Contributors, 2)
	assert.Equal(t, "alice@example.com", report.Contributors[0].Key)
	assert.Equal(t, 2, report.Contributors[0].Commits)
	assert.Equal(t, 10, report.Contributors[0].Added)
	assert.Equal(t, epoch, report.Contributors[0].FirstCommit)
	assert.Equal(t, epoch.Add(2*time.Hour), report.Contributors[0].LastCommit)
	assert.Equal(t, "bob@example.com", report.Contributors[1].Key)
	assert.Equal(t, 1, report.Contributors[1].Commits)
	assert.Equal(t, 7, report.Contributors[1].Added)
	assert.Equal(t, 1, report.Contributors[1].Removed)

	require.Len(t, report.Activity, 1)
	assert.Equal(t, schema.ActivityBucket{
		Start:   time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		Commits: 3, Added: 17, Removed: 1,
	}, report.Activity[0])

	assert.Equal(t, []schema.AuthorActivity{
		{Start: report.Activity[0].Start, Key: "alice@example.com", Commits: 2},
		{Start: report.Activity[0].Start, Key: "bob@example.com", Commits: 1},
	}, report.AuthorActivity)
	assert.False(t, report.Incomplete())
}

func TestFinalizePureRename(t *testing.T) {
	a := New(Options{})
	feed(t, a,
		schema.Commit{
			ID: "A", Author: alice, When: epoch,
			Changes: []schema.FileChange{{Path: "old.py", Added: 4, Kind: schema.ChangeAdded}},
		},
		schema.Commit{
			ID: "B", Parents: []string{"A"}, Author: alice, When: epoch.Add(time.Hour),
			Changes: []schema.FileChange{{Path: "new.py", OldPath: "old.py", Kind: schema.ChangeRenamed}},
		},
	)

	report, err := a.Finalize(fixedMeta)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalCommits)
	assert.Equal(t, []schema.LanguageStats{{Language: "Python", Added: 4, Files: 1}}, report.Languages)
	require.Len(t, report.Contributors, 1)
	assert.Equal(t, 2, report.Contributors[0].Commits)
	assert.Equal(t, 4, report.Contributors[0].Added)
}

func TestRenameWithEditsCountsFully(t *testing.T) {
	a := New(Options{})
	feed(t, a, schema.Commit{
		ID: "A", Author: alice, When: epoch,
		Changes: []schema.FileChange{{Path: "new.py", OldPath: "old.py", Added: 3, Removed: 1, Kind: schema.ChangeRenamed}},
	})
	report, err := a.Finalize(fixedMeta)
	require.NoError(t, err)
	assert.Equal(t, []schema.LanguageStats{{Language: "Python", Added: 3, Removed: 1, Files: 1}}, report.Languages)
}

func TestBinaryChangeCountsAsTouchedFile(t *testing.T) {
	a := New(Options{})
	feed(t, a, schema.Commit{
		ID: "A", Author: alice, When: epoch,
		Changes: []schema.FileChange{{Path: "logo.png", Kind: schema.ChangeAdded, Binary: true}},
	})
	report, err := a.Finalize(fixedMeta)
	require.NoError(t, err)
	require.Len(t, report.Languages, 1)
	assert.Equal(t, 1, report.Languages[0].Files)
	assert.Zero(t, report.Languages[0].Added)
}

func TestFinalizeEmpty(t *testing.T) {
	report, err := New(Options{}).Finalize(fixedMeta)
	require.NoError(t, err)
	assert.Zero(t, report.TotalCommits)
	assert.NotNil(t, report.Activity)
	assert.NotNil(t, report.Contributors)
	assert.NotNil(t, report.Languages)
	assert.NotNil(t, report.Warnings)
	assert.Equal(t, schema.DayGranularity, report.Granularity)
}

func TestFinalizeOnce(t *testing.T) {
	a := New(Options{})
	_, err := a.Finalize(fixedMeta)
	require.NoError(t, err)

	_, err = a.Finalize(fixedMeta)
	assert.ErrorIs(t, err, contract.ErrAlreadyFinalized)
}

func TestRecordAfterFinalizePanics(t *testing.T) {
	a := New(Options{})
	p := a.NewPartial()
	_, err := a.Finalize(fixedMeta)
	require.NoError(t, err)

	commit := mergeRepository()[0]
	tests := []struct {
		name string
		fn   func()
	}{
		{"aggregator record", func() { a.Record(commit, commit.Changes[0], "Rust") }},
		{"aggregator record commit", func() { a.RecordCommit(commit) }},
		{"partial record", func() { p.Record(commit, commit.Changes[0], "Rust") }},
		{"new partial", func() { a.NewPartial() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r)
				_, ok := r.(*contract.ProgrammingError)
				assert.True(t, ok, "panic value should be a ProgrammingError, got %T", r)
			}()
			tt.fn()
		})
	}
}

func TestFinalizeSortsWarningsAndComposition(t *testing.T) {
	a := New(Options{})
	meta := fixedMeta
	meta.Warnings = []schema.Warning{
		{Kind: schema.ReadWarning, CommitID: "c2", Message: "b"},
		{Kind: schema.DiffWarning, CommitID: "c1", Message: "z"},
		{Kind: schema.ReadWarning, CommitID: "c2", Message: "a"},
	}
	meta.Composition = []schema.LanguageShare{
		{Language: "Go", Lines: 10},
		{Language: "Rust", Lines: 30},
		{Language: "C", Lines: 10},
	}
	report, err := a.Finalize(meta)
	require.NoError(t, err)

	assert.True(t, report.Incomplete())
	assert.Equal(t, []schema.Warning{
		{Kind: schema.DiffWarning, CommitID: "c1", Message: "z"},
		{Kind: schema.ReadWarning, CommitID: "c2", Message: "a"},
		{Kind: schema.ReadWarning, CommitID: "c2", Message: "b"},
	}, report.Warnings)
	assert.Equal(t, []schema.Language{"Rust", "C", "Go"}, []schema.Language{
		report.Composition[0].Language, report.Composition[1].Language, report.Composition[2].Language,
	})
	// Input slices are left untouched
	assert.Equal(t, "c2", meta.Warnings[0].CommitID)
}

func TestContributorIdentity(t *testing.T) {
	a := New(Options{})
	feed(t, a,
		schema.Commit{ID: "1", Author: schema.Author{Name: "Al", Email: " Alice@Example.com "}, When: epoch},
		schema.Commit{ID: "2", Author: schema.Author{Name: "Alice L.", Email: "alice@example.com"}, When: epoch.Add(time.Hour)},
		schema.Commit{ID: "3", Author: schema.Author{Name: "Alice", Email: "alice@example.com"}, When: epoch.Add(time.Hour)},
		schema.Commit{ID: "4", Author: schema.Author{Name: "bot"}, When: epoch},
	)
	report, err := a.Finalize(fixedMeta)
	require.NoError(t, err)

	require.Len(t, report.Contributors, 2)
	assert.Equal(t, "alice@example.com", report.Contributors[0].Key)
	assert.Equal(t, 3, report.Contributors[0].Commits)
	assert.Equal(t, "Alice", report.Contributors[0].Name, "ties on the latest commit prefer the smallest name")
	assert.Equal(t, "bot", report.Contributors[1].Key)
}

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		name     string
		author   schema.Author
		expected string
	}{
		{"email lower-cased", schema.Author{Name: "A", Email: "A@Example.COM"}, "a@example.com"},
		{"email trimmed", schema.Author{Email: "  a@b.c\t"}, "a@b.c"},
		{"name fallback", schema.Author{Name: " Jane "}, "Jane"},
		{"nothing", schema.Author{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IdentityKey(tt.author))
		})
	}
}

func TestBucketStart(t *testing.T) {
	tests := []struct {
		name     string
		when     time.Time
		g        schema.Granularity
		expected time.Time
	}{
		{"day", epoch, schema.DayGranularity, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"week from wednesday", epoch, schema.WeekGranularity, time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC)},
		{"week from sunday", time.Date(2024, 5, 5, 23, 0, 0, 0, time.UTC), schema.WeekGranularity, time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC)},
		{"week from monday", time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), schema.WeekGranularity, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)},
		{"month", epoch, schema.MonthGranularity, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"non-utc input", time.Date(2024, 5, 1, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600)), schema.DayGranularity, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BucketStart(tt.when, tt.g))
		})
	}
}

func TestGranularityGroupsBuckets(t *testing.T) {
	var commits []schema.Commit
	for i := range 14 {
		commits = append(commits, schema.Commit{
			ID: fmt.Sprintf("c%02d", i), Author: alice, When: epoch.AddDate(0, 0, i),
		})
	}
	tests := []struct {
		g        schema.Granularity
		expected []string
	}{
		{schema.DayGranularity, nil},
		{schema.WeekGranularity, []string{"2024-W18", "2024-W19", "2024-W20"}},
		{schema.MonthGranularity, []string{"2024-05"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.g), func(t *testing.T) {
			a := New(Options{Granularity: tt.g})
			feed(t, a, commits...)
			report, err := a.Finalize(fixedMeta)
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Len(t, report.Activity, 14)
				return
			}
			assert.Equal(t, tt.expected, report.Buckets())
		})
	}
}

// randomHistory builds a reproducible history with mixed change kinds.
func randomHistory(seed uint64, n int) []schema.Commit {
	r := rand.New(rand.NewPCG(seed, seed))
	authors := []schema.Author{alice, bob, {Name: "Carol"}}
	paths := []string{"main.go", "lib.rs", "README.md", "app.py", "logo.png", "Makefile"}
	kinds := []schema.ChangeKind{schema.ChangeAdded, schema.ChangeModified, schema.ChangeDeleted, schema.ChangeRenamed}

	commits := make([]schema.Commit, 0, n)
	for i := range n {
		c := schema.Commit{
			ID:     fmt.Sprintf("%040d", i),
			Author: authors[r.IntN(len(authors))],
			When:   epoch.Add(time.Duration(r.IntN(24*60)) * time.Hour),
		}
		for range r.IntN(4) {
			fc := schema.FileChange{
				Path: paths[r.IntN(len(paths))],
				Kind: kinds[r.IntN(len(kinds))],
			}
			if r.IntN(3) > 0 {
				fc.Added, fc.Removed = r.IntN(50), r.IntN(20)
			}
			c.Changes = append(c.Changes, fc)
		}
		commits = append(commits, c)
	}
	return commits
}

type record struct {
	commit schema.Commit
	change *schema.FileChange
}

func flatten(commits []schema.Commit) []record {
	var out []record
	for _, c := range commits {
		if len(c.Changes) == 0 {
			out = append(out, record{commit: c})
			continue
		}
		for i := range c.Changes {
			out = append(out, record{commit: c, change: &c.Changes[i]})
		}
	}
	return out
}

func TestFinalizeIndependentOfRecordOrder(t *testing.T) {
	records := flatten(randomHistory(7, 60))

	reference := New(Options{Granularity: schema.WeekGranularity})
	for _, rec := range records {
		if rec.change == nil {
			reference.RecordCommit(rec.commit)
		} else {
			reference.Record(rec.commit, *rec.change, langs.Classify(rec.change.Path))
		}
	}
	expected, err := reference.Finalize(fixedMeta)
	require.NoError(t, err)

	for seed := range uint64(5) {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			shuffled := make([]record, len(records))
			copy(shuffled, records)
			r := rand.New(rand.NewPCG(seed, 99))
			r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

			a := New(Options{Granularity: schema.WeekGranularity})
			partials := []*Partial{a.NewPartial(), a.NewPartial(), a.NewPartial()}
			for i, rec := range shuffled {
				p := partials[i%len(partials)]
				if rec.change == nil {
					p.RecordCommit(rec.commit)
				} else {
					p.Record(rec.commit, *rec.change, langs.Classify(rec.change.Path))
				}
			}
			actual, err := a.Finalize(fixedMeta)
			require.NoError(t, err)
			assert.Equal(t, expected, actual)
		})
	}
}

func TestFinalizeConcurrentPartials(t *testing.T) {
	commits := randomHistory(11, 200)

	sequential := New(Options{})
	feed(t, sequential, commits...)
	expected, err := sequential.Finalize(fixedMeta)
	require.NoError(t, err)

	a := New(Options{})
	var wg sync.WaitGroup
	const workers = 4
	for w := range workers {
		p := a.NewPartial()
		wg.Go(func() {
			for i := w; i < len(commits); i += workers {
				feed(t, p, commits[i])
			}
		})
	}
	wg.Wait()
	actual, err := a.Finalize(fixedMeta)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestTotalsMatchRecordedChanges(t *testing.T) {
	for seed := range uint64(10) {
		commits := randomHistory(seed, 40)
		a := New(Options{Granularity: schema.MonthGranularity})
		feed(t, a, commits...)
		report, err := a.Finalize(fixedMeta)
		require.NoError(t, err)

		var wantAdded, wantRemoved int
		for _, c := range commits {
			for _, fc := range c.Changes {
				if !fc.PureRename() {
					wantAdded += fc.Added
					wantRemoved += fc.Removed
				}
			}
		}

		var langAdded, langRemoved, bucketCommits, bucketAdded, contribCommits, contribAdded int
		for _, l := range report.Languages {
			langAdded += l.Added
			langRemoved += l.Removed
		}
		for _, b := range report.Activity {
			bucketCommits += b.Commits
			bucketAdded += b.Added
		}
		for _, c := range report.Contributors {
			contribCommits += c.Commits
			contribAdded += c.Added
		}

		assert.Equal(t, len(commits), report.TotalCommits)
		assert.Equal(t, wantAdded, langAdded)
		assert.Equal(t, wantRemoved, langRemoved)
		assert.Equal(t, wantAdded, bucketAdded)
		assert.Equal(t, wantAdded, contribAdded)
		assert.Equal(t, report.TotalCommits, bucketCommits)
		assert.Equal(t, report.TotalCommits, contribCommits)
	}
}
