package agg

import (
	"sort"
	"time"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
)

// Finalize merges every partial and returns the immutable report. It is valid
// exactly once; later calls return contract.ErrAlreadyFinalized and later
// records panic. Every view is sorted on explicit keys, so the result does not
// depend on record order or on how commits were spread across partials.
func (a *Aggregator) Finalize(meta Meta) (*schema.Report, error) {
	if !a.finalized.CompareAndSwap(false, true) {
		return nil, contract.ErrAlreadyFinalized
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	// 1. Union of commits and summed line totals across partials
	commits := make(map[string]commitInfo)
	lines := make(map[string]lineTotals)
	languages := make(map[schema.Language]*languageTotals)
	for _, p := range a.partials {
		for id, info := range p.commits {
			commits[id] = info
		}
		for id, lt := range p.lines {
			total := lines[id]
			total.added += lt.added
			total.removed += lt.removed
			lines[id] = total
		}
		for lang, lt := range p.languages {
			merged, ok := languages[lang]
			if !ok {
				merged = &languageTotals{paths: make(map[string]struct{})}
				languages[lang] = merged
			}
			merged.added += lt.added
			merged.removed += lt.removed
			for path := range lt.paths {
				merged.paths[path] = struct{}{}
			}
		}
	}

	// 2. Commit-level views
	buckets := make(map[time.Time]*schema.ActivityBucket)
	contributors := make(map[string]*contributorAcc)
	authorActivity := make(map[authorBucket]int)
	for id, info := range commits {
		lt := lines[id]
		start := BucketStart(info.when, a.opts.Granularity)

		b, ok := buckets[start]
		if !ok {
			b = &schema.ActivityBucket{Start: start}
			buckets[start] = b
		}
		b.Commits++
		b.Added += lt.added
		b.Removed += lt.removed

		c, ok := contributors[info.key]
		if !ok {
			c = &contributorAcc{stats: schema.ContributorStats{Key: info.key}}
			contributors[info.key] = c
		}
		c.add(info, lt)

		authorActivity[authorBucket{start: start, key: info.key}]++
	}

	report := &schema.Report{
		Repository:     meta.Repository,
		Origin:         meta.Origin,
		Ref:            meta.Ref,
		Head:           meta.Head,
		Granularity:    a.opts.Granularity,
		GeneratedAt:    meta.GeneratedAt.UTC(),
		TotalCommits:   len(commits),
		Activity:       sortedActivity(buckets),
		Contributors:   sortedContributors(contributors),
		Languages:      sortedLanguages(languages),
		AuthorActivity: sortedAuthorActivity(authorActivity),
		Composition:    SortComposition(meta.Composition),
		Warnings:       sortedWarnings(meta.Warnings),
	}
	return report, nil
}

type authorBucket struct {
	start time.Time
	key   string
}

type contributorAcc struct {
	stats schema.ContributorStats
}

// add folds one commit into the contributor. The display identity comes from the
// most recent commit; ties prefer the lexicographically smallest name.
func (c *contributorAcc) add(info commitInfo, lt lineTotals) {
	s := &c.stats
	s.Commits++
	s.Added += lt.added
	s.Removed += lt.removed

	first := s.Commits == 1
	if first || info.when.Before(s.FirstCommit) {
		s.FirstCommit = info.when
	}
	if first || info.when.After(s.LastCommit) ||
		(info.when.Equal(s.LastCommit) && info.author.Name < s.Name) {
		s.LastCommit = info.when
		s.Name = info.author.Name
		s.Email = info.author.Email
	}
}

func sortedActivity(buckets map[time.Time]*schema.ActivityBucket) []schema.ActivityBucket {
	out := make([]schema.ActivityBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func sortedContributors(contributors map[string]*contributorAcc) []schema.ContributorStats {
	out := make([]schema.ContributorStats, 0, len(contributors))
	for _, c := range contributors {
		out = append(out, c.stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Commits != out[j].Commits {
			return out[i].Commits > out[j].Commits
		}
		ci, cj := out[i].Added+out[i].Removed, out[j].Added+out[j].Removed
		if ci != cj {
			return ci > cj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func sortedLanguages(languages map[schema.Language]*languageTotals) []schema.LanguageStats {
	out := make([]schema.LanguageStats, 0, len(languages))
	for lang, lt := range languages {
		out = append(out, schema.LanguageStats{
			Language: lang,
			Added:    lt.added,
			Removed:  lt.removed,
			Files:    len(lt.paths),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Added+out[i].Removed, out[j].Added+out[j].Removed
		if ci != cj {
			return ci > cj
		}
		return out[i].Language < out[j].Language
	})
	return out
}

func sortedAuthorActivity(activity map[authorBucket]int) []schema.AuthorActivity {
	out := make([]schema.AuthorActivity, 0, len(activity))
	for k, n := range activity {
		out = append(out, schema.AuthorActivity{Start: k.start, Key: k.key, Commits: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// SortComposition returns a copy ordered by lines descending, then language.
func SortComposition(shares []schema.LanguageShare) []schema.LanguageShare {
	out := make([]schema.LanguageShare, len(shares))
	copy(out, shares)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lines != out[j].Lines {
			return out[i].Lines > out[j].Lines
		}
		return out[i].Language < out[j].Language
	})
	return out
}

func sortedWarnings(warnings []schema.Warning) []schema.Warning {
	out := make([]schema.Warning, len(warnings))
	copy(out, warnings)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CommitID != out[j].CommitID {
			return out[i].CommitID < out[j].CommitID
		}
		return out[i].Message < out[j].Message
	})
	return out
}
