package schema

import (
	"fmt"
	"time"
)

// ActivityBucket holds the totals of every commit whose timestamp floors to Start.
type ActivityBucket struct {
	Start   time.Time `json:"start"`
	Commits int       `json:"commits"`
	Added   int       `json:"added"`
	Removed int       `json:"removed"`
}

// ContributorStats holds the totals for one normalized author identity.
type ContributorStats struct {
	Key         string    `json:"key"`   // Lower-cased email, or name when email is empty
	Name        string    `json:"name"`  // Name used on the most recent commit
	Email       string    `json:"email"` // Email used on the most recent commit
	Commits     int       `json:"commits"`
	Added       int       `json:"added"`
	Removed     int       `json:"removed"`
	FirstCommit time.Time `json:"first_commit"`
	LastCommit  time.Time `json:"last_commit"`
}

// LanguageStats holds the line totals attributed to one language.
type LanguageStats struct {
	Language Language `json:"language"`
	Added    int      `json:"added"`
	Removed  int      `json:"removed"`
	Files    int      `json:"files"` // Distinct paths touched
}

// AuthorActivity is the number of commits one contributor made inside one bucket.
type AuthorActivity struct {
	Start   time.Time `json:"start"`
	Key     string    `json:"key"`
	Commits int       `json:"commits"`
}

// LanguageShare is the size of one language in the tree of the analysed reference.
type LanguageShare struct {
	Language Language `json:"language"`
	Files    int      `json:"files"`
	Lines    int      `json:"lines"`
	Bytes    int64    `json:"bytes"`
}

// Warning is a non-fatal issue recorded while building a report.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	CommitID string      `json:"commit_id,omitempty"`
	Message  string      `json:"message"`
}

// Report is the finalized aggregate of one analysis run. It is created once by the
// aggregator and never mutated afterwards; every slice is already sorted.
type Report struct {
	Repository     string             `json:"repository"`
	Origin         string             `json:"origin,omitempty"`
	Ref            string             `json:"ref"`
	Head           string             `json:"head"`
	Granularity    Granularity        `json:"granularity"`
	GeneratedAt    time.Time          `json:"generated_at"`
	TotalCommits   int                `json:"total_commits"`
	Activity       []ActivityBucket   `json:"activity"`        // Ascending by Start
	Contributors   []ContributorStats `json:"contributors"`    // Descending by Commits
	Languages      []LanguageStats    `json:"languages"`       // Descending by Added+Removed
	AuthorActivity []AuthorActivity   `json:"author_activity"` // Ascending by Start, then Key
	Composition    []LanguageShare    `json:"composition"`     // Descending by Lines
	Warnings       []Warning          `json:"warnings"`
}

// Incomplete reports whether any part of the history could not be read.
func (r *Report) Incomplete() bool {
	return len(r.Warnings) > 0
}

// TopContributors returns at most n contributors in report order.
func (r *Report) TopContributors(n int) []ContributorStats {
	if n <= 0 || n >= len(r.Contributors) {
		return r.Contributors
	}
	return r.Contributors[:n]
}

// Buckets returns the formatted label of every activity bucket.
func (r *Report) Buckets() []string {
	labels := make([]string, len(r.Activity))
	for i, b := range r.Activity {
		labels[i] = FormatBucket(b.Start, r.Granularity)
	}
	return labels
}

// FormatBucket renders a bucket start for display at the given granularity.
func FormatBucket(start time.Time, g Granularity) string {
	switch g {
	case MonthGranularity:
		return start.Format("2006-01")
	case WeekGranularity:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return start.Format(time.DateOnly)
	}
}
