package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/gitreport/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"run", new(Run), []string{"run_id", "repository", "head", "start_time", "end_time", "run_duration_ms", "total_commits", "warnings", "config_params"}},
		{"run language", new(RunLanguage), []string{"run_id", "language", "added", "removed", "files"}},
		{"run contributor", new(RunContributor), []string{"run_id", "contributor_key", "name", "commits", "added", "removed", "first_commit", "last_commit"}},
		{"activity", new(Activity), []string{"bucket", "start", "commits", "added", "removed"}},
		{"contributor", new(Contributor), []string{"contributor_key", "name", "email", "commits", "first_commit", "last_commit"}},
		{"language", new(Language), []string{"language", "added", "removed", "files"}},
		{"composition", new(Composition), []string{"language", "files", "lines", "bytes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			require.NotNil(t, s)
			for _, column := range tt.columns {
				_, ok := s.Lookup(column)
				assert.True(t, ok, "column %s should exist", column)
			}
		})
	}
}

func TestWriteRunsRoundTrip(t *testing.T) {
	start := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	records := []schema.RunRecord{
		{
			RunID:        "run-1",
			Repository:   "/src/app",
			Head:         "abc123",
			StartTime:    start,
			EndTime:      start.Add(1500 * time.Millisecond),
			TotalCommits: 42,
			Warnings:     1,
			ConfigParams: `{"ref":"HEAD"}`,
		},
		{
			RunID:      "run-2",
			Repository: "/src/app",
			StartTime:  start.Add(time.Hour),
		},
	}
	path := filepath.Join(t.TempDir(), "runs.parquet")
	require.NoError(t, WriteRows(ConvertRunRecords(records), path))

	rows := readRows[Run](t, path)
	require.Len(t, rows, 2)

	assert.Equal(t, "run-1", rows[0].RunID)
	assert.Equal(t, int64(42), rows[0].TotalCommits)
	require.NotNil(t, rows[0].EndTime)
	require.NotNil(t, rows[0].RunDurationMs)
	assert.Equal(t, int64(1500), *rows[0].RunDurationMs)
	require.NotNil(t, rows[0].ConfigParams)
	assert.JSONEq(t, `{"ref":"HEAD"}`, *rows[0].ConfigParams)
	assert.WithinDuration(t, start, rows[0].StartTime, time.Millisecond)

	assert.Nil(t, rows[1].EndTime, "unfinished run has no end time")
	assert.Nil(t, rows[1].RunDurationMs)
	assert.Nil(t, rows[1].ConfigParams)
}

func TestWriteRunChildrenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	first := time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)

	languagesPath := filepath.Join(dir, "languages.parquet")
	require.NoError(t, WriteRows(ConvertRunLanguageRecords([]schema.RunLanguageRecord{
		{RunID: "run-1", Language: "Go", Added: 100, Removed: 20, Files: 7},
		{RunID: "run-1", Language: "Markdown", Added: 5, Files: 1},
	}), languagesPath))
	languages := readRows[RunLanguage](t, languagesPath)
	require.Len(t, languages, 2)
	assert.Equal(t, RunLanguage{RunID: "run-1", Language: "Go", Added: 100, Removed: 20, Files: 7}, languages[0])

	contributorsPath := filepath.Join(dir, "contributors.parquet")
	require.NoError(t, WriteRows(ConvertRunContributorRecords([]schema.RunContributorRecord{
		{RunID: "run-1", Key: "alice@example.com", Name: "Alice", Commits: 3, Added: 10, Removed: 2, FirstCommit: first, LastCommit: first.Add(48 * time.Hour)},
	}), contributorsPath))
	contributors := readRows[RunContributor](t, contributorsPath)
	require.Len(t, contributors, 1)
	assert.Equal(t, "alice@example.com", contributors[0].Key)
	assert.Equal(t, int64(3), contributors[0].Commits)
	assert.WithinDuration(t, first.Add(48*time.Hour), contributors[0].LastCommit, time.Millisecond)
}

func TestConvertReportViews(t *testing.T) {
	start := time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)
	report := &schema.Report{
		Granularity: schema.WeekGranularity,
		Activity: []schema.ActivityBucket{
			{Start: start, Commits: 4, Added: 40, Removed: 4},
		},
		Contributors: []schema.ContributorStats{{Key: "bob@example.com", Name: "Bob", Email: "Bob@Example.com", Commits: 4}},
		Languages:    []schema.LanguageStats{{Language: "Rust", Added: 40, Removed: 4, Files: 2}},
		Composition:  []schema.LanguageShare{{Language: "Rust", Files: 2, Lines: 36, Bytes: 900}},
	}

	activity := ConvertActivity(report)
	require.Len(t, activity, 1)
	assert.Equal(t, "2024-W19", activity[0].Bucket)
	assert.Equal(t, int64(4), activity[0].Commits)

	assert.Equal(t, []Contributor{{Key: "bob@example.com", Name: "Bob", Email: "Bob@Example.com", Commits: 4}}, ConvertContributors(report.Contributors))
	assert.Equal(t, []Language{{Language: "Rust", Added: 40, Removed: 4, Files: 2}}, ConvertLanguages(report.Languages))
	assert.Equal(t, []Composition{{Language: "Rust", Files: 2, Lines: 36, Bytes: 900}}, ConvertComposition(report.Composition))

	path := filepath.Join(t.TempDir(), "activity.parquet")
	require.NoError(t, WriteRows(activity, path))
	assert.Equal(t, "2024-W19", readRows[Activity](t, path)[0].Bucket)
}

func TestWriteRowsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRows([]Language{}, path))
	assert.Empty(t, readRows[Language](t, path))
}

func TestWriteRowsInvalidPath(t *testing.T) {
	err := WriteRows([]Language{{Language: "Go"}}, filepath.Join(t.TempDir(), "missing", "out.parquet"))
	assert.Error(t, err)
}
