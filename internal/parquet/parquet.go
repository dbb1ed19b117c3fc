// Package parquet provides data structures and functions for exporting gitreport
// reports and run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/gitreport/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single stored analysis run.
// This struct maps to the report_runs database table.
type Run struct {
	RunID      string `parquet:"run_id,snappy"`
	Repository string `parquet:"repository,snappy"`
	Head       string `parquet:"head,snappy"`

	// StartTime is when the run began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable for runs that never finished)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	TotalCommits int64 `parquet:"total_commits,snappy"`
	Warnings     int64 `parquet:"warnings,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RunLanguage is one language row of a stored run.
// This struct maps to the report_languages database table.
type RunLanguage struct {
	RunID    string `parquet:"run_id,snappy"`
	Language string `parquet:"language,snappy"`
	Added    int64  `parquet:"added,snappy"`
	Removed  int64  `parquet:"removed,snappy"`
	Files    int64  `parquet:"files,snappy"`
}

// RunContributor is one contributor row of a stored run.
// This struct maps to the report_contributors database table.
type RunContributor struct {
	RunID       string    `parquet:"run_id,snappy"`
	Key         string    `parquet:"contributor_key,snappy"`
	Name        string    `parquet:"name,snappy"`
	Commits     int64     `parquet:"commits,snappy"`
	Added       int64     `parquet:"added,snappy"`
	Removed     int64     `parquet:"removed,snappy"`
	FirstCommit time.Time `parquet:"first_commit,snappy"`
	LastCommit  time.Time `parquet:"last_commit,snappy"`
}

// Activity is one activity bucket of a report.
type Activity struct {
	Bucket  string    `parquet:"bucket,snappy"`
	Start   time.Time `parquet:"start,snappy"`
	Commits int64     `parquet:"commits,snappy"`
	Added   int64     `parquet:"added,snappy"`
	Removed int64     `parquet:"removed,snappy"`
}

// Contributor is one contributor of a report.
type Contributor struct {
	Key         string    `parquet:"contributor_key,snappy"`
	Name        string    `parquet:"name,snappy"`
	Email       string    `parquet:"email,snappy"`
	Commits     int64     `parquet:"commits,snappy"`
	Added       int64     `parquet:"added,snappy"`
	Removed     int64     `parquet:"removed,snappy"`
	FirstCommit time.Time `parquet:"first_commit,snappy"`
	LastCommit  time.Time `parquet:"last_commit,snappy"`
}

// Language is one language of a report.
type Language struct {
	Language string `parquet:"language,snappy"`
	Added    int64  `parquet:"added,snappy"`
	Removed  int64  `parquet:"removed,snappy"`
	Files    int64  `parquet:"files,snappy"`
}

// Composition is the size of one language in the analysed tree.
type Composition struct {
	Language string `parquet:"language,snappy"`
	Files    int64  `parquet:"files,snappy"`
	Lines    int64  `parquet:"lines,snappy"`
	Bytes    int64  `parquet:"bytes,snappy"`
}

// WriteRows writes a slice of rows to a Parquet file whose schema is inferred
// from the struct tags of T.
func WriteRows[T any](data []T, outputPath string) (err error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { err = errors.Join(err, file.Close()) }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts stored runs for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		run := Run{
			RunID:        record.RunID,
			Repository:   record.Repository,
			Head:         record.Head,
			StartTime:    record.StartTime,
			TotalCommits: int64(record.TotalCommits),
			Warnings:     int64(record.Warnings),
		}
		if !record.EndTime.IsZero() {
			end := record.EndTime
			duration := end.Sub(record.StartTime).Milliseconds()
			run.EndTime = &end
			run.RunDurationMs = &duration
		}
		if record.ConfigParams != "" {
			params := record.ConfigParams
			run.ConfigParams = &params
		}
		result[i] = run
	}
	return result
}

// ConvertRunLanguageRecords converts stored language rows for Parquet export.
func ConvertRunLanguageRecords(records []schema.RunLanguageRecord) []RunLanguage {
	result := make([]RunLanguage, len(records))
	for i, record := range records {
		result[i] = RunLanguage{
			RunID:    record.RunID,
			Language: record.Language,
			Added:    int64(record.Added),
			Removed:  int64(record.Removed),
			Files:    int64(record.Files),
		}
	}
	return result
}

// ConvertRunContributorRecords converts stored contributor rows for Parquet export.
func ConvertRunContributorRecords(records []schema.RunContributorRecord) []RunContributor {
	result := make([]RunContributor, len(records))
	for i, record := range records {
		result[i] = RunContributor{
			RunID:       record.RunID,
			Key:         record.Key,
			Name:        record.Name,
			Commits:     int64(record.Commits),
			Added:       int64(record.Added),
			Removed:     int64(record.Removed),
			FirstCommit: record.FirstCommit,
			LastCommit:  record.LastCommit,
		}
	}
	return result
}

// ConvertActivity converts the activity view of a report.
func ConvertActivity(report *schema.Report) []Activity {
	labels := report.Buckets()
	result := make([]Activity, len(report.Activity))
	for i, b := range report.Activity {
		result[i] = Activity{
			Bucket:  labels[i],
			Start:   b.Start,
			Commits: int64(b.Commits),
			Added:   int64(b.Added),
			Removed: int64(b.Removed),
		}
	}
	return result
}

// ConvertContributors converts the contributor view of a report.
func ConvertContributors(contributors []schema.ContributorStats) []Contributor {
	result := make([]Contributor, len(contributors))
	for i, c := range contributors {
		result[i] = Contributor{
			Key:         c.Key,
			Name:        c.Name,
			Email:       c.Email,
			Commits:     int64(c.Commits),
			Added:       int64(c.Added),
			Removed:     int64(c.Removed),
			FirstCommit: c.FirstCommit,
			LastCommit:  c.LastCommit,
		}
	}
	return result
}

// ConvertLanguages converts the language view of a report.
func ConvertLanguages(languages []schema.LanguageStats) []Language {
	result := make([]Language, len(languages))
	for i, l := range languages {
		result[i] = Language{
			Language: string(l.Language),
			Added:    int64(l.Added),
			Removed:  int64(l.Removed),
			Files:    int64(l.Files),
		}
	}
	return result
}

// ConvertComposition converts the composition view of a report.
func ConvertComposition(shares []schema.LanguageShare) []Composition {
	result := make([]Composition, len(shares))
	for i, s := range shares {
		result[i] = Composition{
			Language: string(s.Language),
			Files:    int64(s.Files),
			Lines:    int64(s.Lines),
			Bytes:    s.Bytes,
		}
	}
	return result
}
