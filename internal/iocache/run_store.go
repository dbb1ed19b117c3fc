package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
)

// Table names for run history.
const (
	runsTable         = "report_runs"
	languagesTable    = "report_languages"
	contributorsTable = "report_contributors"
)

// runTables lists the run history tables, parents first.
var runTables = []string{runsTable, languagesTable, contributorsTable}

// runTableDDL holds portable CREATE statements for the run history tables.
// The embedded migrations create the same layout.
var runTableDDL = map[string]string{
	runsTable: `CREATE TABLE IF NOT EXISTS report_runs (
		run_id VARCHAR(36) PRIMARY KEY,
		repository VARCHAR(1024) NOT NULL,
		head VARCHAR(64),
		start_time BIGINT NOT NULL,
		end_time BIGINT,
		run_duration_ms BIGINT,
		total_commits INTEGER,
		warnings INTEGER,
		config_params TEXT
	)`,
	languagesTable: `CREATE TABLE IF NOT EXISTS report_languages (
		run_id VARCHAR(36) NOT NULL,
		language VARCHAR(128) NOT NULL,
		added BIGINT NOT NULL,
		removed BIGINT NOT NULL,
		files INTEGER NOT NULL,
		PRIMARY KEY (run_id, language)
	)`,
	contributorsTable: `CREATE TABLE IF NOT EXISTS report_contributors (
		run_id VARCHAR(36) NOT NULL,
		contributor_key VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		commits INTEGER NOT NULL,
		added BIGINT NOT NULL,
		removed BIGINT NOT NULL,
		first_commit BIGINT NOT NULL,
		last_commit BIGINT NOT NULL,
		PRIMARY KEY (run_id, contributor_key)
	)`,
}

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetRunsDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize run store: %w", err)
	}

	for _, table := range runTables {
		if _, err := db.Exec(runTableDDL[table]); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

func (rs *RunStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

func (rs *RunStoreImpl) table(name string) string {
	return quoteTableName(name, rs.backend)
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(repoPath string, startTime time.Time, configParams map[string]any) (string, error) {
	if rs.disabled() {
		return "", nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config params: %w", err)
	}

	runID := uuid.NewString()
	query := fmt.Sprintf(`INSERT INTO %s (run_id, repository, start_time, config_params) VALUES (%s)`,
		rs.table(runsTable), placeholderList(rs.backend, 4))
	if _, err := rs.db.Exec(query, runID, repoPath, startTime.UnixMilli(), string(configJSON)); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID string, endTime time.Time, report *schema.Report) error {
	if rs.disabled() {
		return nil
	}

	// 1. Start time for the duration
	var startMs int64
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, rs.table(runsTable), placeholder(rs.backend, 1))
	if err := rs.db.QueryRow(query, runID).Scan(&startMs); err != nil {
		return fmt.Errorf("failed to get start_time for run %s: %w", runID, err)
	}

	// 2. Completion data
	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, head = %s, total_commits = %s, warnings = %s WHERE run_id = %s`,
		rs.table(runsTable),
		placeholder(rs.backend, 1), placeholder(rs.backend, 2), placeholder(rs.backend, 3),
		placeholder(rs.backend, 4), placeholder(rs.backend, 5), placeholder(rs.backend, 6))
	endMs := endTime.UnixMilli()
	if _, err := rs.db.Exec(update, endMs, endMs-startMs, report.Head, report.TotalCommits, len(report.Warnings), runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordLanguages stores the language view of a report for a run.
func (rs *RunStoreImpl) RecordLanguages(runID string, languages []schema.LanguageStats) error {
	if rs.disabled() || len(languages) == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, language, added, removed, files) VALUES (%s)`,
		rs.table(languagesTable), placeholderList(rs.backend, 5))
	return rs.insertAll(query, len(languages), func(i int) []any {
		l := languages[i]
		return []any{runID, string(l.Language), l.Added, l.Removed, l.Files}
	})
}

// RecordContributors stores the contributor view of a report for a run.
func (rs *RunStoreImpl) RecordContributors(runID string, contributors []schema.ContributorStats) error {
	if rs.disabled() || len(contributors) == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, contributor_key, name, commits, added, removed, first_commit, last_commit) VALUES (%s)`,
		rs.table(contributorsTable), placeholderList(rs.backend, 8))
	return rs.insertAll(query, len(contributors), func(i int) []any {
		c := contributors[i]
		return []any{runID, c.Key, c.Name, c.Commits, c.Added, c.Removed, c.FirstCommit.UnixMilli(), c.LastCommit.UnixMilli()}
	})
}

// insertAll executes one prepared insert per row inside a single transaction.
func (rs *RunStoreImpl) insertAll(query string, n int, args func(i int) []any) error {
	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range n {
		if _, err := stmt.Exec(args(i)...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.disabled() {
		return status, nil
	}

	// 1. Run count and distinct repositories
	row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT repository) FROM %s", rs.table(runsTable)))
	if err := row.Scan(&status.TotalRuns, &status.Repositories); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	// 2. Latest and oldest run
	if status.TotalRuns > 0 {
		var lastMs, oldestMs int64
		row = rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY start_time DESC, run_id DESC LIMIT 1", rs.table(runsTable)))
		if err := row.Scan(&status.LastRunID, &lastMs); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		row = rs.db.QueryRow(fmt.Sprintf("SELECT MIN(start_time) FROM %s", rs.table(runsTable)))
		if err := row.Scan(&oldestMs); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.LastRunTime = time.UnixMilli(lastMs).UTC()
		status.OldestRun = time.UnixMilli(oldestMs).UTC()
	}

	// 3. Row count per table
	for _, table := range runTables {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", rs.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves every stored run ordered by start time.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, repository, head, start_time, end_time, total_commits, warnings, config_params
		FROM %s ORDER BY start_time, run_id`, rs.table(runsTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var head, configParams sql.NullString
		var startMs int64
		var endMs, commits, warnings sql.NullInt64
		if err := rows.Scan(&record.RunID, &record.Repository, &head, &startMs, &endMs, &commits, &warnings, &configParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.Head = head.String
		record.StartTime = time.UnixMilli(startMs).UTC()
		if endMs.Valid {
			record.EndTime = time.UnixMilli(endMs.Int64).UTC()
		}
		record.TotalCommits = int(commits.Int64)
		record.Warnings = int(warnings.Int64)
		record.ConfigParams = configParams.String
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllLanguages retrieves every stored language row.
func (rs *RunStoreImpl) GetAllLanguages() ([]schema.RunLanguageRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, language, added, removed, files FROM %s ORDER BY run_id, language`, rs.table(languagesTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query languages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunLanguageRecord
	for rows.Next() {
		var record schema.RunLanguageRecord
		if err := rows.Scan(&record.RunID, &record.Language, &record.Added, &record.Removed, &record.Files); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating languages: %w", err)
	}
	return results, nil
}

// GetAllContributors retrieves every stored contributor row.
func (rs *RunStoreImpl) GetAllContributors() ([]schema.RunContributorRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, contributor_key, name, commits, added, removed, first_commit, last_commit
		FROM %s ORDER BY run_id, contributor_key`, rs.table(contributorsTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunContributorRecord
	for rows.Next() {
		var record schema.RunContributorRecord
		var firstMs, lastMs int64
		if err := rows.Scan(&record.RunID, &record.Key, &record.Name, &record.Commits,
			&record.Added, &record.Removed, &firstMs, &lastMs); err != nil {
			return nil, fmt.Errorf("failed to scan contributor: %w", err)
		}
		record.FirstCommit = time.UnixMilli(firstMs).UTC()
		record.LastCommit = time.UnixMilli(lastMs).UTC()
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contributors: %w", err)
	}
	return results, nil
}

// Clear deletes all stored runs.
func (rs *RunStoreImpl) Clear() error {
	if rs.disabled() {
		return nil
	}
	for i := len(runTables) - 1; i >= 0; i-- {
		if _, err := rs.db.Exec(fmt.Sprintf("DELETE FROM %s", rs.table(runTables[i]))); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", runTables[i], err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
