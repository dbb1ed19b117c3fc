package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/internal/parquet"
)

// ErrNoRuns is returned when there is no run history to export.
var ErrNoRuns = errors.New("no run data found to export")

// ExecuteRunsExport writes the run history to three Parquet files that share
// the outputFile prefix.
func ExecuteRunsExport(store contract.RunStore, outputFile string, out io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run store is not initialized")
	}

	// 1. Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ErrNoRuns
	}
	_, _ = fmt.Fprintf(out, "Exporting data from %s backend...\n", status.Backend)

	// 2. Read everything
	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	languages, err := store.GetAllLanguages()
	if err != nil {
		return fmt.Errorf("failed to retrieve languages: %w", err)
	}
	contributors, err := store.GetAllContributors()
	if err != nil {
		return fmt.Errorf("failed to retrieve contributors: %w", err)
	}

	// 3. Write one file per table
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRows(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d runs to: %s\n", len(runs), runsFile)

	languagesFile := outputFile + ".languages.parquet"
	if err := parquet.WriteRows(parquet.ConvertRunLanguageRecords(languages), languagesFile); err != nil {
		return fmt.Errorf("failed to write languages: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d language rows to: %s\n", len(languages), languagesFile)

	contributorsFile := outputFile + ".contributors.parquet"
	if err := parquet.WriteRows(parquet.ConvertRunContributorRecords(contributors), contributorsFile); err != nil {
		return fmt.Errorf("failed to write contributors: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d contributor rows to: %s\n", len(contributors), contributorsFile)

	return nil
}
