package outwriter

import (
	"fmt"

	"github.com/huangsam/gitreport/internal/parquet"
	"github.com/huangsam/gitreport/schema"
)

// writeReportParquet writes one Parquet file per report section, sharing the given prefix.
func writeReportParquet(report *schema.Report, prefix string) error {
	if prefix == "" {
		return fmt.Errorf("parquet output requires an output file prefix")
	}

	files := []struct {
		suffix string
		write  func(path string) error
	}{
		{".activity.parquet", func(path string) error {
			return parquet.WriteRows(parquet.ConvertActivity(report), path)
		}},
		{".contributors.parquet", func(path string) error {
			return parquet.WriteRows(parquet.ConvertContributors(report.Contributors), path)
		}},
		{".languages.parquet", func(path string) error {
			return parquet.WriteRows(parquet.ConvertLanguages(report.Languages), path)
		}},
		{".composition.parquet", func(path string) error {
			return parquet.WriteRows(parquet.ConvertComposition(report.Composition), path)
		}},
	}

	for _, f := range files {
		path := prefix + f.suffix
		if err := f.write(path); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		_, _ = fmt.Fprintf(messageOut, "💾 Wrote Parquet to %s\n", path)
	}
	return nil
}
