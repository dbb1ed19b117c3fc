package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/gitreport/schema"
)

// csvHeader is the long format shared by every report section.
var csvHeader = []string{"section", "label", "metric", "value"}

// writeReportCSV writes the report as section,label,metric,value rows.
func writeReportCSV(w io.Writer, report *schema.Report) error {
	return writeCSVWithHeader(w, csvHeader, func(cw *csv.Writer) error {
		var rows [][]string
		add := func(section, label, metric, value string) {
			rows = append(rows, []string{section, label, metric, value})
		}
		addInt := func(section, label, metric string, value int) {
			add(section, label, metric, strconv.Itoa(value))
		}

		// 1. Summary
		add("summary", "repository", "path", report.Repository)
		add("summary", "repository", "origin", report.Origin)
		add("summary", "repository", "ref", report.Ref)
		add("summary", "repository", "head", report.Head)
		add("summary", "repository", "granularity", string(report.Granularity))
		add("summary", "repository", "generated_at", report.GeneratedAt.UTC().Format(time.RFC3339))
		addInt("summary", "repository", "total_commits", report.TotalCommits)

		// 2. Activity
		labels := report.Buckets()
		for i, b := range report.Activity {
			addInt("activity", labels[i], "commits", b.Commits)
			addInt("activity", labels[i], "added", b.Added)
			addInt("activity", labels[i], "removed", b.Removed)
		}

		// 3. Contributors
		for _, c := range report.Contributors {
			add("contributor", c.Key, "name", c.Name)
			addInt("contributor", c.Key, "commits", c.Commits)
			addInt("contributor", c.Key, "added", c.Added)
			addInt("contributor", c.Key, "removed", c.Removed)
			add("contributor", c.Key, "first_commit", c.FirstCommit.UTC().Format(time.RFC3339))
			add("contributor", c.Key, "last_commit", c.LastCommit.UTC().Format(time.RFC3339))
		}

		// 4. Languages and composition
		for _, l := range report.Languages {
			addInt("language", string(l.Language), "files", l.Files)
			addInt("language", string(l.Language), "added", l.Added)
			addInt("language", string(l.Language), "removed", l.Removed)
		}
		for _, s := range report.Composition {
			addInt("composition", string(s.Language), "files", s.Files)
			addInt("composition", string(s.Language), "lines", s.Lines)
			add("composition", string(s.Language), "bytes", strconv.FormatInt(s.Bytes, 10))
		}

		// 5. Warnings
		for _, warn := range report.Warnings {
			add("warning", warn.CommitID, string(warn.Kind), warn.Message)
		}

		return cw.WriteAll(rows)
	})
}
