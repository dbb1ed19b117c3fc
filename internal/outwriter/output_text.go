package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// shortHashLength is how much of a commit hash the tables show.
const shortHashLength = 10

// writeReportText renders every report section as a table, followed by the warnings.
func writeReportText(w io.Writer, report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	paint := painter(cfg)

	// 1. Banner and summary
	if report.Incomplete() {
		if _, err := fmt.Fprintln(w, paint(contract.WarningColor, "⚠️  "+incompleteBanner(report))); err != nil {
			return err
		}
	}
	if err := writeSummary(w, report); err != nil {
		return err
	}

	// 2. Sections
	sections := []struct {
		title string
		write func(io.Writer) error
	}{
		{"Activity", func(w io.Writer) error { return writeActivityTable(w, report) }},
		{fmt.Sprintf("Top %d contributors", len(report.TopContributors(cfg.ResultLimit))), func(w io.Writer) error {
			return writeContributorTable(w, report.TopContributors(cfg.ResultLimit), cfg, paint)
		}},
		{"Languages changed", func(w io.Writer) error { return writeLanguageTable(w, report.Languages, paint) }},
		{"Composition at " + shortHash(report.Head), func(w io.Writer) error { return writeCompositionTable(w, report.Composition) }},
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "\n%s\n", paint(contract.HeaderColor, s.title)); err != nil {
			return err
		}
		if err := s.write(w); err != nil {
			return err
		}
	}

	// 3. Warnings
	if report.Incomplete() {
		if _, err := fmt.Fprintf(w, "\n%s\n", paint(contract.WarningColor, "Warnings")); err != nil {
			return err
		}
		for _, warn := range report.Warnings {
			if _, err := fmt.Fprintf(w, "  %s\n", formatWarning(warn)); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintf(w, "\nReport built in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return err
}

// incompleteBanner is the warning headline shared by the text and HTML reports.
func incompleteBanner(report *schema.Report) string {
	return fmt.Sprintf("Incomplete report: %d warning(s). Totals reflect the readable history only.", len(report.Warnings))
}

// formatWarning renders one warning as "[kind] shorthash message".
func formatWarning(warn schema.Warning) string {
	return fmt.Sprintf("[%s] %s %s", warn.Kind, shortHash(warn.CommitID), warn.Message)
}

// writeSummary prints the repository header lines.
func writeSummary(w io.Writer, report *schema.Report) error {
	repo := report.Repository
	if report.Origin != "" {
		repo = fmt.Sprintf("%s (%s)", report.Repository, report.Origin)
	}
	if _, err := fmt.Fprintf(w, "📦 Repository: %s\n", repo); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "🔖 %s at %s: %s commits, %d contributors, bucketed by %s\n",
		report.Ref, shortHash(report.Head), humanize.Comma(int64(report.TotalCommits)),
		len(report.Contributors), report.Granularity)
	return err
}

func writeActivityTable(w io.Writer, report *schema.Report) error {
	labels := report.Buckets()
	data := make([][]string, 0, len(report.Activity))
	for i, b := range report.Activity {
		data = append(data, []string{
			labels[i],
			humanize.Comma(int64(b.Commits)),
			humanize.Comma(int64(b.Added)),
			humanize.Comma(int64(b.Removed)),
		})
	}
	return renderTable(w, []string{"Bucket", "Commits", "Added", "Removed"}, data)
}

func writeContributorTable(w io.Writer, contributors []schema.ContributorStats, cfg *contract.Config, paint paintFunc) error {
	nameWidth := getMaxTableNameWidth(cfg)
	data := make([][]string, 0, len(contributors))
	for i, c := range contributors {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			truncateName(displayName(c), nameWidth),
			humanize.Comma(int64(c.Commits)),
			paint(contract.AddedColor, "+"+humanize.Comma(int64(c.Added))),
			paint(contract.RemovedColor, "-"+humanize.Comma(int64(c.Removed))),
			c.LastCommit.Format(time.DateOnly),
		})
	}
	return renderTable(w, []string{"Rank", "Author", "Commits", "Added", "Removed", "Last commit"}, data)
}

func writeLanguageTable(w io.Writer, languages []schema.LanguageStats, paint paintFunc) error {
	data := make([][]string, 0, len(languages))
	for _, l := range languages {
		data = append(data, []string{
			string(l.Language),
			humanize.Comma(int64(l.Files)),
			paint(contract.AddedColor, "+"+humanize.Comma(int64(l.Added))),
			paint(contract.RemovedColor, "-"+humanize.Comma(int64(l.Removed))),
		})
	}
	return renderTable(w, []string{"Language", "Files", "Added", "Removed"}, data)
}

func writeCompositionTable(w io.Writer, shares []schema.LanguageShare) error {
	data := make([][]string, 0, len(shares))
	for _, s := range shares {
		data = append(data, []string{
			string(s.Language),
			humanize.Comma(int64(s.Files)),
			humanize.Comma(int64(s.Lines)),
			humanize.Bytes(uint64(max(s.Bytes, 0))),
		})
	}
	return renderTable(w, []string{"Language", "Files", "Lines", "Size"}, data)
}

// renderTable writes one right-aligned table.
func renderTable(w io.Writer, headers []string, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

type paintFunc func(c *color.Color, s string) string

// painter returns a colorizer that is a no-op when colors are disabled.
func painter(cfg *contract.Config) paintFunc {
	return func(c *color.Color, s string) string {
		if !cfg.UseColors {
			return s
		}
		return c.Sprint(s)
	}
}

// displayName prefers the author name and falls back to the identity key.
func displayName(c schema.ContributorStats) string {
	if c.Name != "" {
		return c.Name
	}
	return c.Key
}

// truncateName shortens a name to maxWidth runes with a trailing ellipsis.
func truncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

func shortHash(hash string) string {
	if len(hash) > shortHashLength {
		return hash[:shortHashLength]
	}
	return hash
}
