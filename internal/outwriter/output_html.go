package outwriter

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
	"github.com/pkg/browser"
)

// DefaultHTMLFile is where the HTML report goes when no output file is given.
const DefaultHTMLFile = "git-report.html"

// othersSeries groups every author outside the top contributors.
const othersSeries = "Others"

const (
	chartWidth  = "1100px"
	chartHeight = "480px"
)

const (
	bannerColor       = "#d9480f"
	maxBannerWarnings = 5
)

// openBrowser shows the written report. Tests replace it.
var openBrowser = browser.OpenFile

// writeReportHTML renders the chart page to a file and optionally opens it.
func writeReportHTML(report *schema.Report, cfg *contract.Config) error {
	path := cfg.OutputFile
	if path == "" {
		path = DefaultHTMLFile
	}

	page := buildReportPage(report, cfg.ResultLimit)
	if err := writeWithFile(path, func(w io.Writer) error {
		return page.Render(w)
	}, "Wrote HTML report"); err != nil {
		return err
	}

	if cfg.Open {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if err := openBrowser(absPath); err != nil {
			contract.LogWarn("Cannot open the report in a browser", err)
		}
	}
	return nil
}

// buildReportPage assembles one chart per report section.
func buildReportPage(report *schema.Report, limit int) *components.Page {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Git report: %s", report.Repository)
	page.AddCharts(
		activityChart(report),
		authorActivityChart(report, limit),
		contributorChart(report, limit),
		languageChart(report),
		compositionChart(report),
	)
	return page
}

func initOpts() charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight})
}

func activityChart(report *schema.Report) *charts.Bar {
	commits := make([]opts.BarData, len(report.Activity))
	added := make([]opts.BarData, len(report.Activity))
	removed := make([]opts.BarData, len(report.Activity))
	for i, b := range report.Activity {
		commits[i] = opts.BarData{Value: b.Commits}
		added[i] = opts.BarData{Value: b.Added}
		removed[i] = opts.BarData{Value: b.Removed}
	}

	title := opts.Title{Title: "Commit activity", Subtitle: fmt.Sprintf("%d commits per %s", report.TotalCommits, report.Granularity)}
	grid := opts.Grid{}
	if report.Incomplete() {
		lines := warningLines(report)
		title.Subtitle = strings.Join(lines, "\n")
		title.SubtitleStyle = &opts.TextStyle{Color: bannerColor, FontWeight: "bold"}
		grid.Top = fmt.Sprintf("%dpx", 60+18*len(lines))
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(title),
		charts.WithGridOpts(grid),
		initOpts(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	bar.SetXAxis(report.Buckets()).
		AddSeries("Commits", commits).
		AddSeries("Added", added).
		AddSeries("Removed", removed)
	return bar
}

// warningLines lists the banner and the first warnings of an incomplete report.
func warningLines(report *schema.Report) []string {
	lines := []string{"⚠️ " + incompleteBanner(report)}
	for i, warn := range report.Warnings {
		if i == maxBannerWarnings {
			lines = append(lines, fmt.Sprintf("... and %d more", len(report.Warnings)-i))
			break
		}
		lines = append(lines, formatWarning(warn))
	}
	return lines
}

// authorActivityChart stacks the commits of the top authors in each bucket.
func authorActivityChart(report *schema.Report, limit int) *charts.Bar {
	top := report.TopContributors(limit)
	names := make(map[string]string, len(top))
	series := make([]string, 0, len(top)+1)
	for _, c := range top {
		names[c.Key] = displayName(c)
		series = append(series, c.Key)
	}

	bucketIndex := make(map[int64]int, len(report.Activity))
	for i, b := range report.Activity {
		bucketIndex[b.Start.Unix()] = i
	}

	counts := make(map[string][]int, len(series)+1)
	for _, key := range series {
		counts[key] = make([]int, len(report.Activity))
	}
	for _, a := range report.AuthorActivity {
		idx, ok := bucketIndex[a.Start.Unix()]
		if !ok {
			continue
		}
		key := a.Key
		if _, isTop := names[key]; !isTop {
			key = othersSeries
			if _, seen := counts[key]; !seen {
				counts[key] = make([]int, len(report.Activity))
				series = append(series, key)
			}
		}
		counts[key][idx] += a.Commits
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Commit activity per author"}),
		initOpts(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	bar.SetXAxis(report.Buckets())
	for _, key := range series {
		data := make([]opts.BarData, len(counts[key]))
		for i, v := range counts[key] {
			data[i] = opts.BarData{Value: v}
		}
		name, ok := names[key]
		if !ok {
			name = key
		}
		bar.AddSeries(name, data, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
	}
	return bar
}

// contributorChart is a horizontal bar of the top authors, largest on top.
func contributorChart(report *schema.Report, limit int) *charts.Bar {
	top := report.TopContributors(limit)
	labels := make([]string, len(top))
	values := make([]opts.BarData, len(top))
	for i, c := range top {
		labels[len(top)-1-i] = displayName(c)
		values[len(top)-1-i] = opts.BarData{Value: c.Commits}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Commits per author"}),
		initOpts(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithGridOpts(opts.Grid{Left: "25%", Right: "5%"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: labels}),
	)
	bar.AddSeries("Commits", values, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}))
	return bar
}

func languageChart(report *schema.Report) *charts.Bar {
	labels := make([]string, len(report.Languages))
	added := make([]opts.BarData, len(report.Languages))
	removed := make([]opts.BarData, len(report.Languages))
	for i, l := range report.Languages {
		labels[i] = string(l.Language)
		added[i] = opts.BarData{Value: l.Added}
		removed[i] = opts.BarData{Value: l.Removed}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Lines changed per language"}),
		initOpts(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	bar.SetXAxis(labels).
		AddSeries("Added", added, charts.WithBarChartOpts(opts.BarChart{Stack: "lines"})).
		AddSeries("Removed", removed, charts.WithBarChartOpts(opts.BarChart{Stack: "lines"}))
	return bar
}

func compositionChart(report *schema.Report) *charts.Pie {
	data := make([]opts.PieData, 0, len(report.Composition))
	for _, s := range report.Composition {
		data = append(data, opts.PieData{Name: string(s.Language), Value: s.Lines})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Languages at " + shortHash(report.Head), Subtitle: "Lines per language"}),
		initOpts(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	pie.AddSeries("Lines", data).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"35%", "65%"}}),
	)
	return pie
}
