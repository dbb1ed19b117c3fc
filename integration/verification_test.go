//go:build basic

package integration

import (
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/huangsam/gitreport/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noCache = []string{"GITREPORT_CACHE_BACKEND=none"}

// gitCount runs a git command in dir and parses its output as an integer.
func gitCount(t *testing.T, dir string, args ...string) int {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	require.NoError(t, err)
	return n
}

// TestReportMatchesGitLog compares the JSON report with what git itself reports.
func TestReportMatchesGitLog(t *testing.T) {
	for _, backend := range []string{"gogit", "git"} {
		t.Run(backend, func(t *testing.T) {
			repo := sampleRepo(t)
			out, code := runGitreport(t, repo, noCache, "--output", "json", "--backend", backend)
			require.Equal(t, 0, code)

			var report schema.Report
			require.NoError(t, json.Unmarshal([]byte(out), &report))
			assert.Equal(t, gitCount(t, repo, "rev-list", "--count", "HEAD"), report.TotalCommits)
			assert.Len(t, report.Contributors, 2)
			assert.Empty(t, report.Warnings)

			languages := map[schema.Language]int{}
			for _, l := range report.Languages {
				languages[l.Language] = l.Added
			}
			assert.Equal(t, map[schema.Language]int{"Go": 3, "Markdown": 3, "Python": 2}, languages)
		})
	}
}

func TestMaxCommitsAndWindow(t *testing.T) {
	repo := sampleRepo(t)

	out, code := runGitreport(t, repo, noCache, "--output", "json", "--max-commits", "2")
	require.Equal(t, 0, code)
	var report schema.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.TotalCommits)

	out, code = runGitreport(t, repo, noCache, "--output", "json", "--since", "2024-02-06T12:00:00Z")
	require.Equal(t, 0, code)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.TotalCommits, "only the util commit and the merge are newer")
}

func TestOutputFormats(t *testing.T) {
	repo := sampleRepo(t)
	dir := t.TempDir()

	out, code := runGitreport(t, repo, noCache, "--color", "no", "--width", "120")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Report built in")

	out, code = runGitreport(t, repo, noCache, "--output", "csv")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "section,label,metric,value\n"))

	htmlFile := filepath.Join(dir, "report.html")
	_, code = runGitreport(t, repo, noCache, "--output", "html", "--output-file", htmlFile)
	require.Equal(t, 0, code)
	assert.FileExists(t, htmlFile)

	prefix := filepath.Join(dir, "report")
	_, code = runGitreport(t, repo, noCache, "--output", "parquet", "--output-file", prefix)
	require.Equal(t, 0, code)
	assert.FileExists(t, prefix+".activity.parquet")

	metricsFile := filepath.Join(dir, "metrics.prom")
	_, code = runGitreport(t, repo, noCache, "--output", "json", "--metrics-file", metricsFile)
	require.Equal(t, 0, code)
	assert.FileExists(t, metricsFile)
}

func TestExitCodes(t *testing.T) {
	_, code := runGitreport(t, t.TempDir(), noCache)
	assert.Equal(t, 1, code, "a directory without a repository is fatal")

	_, code = runGitreport(t, t.TempDir(), noCache, "--granularity", "year")
	assert.Equal(t, 1, code, "invalid configuration is fatal")

	_, code = runGitreport(t, t.TempDir(), nil, "version")
	assert.Equal(t, 0, code)
}
