package contract

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/gitreport/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "report.txt")
		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		excludes   []string
		wantIgnore bool
	}{
		{"empty excludes", "src/main.go", []string{}, false},
		{"prefix match", "vendor/github.com/lib/file.go", []string{"vendor/"}, true},
		{"suffix match", "dist/bundle.min.js", []string{".min.js"}, true},
		{"glob match basename", "src/file.min.js", []string{"*.min.js"}, true},
		{"glob match test suffix", "pkg/unit_test.go", []string{"*_test.go"}, true},
		{"substring match", "src/generated/code.go", []string{"generated"}, true},
		{"blank patterns skipped", "src/main.go", []string{" ", ""}, false},
		{"no match", "src/core/engine.go", []string{"vendor/", "node_modules/", ".min.js"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantIgnore, ShouldIgnore(tt.path, tt.excludes))
		})
	}
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short", TruncatePath("short", 10))
	assert.Equal(t, "...efgh", TruncatePath("abcdefgh", 7))
	assert.Equal(t, "abcdefgh", TruncatePath("abcdefgh", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("perhaps")
	assert.Error(t, err)
}

func TestDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(GetCacheDBFilePath(), homeDir))
	assert.True(t, strings.HasSuffix(GetCacheDBFilePath(), ".gitreport_cache.db"))
	assert.True(t, strings.HasSuffix(GetRunsDBFilePath(), ".gitreport_runs.db"))
	assert.NotEqual(t, GetCacheDBFilePath(), GetRunsDBFilePath())
}

func TestErrorTypes(t *testing.T) {
	t.Run("open error unwraps", func(t *testing.T) {
		err := error(&RepositoryOpenError{Path: "/tmp/x", Reason: "path does not exist", Err: fs.ErrNotExist})
		var openErr *RepositoryOpenError
		require.True(t, errors.As(err, &openErr))
		assert.Equal(t, "/tmp/x", openErr.Path)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Contains(t, err.Error(), "path does not exist")
	})

	t.Run("open error without cause", func(t *testing.T) {
		err := &RepositoryOpenError{Path: "/tmp/x", Reason: "not a git repository"}
		assert.Equal(t, `cannot open repository "/tmp/x": not a git repository`, err.Error())
	})

	t.Run("read error carries commit", func(t *testing.T) {
		cause := errors.New("object not found")
		err := error(&RepositoryReadError{CommitID: "abc123", Err: cause})
		var readErr *RepositoryReadError
		require.True(t, errors.As(err, &readErr))
		assert.Equal(t, "abc123", readErr.CommitID)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("programming error", func(t *testing.T) {
		err := &ProgrammingError{Op: "Record", Msg: "called after Finalize"}
		assert.Equal(t, "programming error in Record: called after Finalize", err.Error())
	})
}

func TestLogAnalysisHeader(t *testing.T) {
	var buf bytes.Buffer
	LogAnalysisHeader(&buf, &Config{
		RepoPath:    "/work/gitreport",
		Ref:         "main",
		Granularity: schema.WeekGranularity,
		StartTime:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	out := buf.String()
	assert.Contains(t, out, "Repo: gitreport (Ref: main, Granularity: week)")
	assert.Contains(t, out, "2024-01-01T00:00:00Z → now")
}
