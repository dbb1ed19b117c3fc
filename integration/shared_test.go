//go:build basic || database

// Package integration runs the gitreport binary end to end.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Or with database containers: go test -tags database ./integration
package integration

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a gitreport binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}
	os.Exit(code)
}

// getBinary returns the path to the gitreport binary, building it once if needed.
func getBinary() string {
	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "gitreport-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "gitreport")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from the project root
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build gitreport: %v\n%s", err, out))
		}
		sharedBinaryPath = binaryPath
	})
	return sharedBinaryPath
}

// runGitreport runs the binary in dir with extra environment variables and returns
// its stdout and exit code.
func runGitreport(t *testing.T, dir string, env []string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return stdout.String(), 0
	case errors.As(err, &exitErr):
		t.Logf("Command exited with %d: %s\nStderr: %s", exitErr.ExitCode(), cmd.String(), stderr.String())
		return stdout.String(), exitErr.ExitCode()
	default:
		require.NoError(t, err)
		return "", -1
	}
}

// gitInDir runs a git command with a fixed identity and date.
func gitInDir(t *testing.T, dir, author string, when time.Time, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	stamp := when.Format(time.RFC3339)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+author, "GIT_AUTHOR_EMAIL="+author+"@example.com", "GIT_AUTHOR_DATE="+stamp,
		"GIT_COMMITTER_NAME="+author, "GIT_COMMITTER_EMAIL="+author+"@example.com", "GIT_COMMITTER_DATE="+stamp,
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return string(out)
}

// sampleRepo creates a repository with a feature branch merged into main.
func sampleRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	when := time.Date(2024, time.February, 5, 10, 0, 0, 0, time.UTC)
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	gitInDir(t, dir, "alice", when, "init", "-q", "-b", "main")
	write("main.go", "package main\n\nfunc main() {}\n")
	gitInDir(t, dir, "alice", when, "add", ".")
	gitInDir(t, dir, "alice", when, "commit", "-q", "-m", "initial")

	gitInDir(t, dir, "bob", when, "checkout", "-q", "-b", "docs")
	write("README.md", "# sample\n\nUsage notes.\n")
	gitInDir(t, dir, "bob", when, "add", ".")
	gitInDir(t, dir, "bob", when.Add(24*time.Hour), "commit", "-q", "-m", "docs")

	gitInDir(t, dir, "alice", when, "checkout", "-q", "main")
	write("util.py", "def f():\n    return 1\n")
	gitInDir(t, dir, "alice", when, "add", ".")
	gitInDir(t, dir, "alice", when.Add(48*time.Hour), "commit", "-q", "-m", "util")
	gitInDir(t, dir, "alice", when.Add(72*time.Hour), "merge", "-q", "--no-ff", "-m", "merge docs", "docs")
	return dir
}
