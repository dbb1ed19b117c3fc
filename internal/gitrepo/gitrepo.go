// Package gitrepo implements read-only access to a local git repository.
package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
	giturls "github.com/whilp/git-urls"
)

// Open opens the repository at path with the requested backend.
// A missing path or a directory that is not a repository yields *contract.RepositoryOpenError.
func Open(path string, backend schema.ReaderBackend) (contract.Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &contract.RepositoryOpenError{Path: path, Reason: "invalid path", Err: err}
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &contract.RepositoryOpenError{Path: absPath, Reason: "path does not exist"}
		}
		return nil, &contract.RepositoryOpenError{Path: absPath, Reason: "path is not accessible", Err: err}
	}
	if !info.IsDir() {
		return nil, &contract.RepositoryOpenError{Path: absPath, Reason: "path is not a directory"}
	}

	switch backend {
	case schema.ExecBackend:
		return OpenExec(absPath)
	case schema.GoGitBackend, "":
		return OpenGoGit(absPath)
	default:
		return nil, fmt.Errorf("unknown reader backend %q", backend)
	}
}

// displayOrigin turns a remote URL into "host/owner/repo" without credentials or scheme.
// Unparseable URLs (local paths, for instance) are returned unchanged.
func displayOrigin(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := giturls.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	path := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	if path == "" {
		return u.Hostname()
	}
	return u.Hostname() + "/" + path
}

// countLines counts lines the way diff tools do: a trailing fragment without
// a newline is still a line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
