package gitrepo

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
)

// ExecRepository implements contract.Repository by executing the
// local 'git' binary installed on the machine.
type ExecRepository struct {
	path   string
	origin string
}

var _ contract.Repository = &ExecRepository{} // Compile-time check

// OpenExec verifies that git is installed and that path is inside a work tree.
func OpenExec(path string) (*ExecRepository, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, &contract.RepositoryOpenError{Path: path, Reason: "git executable not found on PATH", Err: err}
	}
	out, err := run(context.Background(), path, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, &contract.RepositoryOpenError{Path: path, Reason: "not a git repository", Err: err}
	}
	r := &ExecRepository{path: strings.TrimSpace(string(out))}
	if url, err := run(context.Background(), r.path, "config", "--get", "remote.origin.url"); err == nil {
		r.origin = displayOrigin(string(url))
	}
	return r, nil
}

// run executes a git command and returns its stdout. Failures keep the
// *exec.ExitError reachable through errors.As.
func run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath, "-c", "core.quotePath=false"}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git %s failed in %q: %s: %w", args[0], repoPath, stderr, err)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// Path implements contract.Repository.
func (r *ExecRepository) Path() string { return r.path }

// ResolveRef implements contract.Repository.
func (r *ExecRepository) ResolveRef(ctx context.Context, ref string) (string, error) {
	out, err := run(ctx, r.path, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("cannot resolve reference %q: %w", ref, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ReadCommit implements contract.Repository.
func (r *ExecRepository) ReadCommit(ctx context.Context, id string) (schema.Commit, error) {
	out, err := run(ctx, r.path, "show", "-s", "--format=%H%x00%P%x00%an%x00%ae%x00%aI", id)
	if err != nil {
		if ctx.Err() != nil {
			return schema.Commit{}, ctx.Err()
		}
		return schema.Commit{}, &contract.RepositoryReadError{CommitID: id, Err: err}
	}
	commit, err := parseCommitHeader(strings.TrimRight(string(out), "\n"))
	if err != nil {
		return schema.Commit{}, &contract.RepositoryReadError{CommitID: id, Err: err}
	}
	return commit, nil
}

// Diff implements contract.Repository. It pairs --raw lines (change kind) with
// --numstat lines (line counts); git prints both in the same order.
func (r *ExecRepository) Diff(ctx context.Context, commit schema.Commit) ([]schema.FileChange, error) {
	if commit.IsMerge() {
		return nil, nil
	}
	out, err := run(ctx, r.path, "show", "--format=", "--raw", "--numstat", "-M", "--no-abbrev", commit.ID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &contract.RepositoryReadError{CommitID: commit.ID, Err: err}
	}
	changes, err := parseRawNumstat(out)
	if err != nil {
		return nil, &contract.RepositoryReadError{CommitID: commit.ID, Err: err}
	}
	return changes, nil
}

// ListFilesAtRef implements contract.Repository. Sizes come from ls-tree and line
// counts from grep, which skips binary files.
func (r *ExecRepository) ListFilesAtRef(ctx context.Context, ref string) ([]schema.FileEntry, error) {
	id, err := r.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	tree, err := run(ctx, r.path, "ls-tree", "-r", "-l", id)
	if err != nil {
		return nil, &contract.RepositoryReadError{CommitID: id, Err: err}
	}
	entries := parseLsTree(tree)
	if len(entries) == 0 {
		return entries, nil
	}

	counts := map[string]int{}
	grep, err := run(ctx, r.path, "grep", "-I", "-c", "", id, "--")
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		counts = parseGrepCounts(grep, id)
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
		// No text file has a line
	default:
		return nil, &contract.RepositoryReadError{CommitID: id, Err: err}
	}

	for i := range entries {
		if n, ok := counts[entries[i].Path]; ok {
			entries[i].Lines = n
		} else if entries[i].Bytes > 0 {
			entries[i].Binary = true
		}
	}
	return entries, nil
}

// Origin implements contract.Repository.
func (r *ExecRepository) Origin() string { return r.origin }

// Close implements contract.Repository.
func (r *ExecRepository) Close() error { return nil }

// parseCommitHeader parses "hash NUL parents NUL name NUL email NUL iso-date".
func parseCommitHeader(line string) (schema.Commit, error) {
	parts := strings.Split(line, "\x00")
	if len(parts) != 5 {
		return schema.Commit{}, fmt.Errorf("malformed commit header %q", line)
	}
	when, err := time.Parse(time.RFC3339, parts[4])
	if err != nil {
		return schema.Commit{}, fmt.Errorf("malformed commit date %q: %w", parts[4], err)
	}
	parents := strings.Fields(parts[1])
	if parents == nil {
		parents = []string{}
	}
	return schema.Commit{
		ID:      parts[0],
		Parents: parents,
		Author:  schema.Author{Name: parts[2], Email: parts[3]},
		When:    when.UTC(),
	}, nil
}

// parseRawNumstat parses the combined output of `git show --raw --numstat`.
func parseRawNumstat(out []byte) ([]schema.FileChange, error) {
	var changes []schema.FileChange
	next := 0
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			fc, err := parseRawLine(line)
			if err != nil {
				return nil, err
			}
			changes = append(changes, fc)
			continue
		}
		if next >= len(changes) {
			return nil, fmt.Errorf("numstat line without raw entry: %q", line)
		}
		added, removed, binary, path, ok := parseNumstatLine(line)
		if !ok {
			return nil, fmt.Errorf("malformed numstat line %q", line)
		}
		if _, newPath := parseRenamePath(path); newPath != changes[next].Path {
			return nil, fmt.Errorf("numstat path %q does not match raw path %q", newPath, changes[next].Path)
		}
		changes[next].Added = added
		changes[next].Removed = removed
		changes[next].Binary = binary
		next++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

// parseRawLine parses ":<mode> <mode> <sha> <sha> <status>\t<path>[\t<path>]".
func parseRawLine(line string) (schema.FileChange, error) {
	fields := strings.Split(line, "\t")
	meta := strings.Fields(fields[0])
	if len(meta) != 5 || len(fields) < 2 {
		return schema.FileChange{}, fmt.Errorf("malformed raw line %q", line)
	}
	fc := schema.FileChange{Path: unquotePath(fields[1])}
	switch meta[4][0] {
	case 'A':
		fc.Kind = schema.ChangeAdded
	case 'D':
		fc.Kind = schema.ChangeDeleted
	case 'R':
		if len(fields) < 3 {
			return schema.FileChange{}, fmt.Errorf("rename without target %q", line)
		}
		fc.Kind = schema.ChangeRenamed
		fc.OldPath = fc.Path
		fc.Path = unquotePath(fields[2])
	case 'C':
		// A copy adds a new file whose content came from elsewhere
		if len(fields) < 3 {
			return schema.FileChange{}, fmt.Errorf("copy without target %q", line)
		}
		fc.Kind = schema.ChangeAdded
		fc.Path = unquotePath(fields[2])
	default:
		fc.Kind = schema.ChangeModified
	}
	return fc, nil
}

// parseNumstatLine parses "<added>\t<removed>\t<path>". Binary files report "-".
func parseNumstatLine(line string) (added, removed int, binary bool, path string, ok bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 {
		return 0, 0, false, "", false
	}
	binary = parts[0] == "-" && parts[1] == "-"
	return parseChurnValue(parts[0]), parseChurnValue(parts[1]), binary, parts[2], true
}

// parseChurnValue converts a churn string to int, handling "-" as 0.
func parseChurnValue(s string) int {
	if val, err := strconv.Atoi(s); err == nil && val >= 0 {
		return val
	}
	return 0
}

// parseRenamePath extracts old and new paths from numstat rename syntax,
// either "old => new" or "prefix{old => new}suffix". Quoted names never use braces.
func parseRenamePath(path string) (string, string) {
	if unquoted, ok := unquoteField(path); ok {
		return unquoted, unquoted
	}
	if !strings.Contains(path, " => ") {
		return path, path
	}
	braceStart := strings.Index(path, "{")
	braceEnd := strings.LastIndex(path, "}")
	if braceStart == -1 || braceEnd == -1 || braceStart >= braceEnd {
		parts := strings.SplitN(path, " => ", 2)
		return unquotePath(parts[0]), unquotePath(parts[1])
	}

	prefix := path[:braceStart]
	suffix := path[braceEnd+1:]
	renameParts := strings.SplitN(path[braceStart+1:braceEnd], " => ", 2)
	if len(renameParts) != 2 {
		return path, path
	}
	// "dir/{ => sub}/a.go" leaves an empty side, collapse the doubled slash
	oldPath := strings.ReplaceAll(prefix+renameParts[0]+suffix, "//", "/")
	newPath := strings.ReplaceAll(prefix+renameParts[1]+suffix, "//", "/")
	return oldPath, newPath
}

// parseLsTree parses "<mode> <type> <sha> <size>\t<path>", keeping blobs only.
func parseLsTree(out []byte) []schema.FileEntry {
	var entries []schema.FileEntry
	for line := range strings.SplitSeq(strings.TrimRight(string(out), "\n"), "\n") {
		meta, path, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) != 4 || fields[1] != "blob" {
			continue
		}
		size, _ := strconv.ParseInt(fields[3], 10, 64)
		entries = append(entries, schema.FileEntry{Path: unquotePath(path), Bytes: size})
	}
	return entries
}

// parseGrepCounts parses "<rev>:<path>:<count>" lines from `git grep -c`.
// A name that needs quoting is quoted after the rev prefix.
func parseGrepCounts(out []byte, rev string) map[string]int {
	counts := map[string]int{}
	prefix := rev + ":"
	for line := range strings.SplitSeq(strings.TrimRight(string(out), "\n"), "\n") {
		i := strings.LastIndexByte(line, ':')
		if i <= 0 {
			continue
		}
		n, err := strconv.Atoi(line[i+1:])
		if err != nil {
			continue
		}
		counts[unquotePath(strings.TrimPrefix(line[:i], prefix))] = n
	}
	return counts
}

// unquotePath decodes a name git printed in C-quoted form. Names containing a
// double quote, a backslash or a control character are quoted even with
// core.quotePath=false.
func unquotePath(s string) string {
	if unquoted, ok := unquoteField(s); ok {
		return unquoted
	}
	return s
}

// unquoteField reports whether s is one complete C-quoted string and decodes it.
// Git escapes match Go's: \a \b \t \n \v \f \r \" \\ and three-digit octal.
func unquoteField(s string) (string, bool) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return "", false
	}
	return unquoted, true
}
