package gitrepo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// testRepo builds small repositories on disk with go-git.
type testRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
	now  time.Time
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt, now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (r *testRepo) write(path, content string) {
	r.t.Helper()
	full := filepath.Join(r.dir, filepath.FromSlash(path))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0o644))
	_, err := r.wt.Add(path)
	require.NoError(r.t, err)
}

func (r *testRepo) remove(path string) {
	r.t.Helper()
	_, err := r.wt.Remove(path)
	require.NoError(r.t, err)
}

func (r *testRepo) move(from, to string) {
	r.t.Helper()
	_, err := r.wt.Move(from, to)
	require.NoError(r.t, err)
}

// commit records the staged changes one hour after the previous commit.
func (r *testRepo) commit(msg, author string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	r.now = r.now.Add(time.Hour)
	hash, err := r.wt.Commit(msg, &git.CommitOptions{
		Author:            &object.Signature{Name: author, Email: author + "@example.com", When: r.now},
		Parents:           parents,
		AllowEmptyCommits: true,
	})
	require.NoError(r.t, err)
	return hash
}

func (r *testRepo) addOrigin(url string) {
	r.t.Helper()
	_, err := r.repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{url}})
	require.NoError(r.t, err)
}

func (r *testRepo) tag(name string, target plumbing.Hash, annotated bool) {
	r.t.Helper()
	var opts *git.CreateTagOptions
	if annotated {
		opts = &git.CreateTagOptions{Message: name, Tagger: &object.Signature{Name: "t", Email: "t@example.com", When: r.now}}
	}
	_, err := r.repo.CreateTag(name, target, opts)
	require.NoError(r.t, err)
}

func lines(n int) string {
	s := ""
	for i := range n {
		s += "line " + string(rune('a'+i%26)) + "\n"
	}
	return s
}
