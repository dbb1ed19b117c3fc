package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
)

// GoGitRepository reads a repository through go-git's object store.
type GoGitRepository struct {
	path string
	repo *git.Repository
}

var _ contract.Repository = &GoGitRepository{} // Compile-time check

// OpenGoGit opens the repository containing path, searching parent directories for .git.
func OpenGoGit(path string) (*GoGitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, &contract.RepositoryOpenError{Path: path, Reason: "not a git repository"}
		}
		return nil, &contract.RepositoryOpenError{Path: path, Reason: "cannot open repository", Err: err}
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &GoGitRepository{path: root, repo: repo}, nil
}

// Path implements contract.Repository.
func (r *GoGitRepository) Path() string { return r.path }

// ResolveRef implements contract.Repository. Annotated tags are peeled to their commit.
func (r *GoGitRepository) ResolveRef(_ context.Context, ref string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("cannot resolve reference %q: %w", ref, err)
	}
	if tag, err := r.repo.TagObject(*hash); err == nil {
		commit, err := tag.Commit()
		if err != nil {
			return "", fmt.Errorf("tag %q does not point to a commit: %w", ref, err)
		}
		return commit.Hash.String(), nil
	}
	return hash.String(), nil
}

// ReadCommit implements contract.Repository.
func (r *GoGitRepository) ReadCommit(ctx context.Context, id string) (schema.Commit, error) {
	if err := ctx.Err(); err != nil {
		return schema.Commit{}, err
	}
	c, err := r.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return schema.Commit{}, &contract.RepositoryReadError{CommitID: id, Err: err}
	}
	return toCommit(c), nil
}

// Diff implements contract.Repository.
func (r *GoGitRepository) Diff(ctx context.Context, commit schema.Commit) ([]schema.FileChange, error) {
	if commit.IsMerge() {
		return nil, nil
	}

	c, err := r.repo.CommitObject(plumbing.NewHash(commit.ID))
	if err != nil {
		return nil, &contract.RepositoryReadError{CommitID: commit.ID, Err: err}
	}
	to, err := c.Tree()
	if err != nil {
		return nil, &contract.RepositoryReadError{CommitID: commit.ID, Err: err}
	}

	// Root commits diff against the empty tree
	from := &object.Tree{}
	if c.NumParents() == 1 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, &contract.RepositoryReadError{CommitID: commit.ID, Err: err}
		}
		if from, err = parent.Tree(); err != nil {
			return nil, &contract.RepositoryReadError{CommitID: commit.ID, Err: err}
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, from, to, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, &contract.RepositoryReadError{CommitID: commit.ID, Err: err}
	}

	result := make([]schema.FileChange, 0, len(changes))
	for _, change := range changes {
		fc, err := toFileChange(ctx, change)
		if err != nil {
			return nil, &contract.RepositoryReadError{CommitID: commit.ID, Err: err}
		}
		result = append(result, fc)
	}
	return result, nil
}

// ListFilesAtRef implements contract.Repository.
func (r *GoGitRepository) ListFilesAtRef(ctx context.Context, ref string) ([]schema.FileEntry, error) {
	id, err := r.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	c, err := r.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, &contract.RepositoryReadError{CommitID: id, Err: err}
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, &contract.RepositoryReadError{CommitID: id, Err: err}
	}

	var entries []schema.FileEntry
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := schema.FileEntry{Path: f.Name, Bytes: f.Size}
		binary, err := f.IsBinary()
		if err != nil {
			return err
		}
		if binary {
			entry.Binary = true
			entries = append(entries, entry)
			return nil
		}
		contents, err := f.Contents()
		if err != nil {
			return err
		}
		entry.Lines = countLines(contents)
		entries = append(entries, entry)
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("cannot list files at %s: %w", ref, err)
	}
	return entries, nil
}

// Origin implements contract.Repository.
func (r *GoGitRepository) Origin() string {
	remote, err := r.repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return ""
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return displayOrigin(urls[0])
}

// Close implements contract.Repository. go-git holds no open handles for a
// filesystem repository, so there is nothing to release.
func (r *GoGitRepository) Close() error { return nil }

func toCommit(c *object.Commit) schema.Commit {
	parents := make([]string, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = p.String()
	}
	return schema.Commit{
		ID:      c.Hash.String(),
		Parents: parents,
		Author:  schema.Author{Name: c.Author.Name, Email: c.Author.Email},
		When:    c.Author.When.UTC(),
	}
}

// toFileChange converts one tree change, counting lines from its patch.
func toFileChange(ctx context.Context, change *object.Change) (schema.FileChange, error) {
	action, err := change.Action()
	if err != nil {
		return schema.FileChange{}, err
	}

	fc := schema.FileChange{Path: change.To.Name}
	switch action {
	case merkletrie.Insert:
		fc.Kind = schema.ChangeAdded
	case merkletrie.Delete:
		fc.Kind = schema.ChangeDeleted
		fc.Path = change.From.Name
	default:
		fc.Kind = schema.ChangeModified
		if change.From.Name != change.To.Name {
			fc.Kind = schema.ChangeRenamed
			fc.OldPath = change.From.Name
		}
	}

	patch, err := change.PatchContext(ctx)
	if err != nil {
		return schema.FileChange{}, err
	}
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			fc.Binary = true
			continue
		}
		for _, chunk := range fp.Chunks() {
			switch chunk.Type() {
			case fdiff.Add:
				fc.Added += countLines(chunk.Content())
			case fdiff.Delete:
				fc.Removed += countLines(chunk.Content())
			}
		}
	}
	return fc, nil
}
