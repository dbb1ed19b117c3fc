package contract

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/huangsam/gitreport/schema"
)

// ErrFakeUnreadable is the cause attached to commits marked unreadable in a FakeRepository.
var ErrFakeUnreadable = errors.New("object is corrupt")

// FakeRepository is an in-memory commit graph for walker and pipeline tests.
// Commits are stored with their changes; ReadCommit strips them the way real readers do.
type FakeRepository struct {
	mu         sync.Mutex
	RepoPath   string
	Refs       map[string]string
	Commits    map[string]schema.Commit
	Files      []schema.FileEntry
	FilesErr   error           // ListFilesAtRef fails with this error when set
	Unreadable map[string]bool // ReadCommit fails for these IDs
	BadDiff    map[string]bool // Diff fails for these IDs
	Reads      map[string]int  // ReadCommit calls per ID
}

var _ Repository = &FakeRepository{} // Compile-time check

// NewFakeRepository builds a fake whose HEAD points at head.
func NewFakeRepository(head string, commits ...schema.Commit) *FakeRepository {
	f := &FakeRepository{
		RepoPath:   "/fake/repo",
		Refs:       map[string]string{"HEAD": head},
		Commits:    make(map[string]schema.Commit, len(commits)),
		Unreadable: map[string]bool{},
		BadDiff:    map[string]bool{},
		Reads:      map[string]int{},
	}
	for _, c := range commits {
		f.Commits[c.ID] = c
	}
	return f
}

// Path implements the Repository interface.
func (f *FakeRepository) Path() string { return f.RepoPath }

// ResolveRef implements the Repository interface.
func (f *FakeRepository) ResolveRef(_ context.Context, ref string) (string, error) {
	if id, ok := f.Refs[ref]; ok {
		return id, nil
	}
	if _, ok := f.Commits[ref]; ok {
		return ref, nil
	}
	return "", fmt.Errorf("unknown reference %q", ref)
}

// ReadCommit implements the Repository interface.
func (f *FakeRepository) ReadCommit(ctx context.Context, id string) (schema.Commit, error) {
	if err := ctx.Err(); err != nil {
		return schema.Commit{}, err
	}
	f.mu.Lock()
	f.Reads[id]++
	f.mu.Unlock()

	c, ok := f.Commits[id]
	if !ok || f.Unreadable[id] {
		return schema.Commit{}, &RepositoryReadError{CommitID: id, Err: ErrFakeUnreadable}
	}
	c.Changes = nil
	return c, nil
}

// Diff implements the Repository interface. Merge commits report no changes.
func (f *FakeRepository) Diff(ctx context.Context, commit schema.Commit) ([]schema.FileChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.BadDiff[commit.ID] {
		return nil, &RepositoryReadError{CommitID: commit.ID, Err: ErrFakeUnreadable}
	}
	if commit.IsMerge() {
		return nil, nil
	}
	stored, ok := f.Commits[commit.ID]
	if !ok {
		return nil, &RepositoryReadError{CommitID: commit.ID, Err: ErrFakeUnreadable}
	}
	return stored.Changes, nil
}

// ListFilesAtRef implements the Repository interface.
func (f *FakeRepository) ListFilesAtRef(ctx context.Context, ref string) ([]schema.FileEntry, error) {
	if _, err := f.ResolveRef(ctx, ref); err != nil {
		return nil, err
	}
	if f.FilesErr != nil {
		return nil, f.FilesErr
	}
	return f.Files, nil
}

// Origin implements the Repository interface.
func (f *FakeRepository) Origin() string { return "" }

// Close implements the Repository interface.
func (f *FakeRepository) Close() error { return nil }
