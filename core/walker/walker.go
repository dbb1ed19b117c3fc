// Package walker traverses a commit graph once per commit, newest first.
package walker

import (
	"container/heap"
	"context"
	"errors"
	"iter"
	"sort"
	"time"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
)

// Options bound a traversal. Zero values mean unbounded.
type Options struct {
	Since      time.Time // Commits older than this are not yielded
	Until      time.Time // Commits newer than this are not yielded
	MaxCommits int       // Stop after yielding this many commits
}

// Walker is the traversal context of one analysis run. It owns the visited set,
// the frontier and the recorded warnings, and is not safe for concurrent use.
type Walker struct {
	repo     contract.Repository
	opts     Options
	visited  map[string]struct{}
	frontier commitHeap
	warnings []schema.Warning
	yielded  int
}

// New creates a traversal context over repo.
func New(repo contract.Repository, opts Options) *Walker {
	return &Walker{
		repo:    repo,
		opts:    opts,
		visited: make(map[string]struct{}),
	}
}

// LogFrom resolves ref and lazily yields every commit reachable from it exactly once.
//
// Commits come out newest first (ties broken by ID), so children precede their
// parents whenever commit times increase along ancestry. Yielded commits carry no
// changes. A commit that cannot be read is recorded as a warning and the history
// behind it is not followed. Errors yielded by the sequence are fatal: an
// unresolvable ref or cancellation of ctx.
func (w *Walker) LogFrom(ctx context.Context, ref string) iter.Seq2[schema.Commit, error] {
	return func(yield func(schema.Commit, error) bool) {
		head, err := w.repo.ResolveRef(ctx, ref)
		if err != nil {
			yield(schema.Commit{}, err)
			return
		}
		if err := w.enqueue(ctx, head); err != nil {
			yield(schema.Commit{}, err)
			return
		}

		for w.frontier.Len() > 0 {
			if err := ctx.Err(); err != nil {
				yield(schema.Commit{}, err)
				return
			}

			commit := heap.Pop(&w.frontier).(schema.Commit)

			// 1. Everything left on the frontier is older still
			if !w.opts.Since.IsZero() && commit.When.Before(w.opts.Since) {
				return
			}

			// 2. Walk past commits newer than the window without yielding them
			for _, parent := range commit.Parents {
				if err := w.enqueue(ctx, parent); err != nil {
					yield(schema.Commit{}, err)
					return
				}
			}
			if !w.opts.Until.IsZero() && commit.When.After(w.opts.Until) {
				continue
			}

			// 3. Respect the commit cap
			if w.opts.MaxCommits > 0 && w.yielded >= w.opts.MaxCommits {
				return
			}
			w.yielded++
			if !yield(commit, nil) {
				return
			}
		}
	}
}

// enqueue reads a commit and pushes it on the frontier unless it was seen before.
// Read failures become warnings; only cancellation is returned.
func (w *Walker) enqueue(ctx context.Context, id string) error {
	if _, seen := w.visited[id]; seen {
		return nil
	}
	w.visited[id] = struct{}{}

	commit, err := w.repo.ReadCommit(ctx, id)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var readErr *contract.RepositoryReadError
		if !errors.As(err, &readErr) {
			readErr = &contract.RepositoryReadError{CommitID: id, Err: err}
		}
		w.warnings = append(w.warnings, schema.Warning{
			Kind:     schema.ReadWarning,
			CommitID: id,
			Message:  readErr.Error(),
		})
		contract.LogWarn("skipping unreadable commit", readErr)
		return nil
	}
	heap.Push(&w.frontier, commit)
	return nil
}

// Visited returns the number of distinct commit IDs the traversal has reached.
// Unreadable commits count, and so do commits read but not yielded because of
// the window or the cap. Without those it equals Yielded.
func (w *Walker) Visited() int {
	return len(w.visited)
}

// Yielded returns the number of commits handed to the consumer.
func (w *Walker) Yielded() int {
	return w.yielded
}

// Warnings returns the recorded read warnings sorted by commit ID.
func (w *Walker) Warnings() []schema.Warning {
	out := make([]schema.Warning, len(w.warnings))
	copy(out, w.warnings)
	sort.Slice(out, func(i, j int) bool { return out[i].CommitID < out[j].CommitID })
	return out
}

// commitHeap orders commits newest first, then by ID.
type commitHeap []schema.Commit

func (h commitHeap) Len() int { return len(h) }

func (h commitHeap) Less(i, j int) bool {
	if !h[i].When.Equal(h[j].When) {
		return h[i].When.After(h[j].When)
	}
	return h[i].ID < h[j].ID
}

func (h commitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *commitHeap) Push(x any) { *h = append(*h, x.(schema.Commit)) }

func (h *commitHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
