package walker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

func commitAt(id string, hour int, parents ...string) schema.Commit {
	return schema.Commit{
		ID:      id,
		Parents: parents,
		Author:  schema.Author{Name: "dev", Email: "dev@example.com"},
		When:    base.Add(time.Duration(hour) * time.Hour),
	}
}

// collect drains the sequence, returning yielded IDs and the first error.
func collect(t *testing.T, w *Walker, ctx context.Context, ref string) ([]string, error) {
	t.Helper()
	var ids []string
	for c, err := range w.LogFrom(ctx, ref) {
		if err != nil {
			return ids, err
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// diamond is A <- B, A <- C, merge M of B and C, plus a tip T.
func diamond() *contract.FakeRepository {
	return contract.NewFakeRepository("T",
		commitAt("A", 0),
		commitAt("B", 1, "A"),
		commitAt("C", 2, "A"),
		commitAt("M", 3, "B", "C"),
		commitAt("T", 4, "M"),
	)
}

func TestLogFromYieldsEachCommitOnce(t *testing.T) {
	repo := diamond()
	w := New(repo, Options{})

	ids, err := collect(t, w, context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"T", "M", "C", "B", "A"}, ids)
	assert.Equal(t, 5, w.Visited())
	assert.Equal(t, 5, w.Yielded())
	assert.Empty(t, w.Warnings())

	for id, n := range repo.Reads {
		assert.Equal(t, 1, n, "commit %s read more than once", id)
	}
}

func TestLogFromStripsChanges(t *testing.T) {
	root := commitAt("A", 0)
	root.Changes = []schema.FileChange{{Path: "a.rs", Added: 10, Kind: schema.ChangeAdded}}
	w := New(contract.NewFakeRepository("A", root), Options{})

	for c, err := range w.LogFrom(context.Background(), "HEAD") {
		require.NoError(t, err)
		assert.Nil(t, c.Changes)
	}
}

func TestLogFromTieBreakByID(t *testing.T) {
	repo := contract.NewFakeRepository("M",
		commitAt("A", 0),
		commitAt("z", 1, "A"),
		commitAt("b", 1, "A"),
		commitAt("M", 2, "z", "b"),
	)
	ids, err := collect(t, New(repo, Options{}), context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"M", "b", "z", "A"}, ids)
}

func TestLogFromIsDeterministic(t *testing.T) {
	first, err := collect(t, New(diamond(), Options{}), context.Background(), "HEAD")
	require.NoError(t, err)
	for range 5 {
		again, err := collect(t, New(diamond(), Options{}), context.Background(), "HEAD")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLogFromAbandonsUnreadableBranch(t *testing.T) {
	// Two branches off root A: B1 <- B2 is readable, C1 <- C2 has C2 unreadable
	repo := contract.NewFakeRepository("M",
		commitAt("A", 0),
		commitAt("B1", 1, "A"),
		commitAt("B2", 2, "B1"),
		commitAt("C1", 1, "A"),
		commitAt("C2", 2, "C1"),
		commitAt("M", 3, "B2", "C2"),
	)
	repo.Unreadable["C2"] = true
	w := New(repo, Options{})

	ids, err := collect(t, w, context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"M", "B2", "B1", "A"}, ids)
	assert.NotContains(t, ids, "C1", "history behind an unreadable commit is not followed")

	warnings := w.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "C2", warnings[0].CommitID)
	assert.Equal(t, schema.ReadWarning, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, "C2")
}

func TestLogFromUnreadableHead(t *testing.T) {
	repo := contract.NewFakeRepository("A", commitAt("A", 0))
	repo.Unreadable["A"] = true
	w := New(repo, Options{})

	ids, err := collect(t, w, context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Len(t, w.Warnings(), 1)
}

func TestLogFromWarningsSorted(t *testing.T) {
	repo := contract.NewFakeRepository("M",
		commitAt("M", 5, "y", "x", "z"),
	)
	w := New(repo, Options{})
	_, err := collect(t, w, context.Background(), "HEAD")
	require.NoError(t, err)

	var ids []string
	for _, warning := range w.Warnings() {
		ids = append(ids, warning.CommitID)
	}
	assert.Equal(t, []string{"x", "y", "z"}, ids)
}

func TestLogFromUnknownRef(t *testing.T) {
	_, err := collect(t, New(diamond(), Options{}), context.Background(), "no-such-branch")
	assert.Error(t, err)
}

func TestLogFromWindow(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		expected []string
	}{
		{"since stops early", Options{Since: base.Add(2 * time.Hour)}, []string{"T", "M", "C"}},
		{"until skips newer", Options{Until: base.Add(2 * time.Hour)}, []string{"C", "B", "A"}},
		{"both bounds", Options{Since: base.Add(time.Hour), Until: base.Add(3 * time.Hour)}, []string{"M", "C", "B"}},
		{"max commits", Options{MaxCommits: 2}, []string{"T", "M"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := collect(t, New(diamond(), tt.opts), context.Background(), "HEAD")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestLogFromCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := New(diamond(), Options{})

	var ids []string
	var gotErr error
	for c, err := range w.LogFrom(ctx, "HEAD") {
		if err != nil {
			gotErr = err
			break
		}
		ids = append(ids, c.ID)
		if len(ids) == 2 {
			cancel()
		}
	}
	assert.Equal(t, []string{"T", "M"}, ids)
	assert.ErrorIs(t, gotErr, context.Canceled)
}

func TestLogFromEarlyBreak(t *testing.T) {
	w := New(diamond(), Options{})
	for c, err := range w.LogFrom(context.Background(), "HEAD") {
		require.NoError(t, err)
		assert.Equal(t, "T", c.ID)
		break
	}
	assert.Equal(t, 1, w.Yielded())
}

func TestLogFromWithMockRepository(t *testing.T) {
	ctx := context.Background()
	repo := new(contract.MockRepository)
	repo.On("ResolveRef", ctx, "main").Return("B", nil).Once()
	repo.On("ReadCommit", ctx, "B").Return(commitAt("B", 1, "A"), nil).Once()
	repo.On("ReadCommit", ctx, "A").Return(schema.Commit{}, errors.New("zlib: invalid header")).Once()

	w := New(repo, Options{})
	ids, err := collect(t, w, ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids)

	warnings := w.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "A", warnings[0].CommitID)
	assert.Contains(t, warnings[0].Message, "zlib")
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Diff", mock.Anything, mock.Anything)
}
