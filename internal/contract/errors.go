package contract

import (
	"errors"
	"fmt"
)

// ErrAlreadyFinalized is returned when a report is finalized a second time.
var ErrAlreadyFinalized = errors.New("aggregator already finalized")

// RepositoryOpenError means the path does not exist or is not a git repository.
// It is fatal and is raised before any aggregation starts.
type RepositoryOpenError struct {
	Path   string
	Reason string
	Err    error
}

func (e *RepositoryOpenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot open repository %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot open repository %q: %s", e.Path, e.Reason)
}

func (e *RepositoryOpenError) Unwrap() error { return e.Err }

// RepositoryReadError means one commit or object could not be read.
// The branch under it is abandoned and the error becomes a report warning.
type RepositoryReadError struct {
	CommitID string
	Err      error
}

func (e *RepositoryReadError) Error() string {
	return fmt.Sprintf("cannot read commit %s: %v", e.CommitID, e.Err)
}

func (e *RepositoryReadError) Unwrap() error { return e.Err }

// ProgrammingError signals a violated core invariant, such as recording after finalize.
type ProgrammingError struct {
	Op  string
	Msg string
}

func (e *ProgrammingError) Error() string {
	return fmt.Sprintf("programming error in %s: %s", e.Op, e.Msg)
}

// ErrIncompleteReport is returned after a report was rendered with warnings.
// The command exits with status 2 instead of 1.
var ErrIncompleteReport = errors.New("report is incomplete")
