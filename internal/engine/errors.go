package engine

import (
	"errors"
	"fmt"
	"io/fs"

	"golang.org/x/sys/unix"
)

// ErrInvalidRoot is returned when a root path does not exist or is not a
// directory. It is the only error that aborts a run before hashing starts.
var ErrInvalidRoot = errors.New("invalid root")

// errChanged marks a file whose size no longer matches what the indexer saw.
var errChanged = errors.New("file changed since scan")

// Stage names the pipeline stage that produced a warning.
type Stage string

const (
	StageTraversal Stage = "traversal"
	StageHash      Stage = "hash"
)

// Warning records a non-fatal, per-file problem. The affected file is
// dropped from consideration and the run continues.
type Warning struct {
	Err     error  `json:"-" yaml:"-"`
	Stage   Stage  `json:"stage" yaml:"stage"`
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

func newWarning(stage Stage, path string, err error) Warning {
	return Warning{Stage: stage, Path: path, Message: err.Error(), Err: err}
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %s: %s", w.Stage, w.Path, w.Message)
}

func (w Warning) Unwrap() error { return w.Err }

// FailureReason categorises why a deletion did not happen.
type FailureReason string

const (
	ReasonPermissionDenied FailureReason = "permission-denied"
	ReasonNotFound         FailureReason = "not-found"
	ReasonIsDirectory      FailureReason = "is-directory"
	ReasonChanged          FailureReason = "changed"
	ReasonKeeperMissing    FailureReason = "keeper-missing"
	ReasonOther            FailureReason = "other"
)

// DeletionFailure records one file that was marked for deletion but not removed.
type DeletionFailure struct {
	Err     error         `json:"-" yaml:"-"`
	Path    string        `json:"path" yaml:"path"`
	Reason  FailureReason `json:"reason" yaml:"reason"`
	Message string        `json:"message" yaml:"message"`
}

func (f DeletionFailure) Error() string {
	return fmt.Sprintf("%s: %s (%s)", f.Path, f.Reason, f.Message)
}

func (f DeletionFailure) Unwrap() error { return f.Err }

func newDeletionFailure(path string, err error) DeletionFailure {
	return DeletionFailure{
		Path:    path,
		Reason:  categorize(err),
		Message: err.Error(),
		Err:     err,
	}
}

func categorize(err error) FailureReason {
	var errno unix.Errno
	switch {
	case errors.Is(err, errKeeperMissing):
		return ReasonKeeperMissing
	case errors.Is(err, errChanged):
		return ReasonChanged
	case errors.Is(err, fs.ErrNotExist):
		return ReasonNotFound
	case errors.Is(err, fs.ErrPermission):
		return ReasonPermissionDenied
	case errors.As(err, &errno):
		switch errno {
		case unix.EISDIR:
			return ReasonIsDirectory
		case unix.EACCES, unix.EPERM, unix.EROFS:
			return ReasonPermissionDenied
		case unix.ENOENT:
			return ReasonNotFound
		}
	}
	return ReasonOther
}
