// Package treeops implements the primitive move, copy and delete operations
// underlying every install step. Files and directories are treated uniformly:
// moving a directory onto an existing non-empty destination merges it
// child-by-child instead of failing or replacing the destination wholesale.
//
// Hard failures abort the running operation and are returned; individual
// removal failures during cleanup are soft, logged and collected in a
// [Report] so best-effort cleanup never aborts a whole install over a stray
// locked file.
package treeops

import (
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

type osProvider interface {
	Stat(name string) (os.FileInfo, error)
	Lstat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]os.DirEntry, error)
	Open(name string) (*os.File, error)
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	Chmod(name string, mode os.FileMode) error
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
}

type unixProvider interface {
	Unlink(path string) error
	UtimesNano(path string, times []unix.Timespec) error
}

// Warning is a single soft failure that was logged and suppressed.
type Warning struct {
	// Path is the filesystem path the failure occurred on.
	Path string

	// Err is the suppressed error.
	Err error
}

// Report collects the soft failures of one or more tree operations. It is
// the explicit counterpart to the hard error returns, so suppressed failures
// stay observable to callers and tests.
type Report struct {
	// Warnings are the collected soft failures, in occurrence order.
	Warnings []Warning
}

// Warn logs a soft failure and collects it into the report. A nil report
// still logs, for callers without an interest in the collected warnings.
func (r *Report) Warn(msg string, path string, err error) {
	slog.Warn(msg, "path", path, "err", err)

	if r != nil {
		r.Warnings = append(r.Warnings, Warning{Path: path, Err: err})
	}
}

// Handler is the principal implementation of the tree operations.
type Handler struct {
	OSOps   osProvider
	UnixOps unixProvider
}

// NewHandler returns a pointer to a new tree operations [Handler].
func NewHandler(osOps osProvider, unixOps unixProvider) *Handler {
	return &Handler{
		OSOps:   osOps,
		UnixOps: unixOps,
	}
}
