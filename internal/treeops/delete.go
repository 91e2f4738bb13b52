package treeops

import (
	"errors"
	"io/fs"
	"os"
)

// Delete removes path from the filesystem, treating a missing path as
// success. Files and symlinks have any read-only permission bits cleared
// before removal, so permission-locked archive leftovers do not block the
// install; a failed removal is retried once through the lower-level unlink
// syscall. Directory deletion is recursive and never fails the caller; any
// removal failure is logged and collected into report instead.
//
// Delete is idempotent with respect to pre-existing destination state.
func (t *Handler) Delete(path string, report *Report) {
	info, err := t.OSOps.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	} else if err != nil {
		report.Warn("Warning (delete): failure checking path (skipped)", path, err)

		return
	}

	// Symlinks are removed as files, never traversed as directories.
	if !info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
		t.deleteFile(path, report)

		return
	}

	if err := t.OSOps.RemoveAll(path); err != nil {
		report.Warn("Warning (delete): failure removing directory tree (skipped)", path, err)
	}
}

func (t *Handler) deleteFile(path string, report *Report) {
	// Clearing a read-only attribute is best-effort; removal decides.
	_ = t.OSOps.Chmod(path, 0o666)

	if err := t.OSOps.Remove(path); err != nil {
		if err := t.UnixOps.Unlink(path); err != nil {
			report.Warn("Warning (delete): failure removing file (skipped)", path, err)
		}
	}
}
