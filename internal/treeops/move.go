package treeops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Move moves the file or directory src onto dst, overwriting a pre-existing
// dst. A missing src is a no-op. Files are renamed where possible, with a
// copy-then-delete fallback for cross-device moves. Directories are merged
// child-by-child into an existing dst, after which the now-empty src shell
// is removed best-effort.
func (t *Handler) Move(src string, dst string, report *Report) error {
	if err := guardPaths(src, dst); err != nil {
		return fmt.Errorf("(treeops) %w", err)
	}

	return t.move(src, dst, report)
}

func (t *Handler) move(src string, dst string, report *Report) error {
	info, err := t.OSOps.Lstat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("(treeops) failed to check source %s: %w", src, err)
	}

	if !info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
		return t.moveFile(src, dst, info, report)
	}

	if err := t.OSOps.MkdirAll(dst, dirPerm); err != nil {
		return fmt.Errorf("(treeops) failed to create destination directory %s: %w", dst, err)
	}

	entries, err := t.OSOps.ReadDir(src)
	if err != nil {
		return fmt.Errorf("(treeops) failed to read source directory %s: %w", src, err)
	}

	for _, entry := range entries {
		if err := t.move(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name()), report); err != nil {
			return err
		}
	}

	// Removing the emptied source shell is best-effort.
	if err := t.OSOps.Remove(src); err != nil {
		report.Warn("Warning (move): failure removing empty source directory (skipped)", src, err)
	}

	return nil
}

func (t *Handler) moveFile(src string, dst string, info os.FileInfo, report *Report) error {
	if err := t.OSOps.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return fmt.Errorf("(treeops) failed to create parent directory for %s: %w", dst, err)
	}

	t.Delete(dst, report)

	if err := t.OSOps.Rename(src, dst); err == nil {
		return nil
	}

	// Rename can fail across devices; fall back to copy plus delete-source.
	if err := t.copyFile(src, dst, info); err != nil {
		return err
	}

	t.Delete(src, report)

	return nil
}
