package treeops

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"
)

// Copy copies the file or directory src onto dst, overwriting a pre-existing
// dst and leaving src untouched. A missing src is a no-op. Directories merge
// child-by-child like [Handler.Move]; file copies preserve permission bits
// and modification time and are verified against a source checksum.
func (t *Handler) Copy(src string, dst string, report *Report) error {
	if err := guardPaths(src, dst); err != nil {
		return fmt.Errorf("(treeops) %w", err)
	}

	return t.copy(src, dst, report)
}

func (t *Handler) copy(src string, dst string, report *Report) error {
	info, err := t.OSOps.Lstat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("(treeops) failed to check source %s: %w", src, err)
	}

	if !info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
		if err := t.OSOps.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
			return fmt.Errorf("(treeops) failed to create parent directory for %s: %w", dst, err)
		}

		t.Delete(dst, report)

		return t.copyFile(src, dst, info)
	}

	if err := t.OSOps.MkdirAll(dst, dirPerm); err != nil {
		return fmt.Errorf("(treeops) failed to create destination directory %s: %w", dst, err)
	}

	entries, err := t.OSOps.ReadDir(src)
	if err != nil {
		return fmt.Errorf("(treeops) failed to read source directory %s: %w", src, err)
	}

	for _, entry := range entries {
		if err := t.copy(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name()), report); err != nil {
			return err
		}
	}

	return nil
}

func (t *Handler) copyFile(src string, dst string, info os.FileInfo) error {
	if info.Mode()&os.ModeSymlink != 0 {
		return t.copySymlink(src, dst)
	}

	var transferComplete bool

	srcFile, err := t.OSOps.Open(src)
	if err != nil {
		return fmt.Errorf("(treeops) failed to open source file: %w", err)
	}
	defer srcFile.Close()

	defer func() {
		if !transferComplete {
			t.OSOps.Remove(dst) //nolint:errcheck
		}
	}()

	dstFile, err := t.OSOps.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("(treeops) failed to open destination file %s: %w", dst, err)
	}
	defer dstFile.Close()

	srcHasher := blake3.New()
	dstHasher := blake3.New()

	teeReader := io.TeeReader(srcFile, srcHasher)
	multiWriter := io.MultiWriter(dstFile, dstHasher)

	if _, err := io.Copy(multiWriter, teeReader); err != nil {
		return fmt.Errorf("(treeops) failed to copy file: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		return fmt.Errorf("(treeops) failed to sync destination fs: %w", err)
	}

	srcChecksum := hex.EncodeToString(srcHasher.Sum(nil))
	dstChecksum := hex.EncodeToString(dstHasher.Sum(nil))

	if srcChecksum != dstChecksum {
		return fmt.Errorf("(treeops) %w: %s (src) != %s (dst)", ErrChecksumMismatch, srcChecksum, dstChecksum)
	}

	transferComplete = true

	// Timestamp preservation is best-effort; the payload bytes decide.
	ts := unix.NsecToTimespec(info.ModTime().UnixNano())
	t.UnixOps.UtimesNano(dst, []unix.Timespec{ts, ts}) //nolint:errcheck

	return nil
}

func (t *Handler) copySymlink(src string, dst string) error {
	target, err := t.OSOps.Readlink(src)
	if err != nil {
		return fmt.Errorf("(treeops) failed to read symlink %s: %w", src, err)
	}

	if err := t.OSOps.Symlink(target, dst); err != nil {
		return fmt.Errorf("(treeops) failed to create symlink %s: %w", dst, err)
	}

	return nil
}
