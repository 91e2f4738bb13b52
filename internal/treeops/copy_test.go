package treeops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCopy_Success_File tests that a file copy preserves content, permission
// bits and modification time, while leaving the source in place.
func TestCopy_Success_File(t *testing.T) {
	t.Parallel()

	handler := newTestHandler()
	report := &Report{}

	base := t.TempDir()
	src := filepath.Join(base, "src.bin")
	dst := filepath.Join(base, "dst.bin")

	writeTestFile(t, src, "payload")
	require.NoError(t, os.Chmod(src, 0o750))

	mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	require.NoError(t, handler.Copy(src, dst, report))

	assert.Equal(t, "payload", readTestFile(t, src))
	assert.Equal(t, "payload", readTestFile(t, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
	assert.WithinDuration(t, mtime, info.ModTime(), time.Second)
	assert.Empty(t, report.Warnings)
}

// TestCopy_Success_MergesDirectories tests that a directory copy merges into
// an existing destination without touching the source tree.
func TestCopy_Success_MergesDirectories(t *testing.T) {
	t.Parallel()

	handler := newTestHandler()
	report := &Report{}

	base := t.TempDir()
	src := filepath.Join(base, "src")
	dst := filepath.Join(base, "dst")

	writeTestFile(t, filepath.Join(src, "include", "a.h"), "a")
	writeTestFile(t, filepath.Join(dst, "include", "old.h"), "old")

	require.NoError(t, handler.Copy(src, dst, report))

	assert.FileExists(t, filepath.Join(src, "include", "a.h"))
	assert.Equal(t, "a", readTestFile(t, filepath.Join(dst, "include", "a.h")))
	assert.Equal(t, "old", readTestFile(t, filepath.Join(dst, "include", "old.h")))
	assert.Empty(t, report.Warnings)
}

// TestCopy_Success_Symlink tests that a symlink is recreated with the same
// target instead of copying the target's content.
func TestCopy_Success_Symlink(t *testing.T) {
	t.Parallel()

	handler := newTestHandler()
	report := &Report{}

	base := t.TempDir()
	writeTestFile(t, filepath.Join(base, "target.txt"), "content")

	src := filepath.Join(base, "link")
	dst := filepath.Join(base, "link-copy")
	require.NoError(t, os.Symlink("target.txt", src))

	require.NoError(t, handler.Copy(src, dst, report))

	target, err := os.Readlink(dst)
	require.NoError(t, err)
	assert.Equal(t, "target.txt", target)
	assert.Empty(t, report.Warnings)
}

// TestCopy_Fail_DestInsideSource tests that copying a directory into itself
// is rejected.
func TestCopy_Fail_DestInsideSource(t *testing.T) {
	t.Parallel()

	handler := newTestHandler()
	report := &Report{}

	src := filepath.Join(t.TempDir(), "tree")
	writeTestFile(t, filepath.Join(src, "file.txt"), "content")

	err := handler.Copy(src, filepath.Join(src, "nested", "copy"), report)
	require.ErrorIs(t, err, ErrDestInsideSource)
}
