package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagekit/stagekit/internal/schema"
	"github.com/stagekit/stagekit/internal/treeops"
)

//nolint:gochecknoglobals
var testMarkers = []string{"include", "src", "res"}

func newTestFinder() *Finder {
	osProvider := &schema.OS{}

	return NewFinder(osProvider, treeops.NewHandler(osProvider, &schema.Unix{}))
}

// makeDirs creates every directory below base.
func makeDirs(t *testing.T, base string, dirs ...string) {
	t.Helper()

	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(base, dir), 0o755))
	}
}

// TestFindProjectRoot_Success_DirectMatch tests that a start directory
// already carrying the marker directories is returned unchanged.
func TestFindProjectRoot_Success_DirectMatch(t *testing.T) {
	t.Parallel()

	finder := newTestFinder()
	report := &treeops.Report{}

	start := t.TempDir()
	makeDirs(t, start, "include", "src", "res")

	root, err := finder.FindProjectRoot(start, testMarkers, report)
	require.NoError(t, err)
	assert.Equal(t, start, root)
}

// TestFindProjectRoot_Success_PartialMarkers tests that two of three marker
// directories are enough to qualify as a project root.
func TestFindProjectRoot_Success_PartialMarkers(t *testing.T) {
	t.Parallel()

	finder := newTestFinder()
	report := &treeops.Report{}

	start := t.TempDir()
	makeDirs(t, start, "include", "src")

	root, err := finder.FindProjectRoot(start, testMarkers, report)
	require.NoError(t, err)
	assert.Equal(t, start, root)
}

// TestFindProjectRoot_Fail_MarkerFilesDontCount tests that marker names
// existing as files rather than directories do not qualify a root.
func TestFindProjectRoot_Fail_MarkerFilesDontCount(t *testing.T) {
	t.Parallel()

	finder := newTestFinder()

	start := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(start, "include"), []byte{}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(start, "src"), []byte{}, 0o644))

	assert.False(t, finder.LooksLikeRoot(start, testMarkers))
}

// TestFindProjectRoot_Success_UnwrapsArchiveWrapper tests that single-child
// wrapper directories, as produced by archive hosts, are descended through.
func TestFindProjectRoot_Success_UnwrapsArchiveWrapper(t *testing.T) {
	t.Parallel()

	finder := newTestFinder()
	report := &treeops.Report{}

	start := t.TempDir()
	wrapper := filepath.Join(start, "project-main")
	makeDirs(t, wrapper, "include", "src", "res")

	root, err := finder.FindProjectRoot(start, testMarkers, report)
	require.NoError(t, err)
	assert.Equal(t, wrapper, root)
}

// TestFindProjectRoot_Success_OneLevelScan tests that when the start
// directory holds several children, the one matching the markers wins.
func TestFindProjectRoot_Success_OneLevelScan(t *testing.T) {
	t.Parallel()

	finder := newTestFinder()
	report := &treeops.Report{}

	start := t.TempDir()
	makeDirs(t, start, "docs")
	project := filepath.Join(start, "project")
	makeDirs(t, project, "include", "src", "res")

	root, err := finder.FindProjectRoot(start, testMarkers, report)
	require.NoError(t, err)
	assert.Equal(t, project, root)
}

// TestFindProjectRoot_Success_TwoLevelScan tests that a project root nested
// two levels below the start directory is still found.
func TestFindProjectRoot_Success_TwoLevelScan(t *testing.T) {
	t.Parallel()

	finder := newTestFinder()
	report := &treeops.Report{}

	start := t.TempDir()
	makeDirs(t, start, "assets", "packaging")
	nested := filepath.Join(start, "packaging", "project")
	makeDirs(t, nested, "include", "src", "res")

	root, err := finder.FindProjectRoot(start, testMarkers, report)
	require.NoError(t, err)
	assert.Equal(t, nested, root)
}

// TestFindProjectRoot_Success_FallbackWithoutMarkers tests that detection
// never fails: with no markers anywhere, the start directory is returned.
func TestFindProjectRoot_Success_FallbackWithoutMarkers(t *testing.T) {
	t.Parallel()

	finder := newTestFinder()
	report := &treeops.Report{}

	start := t.TempDir()
	makeDirs(t, start, "docs", "misc")

	root, err := finder.FindProjectRoot(start, testMarkers, report)
	require.NoError(t, err)
	assert.Equal(t, start, root)
}

// TestFlattenWrapper_Success tests that a single-child wrapper is collapsed
// with its content moved up one level.
func TestFlattenWrapper_Success(t *testing.T) {
	t.Parallel()

	finder := newTestFinder()
	report := &treeops.Report{}

	dir := t.TempDir()
	wrapper := filepath.Join(dir, "wrapper")
	makeDirs(t, wrapper, "sub")
	require.NoError(t, os.WriteFile(filepath.Join(wrapper, "file.txt"), []byte("content"), 0o644))

	flattened, err := finder.FlattenWrapper(dir, report)
	require.NoError(t, err)
	assert.True(t, flattened)

	assert.FileExists(t, filepath.Join(dir, "file.txt"))
	assert.DirExists(t, filepath.Join(dir, "sub"))
	assert.NoDirExists(t, wrapper)
}

// TestFlattenWrapper_Success_NoSingleChild tests that a directory with
// several children is left untouched.
func TestFlattenWrapper_Success_NoSingleChild(t *testing.T) {
	t.Parallel()

	finder := newTestFinder()
	report := &treeops.Report{}

	dir := t.TempDir()
	makeDirs(t, dir, "a", "b")

	flattened, err := finder.FlattenWrapper(dir, report)
	require.NoError(t, err)
	assert.False(t, flattened)

	assert.DirExists(t, filepath.Join(dir, "a"))
	assert.DirExists(t, filepath.Join(dir, "b"))
}
