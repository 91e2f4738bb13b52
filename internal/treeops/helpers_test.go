package treeops

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnsureDir_Success_Idempotent tests that ensuring a directory twice
// succeeds and creates missing parents.
func TestEnsureDir_Success_Idempotent(t *testing.T) {
	t.Parallel()

	handler := newTestHandler()

	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, handler.EnsureDir(dir))
	require.NoError(t, handler.EnsureDir(dir))

	assert.DirExists(t, dir)
}

// TestIsEmptyDir_Table verifies the empty-directory check against empty,
// populated and missing directories.
func TestIsEmptyDir_Table(t *testing.T) {
	t.Parallel()

	handler := newTestHandler()
	base := t.TempDir()

	empty := filepath.Join(base, "empty")
	require.NoError(t, handler.EnsureDir(empty))

	populated := filepath.Join(base, "populated")
	writeTestFile(t, filepath.Join(populated, "file.txt"), "content")

	testCases := []struct {
		name      string
		path      string
		wantEmpty bool
		wantErr   bool
	}{
		{"Success_Empty", empty, true, false},
		{"Success_Populated", populated, false, false},
		{"Fail_Missing", filepath.Join(base, "missing"), false, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			isEmpty, err := handler.IsEmptyDir(tc.path)
			if tc.wantErr {
				require.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantEmpty, isEmpty)
		})
	}
}

// TestGuardPaths_Table verifies the source/destination containment guard.
func TestGuardPaths_Table(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		src     string
		dst     string
		wantErr bool
	}{
		{"Success_Siblings", "/a/b", "/a/c", false},
		{"Success_SharedNamePrefix", "/a/b", "/a/bc", false},
		{"Success_DestAboveSource", "/a/b/c", "/a", false},
		{"Fail_SamePath", "/a/b", "/a/b", true},
		{"Fail_SamePathUncleaned", "/a/b", "/a/./b/", true},
		{"Fail_DestBelowSource", "/a/b", "/a/b/c/d", true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := guardPaths(tc.src, tc.dst)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrDestInsideSource)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
