package treeops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stagekit/stagekit/internal/schema"
)

// newTestHandler returns a [Handler] operating on the real filesystem, for
// use against [testing.T.TempDir] trees.
func newTestHandler() *Handler {
	return NewHandler(&schema.OS{}, &schema.Unix{})
}

// writeTestFile creates a file with the given content, including any missing
// parent directories.
func writeTestFile(t *testing.T, path string, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// readTestFile returns the content of a file as a string.
func readTestFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(content)
}
