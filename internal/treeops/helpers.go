package treeops

import (
	"fmt"
	"path/filepath"
	"strings"
)

// dirPerm is the permission mode for directories created by tree operations.
const dirPerm = 0o755

// EnsureDir creates path and any missing parents, succeeding when the
// directory already exists.
func (t *Handler) EnsureDir(path string) error {
	if err := t.OSOps.MkdirAll(path, dirPerm); err != nil {
		return fmt.Errorf("(treeops) failed to ensure directory %s: %w", path, err)
	}

	return nil
}

// IsEmptyDir reports whether path is a directory without any entries.
func (t *Handler) IsEmptyDir(path string) (bool, error) {
	entries, err := t.OSOps.ReadDir(path)
	if err != nil {
		return false, fmt.Errorf("(treeops) failed to read directory %s: %w", path, err)
	}

	return len(entries) == 0, nil
}

// guardPaths rejects a destination that equals the source or descends from
// it, which a child-by-child merge would otherwise corrupt.
func guardPaths(src string, dst string) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	if src == dst || strings.HasPrefix(dst, src+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s -> %s", ErrDestInsideSource, src, dst)
	}

	return nil
}
