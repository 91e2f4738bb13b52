// Package detect implements the heuristic locating the real project root
// inside a freshly extracted archive directory. Archive hosts commonly wrap
// the payload in one or more single-child "repo-name/" directories; the
// heuristic unwraps those and matches structural marker directories, with
// all searches depth- and breadth-bounded so detection terminates in
// constant time regardless of archive size.
package detect

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stagekit/stagekit/internal/treeops"
)

const (
	// markerThreshold is how many marker names must exist as subdirectories
	// for a directory to qualify as a project root. Requiring two of three
	// tolerates archives that rename or omit one expected top-level folder.
	markerThreshold = 2

	// maxUnwrapDepth bounds the descent through single-child wrappers.
	maxUnwrapDepth = 10

	// maxFlattenFallback bounds the last-resort wrapper flattening.
	maxFlattenFallback = 6

	// maxScanCandidates bounds the two-level breadth scan.
	maxScanCandidates = 32
)

type osProvider interface {
	Stat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]os.DirEntry, error)
	Remove(name string) error
}

type treeProvider interface {
	Move(src string, dst string, report *treeops.Report) error
}

// Finder is the principal implementation of the root detection heuristic.
type Finder struct {
	OSOps osProvider
	Tree  treeProvider
}

// NewFinder returns a pointer to a new root detection [Finder].
func NewFinder(osOps osProvider, tree treeProvider) *Finder {
	return &Finder{
		OSOps: osOps,
		Tree:  tree,
	}
}

// FindProjectRoot returns the directory at or below start that looks like
// the real project root, preferring shallow matches over deep ones. When no
// directory within two levels satisfies the marker threshold, remaining
// single-child wrappers are flattened in place and the resulting directory
// is returned with an advisory warning; detection itself never fails a run.
func (f *Finder) FindProjectRoot(start string, markers []string, report *treeops.Report) (string, error) {
	cur := start

	for i := 0; i < maxUnwrapDepth; i++ {
		if f.LooksLikeRoot(cur, markers) {
			return cur, nil
		}

		_, _, only := f.countChildren(cur)
		if only == "" {
			break
		}
		cur = filepath.Join(cur, only)
	}

	if f.LooksLikeRoot(cur, markers) {
		return cur, nil
	}

	entries, err := f.OSOps.ReadDir(cur)
	if err != nil {
		return "", fmt.Errorf("(detect) failed to read candidate directory %s: %w", cur, err)
	}

	var candidates []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		child := filepath.Join(cur, entry.Name())
		if f.LooksLikeRoot(child, markers) {
			return child, nil
		}
		candidates = append(candidates, child)
	}

	if len(candidates) > maxScanCandidates {
		candidates = candidates[:maxScanCandidates]
	}

	for _, candidate := range candidates {
		grandchildren, err := f.OSOps.ReadDir(candidate)
		if err != nil {
			continue
		}

		for _, entry := range grandchildren {
			if !entry.IsDir() {
				continue
			}

			grandchild := filepath.Join(candidate, entry.Name())
			if f.LooksLikeRoot(grandchild, markers) {
				return grandchild, nil
			}
		}
	}

	slog.Warn("Warning (detect): no project root matched the marker threshold, flattening wrappers",
		"path", cur,
		"markers", markers,
	)

	for i := 0; i < maxFlattenFallback; i++ {
		flattened, err := f.FlattenWrapper(cur, report)
		if err != nil {
			return "", err
		}
		if !flattened {
			break
		}
	}

	return cur, nil
}

// LooksLikeRoot reports whether at least two of the configured marker names
// exist as subdirectories (not files) of dir.
func (f *Finder) LooksLikeRoot(dir string, markers []string) bool {
	hits := 0
	for _, m := range markers {
		if info, err := f.OSOps.Stat(filepath.Join(dir, m)); err == nil && info.IsDir() {
			hits++
		}
	}

	return hits >= markerThreshold
}

// FlattenWrapper collapses one single-child wrapper level: when dir contains
// exactly one entry and that entry is a directory, its children are moved up
// into dir and the emptied wrapper is removed. It reports whether a wrapper
// level was collapsed.
func (f *Finder) FlattenWrapper(dir string, report *treeops.Report) (bool, error) {
	_, _, only := f.countChildren(dir)
	if only == "" {
		return false, nil
	}

	inner := filepath.Join(dir, only)

	entries, err := f.OSOps.ReadDir(inner)
	if err != nil {
		return false, fmt.Errorf("(detect) failed to read wrapper directory %s: %w", inner, err)
	}

	for _, entry := range entries {
		if err := f.Tree.Move(filepath.Join(inner, entry.Name()), filepath.Join(dir, entry.Name()), report); err != nil {
			return false, fmt.Errorf("(detect) failed to flatten wrapper %s: %w", inner, err)
		}
	}

	// Removing the emptied wrapper shell is best-effort.
	f.OSOps.Remove(inner) //nolint:errcheck

	return true, nil
}

// countChildren returns the directory and file counts one level below dir,
// plus the name of the sole child when dir wraps exactly one directory and
// nothing else.
func (f *Finder) countChildren(dir string) (int, int, string) {
	entries, err := f.OSOps.ReadDir(dir)
	if err != nil {
		return 0, 0, ""
	}

	dirs, files := 0, 0
	only := ""
	for _, entry := range entries {
		if entry.IsDir() {
			dirs++
			only = entry.Name()
		} else {
			files++
		}
	}

	if dirs == 1 && files == 0 {
		return dirs, files, only
	}

	return dirs, files, ""
}
