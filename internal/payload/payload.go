// Package payload locates the usable payload inside an extracted dependency
// archive. Toolchain-style dependency archives ship either a single
// toolchain-named directory (wrapping include, lib and bin) or those payload
// directories directly at the top level; the locator searches for either
// shape, bounded to two levels below the extraction root.
package payload

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stagekit/stagekit/internal/treeops"
)

const (
	// maxPreUnwrap bounds the wrapper flattening before the search runs.
	maxPreUnwrap = 12

	// maxChildren bounds the first search level.
	maxChildren = 32

	// maxGrandchildren bounds the second search level per child.
	maxGrandchildren = 64
)

type osProvider interface {
	Stat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]os.DirEntry, error)
}

type flattenProvider interface {
	FlattenWrapper(dir string, report *treeops.Report) (bool, error)
}

// Locator is the principal implementation of the payload root search for one
// toolchain layout.
type Locator struct {
	// ToolchainDir is the fixed toolchain directory name searched for
	// (e.g. "x86_64-w64-mingw32").
	ToolchainDir string

	// RequiredSubdirs are the payload directories whose joint presence
	// marks a payload root (e.g. include, lib, bin).
	RequiredSubdirs []string

	OSOps    osProvider
	Flattens flattenProvider
}

// NewLocator returns a pointer to a new payload [Locator].
func NewLocator(toolchainDir string, requiredSubdirs []string, osOps osProvider, flattens flattenProvider) *Locator {
	return &Locator{
		ToolchainDir:    toolchainDir,
		RequiredSubdirs: requiredSubdirs,
		OSOps:           osOps,
		Flattens:        flattens,
	}
}

// PreUnwrap flattens trivial single-child wrapper directories at the
// extraction root, stopping early once the root already satisfies either
// payload shape. It reuses the wrapper-flattening primitive of the root
// detection heuristic.
func (l *Locator) PreUnwrap(root string, report *treeops.Report) error {
	for i := 0; i < maxPreUnwrap; i++ {
		if l.hasToolchainDir(root) || l.hasRequiredSubdirs(root) {
			break
		}

		flattened, err := l.Flattens.FlattenWrapper(root, report)
		if err != nil {
			return fmt.Errorf("(payload) %w", err)
		}
		if !flattened {
			break
		}
	}

	return nil
}

// FindRoot returns the directory containing either the toolchain-named
// directory or all required payload subdirectories, searching the extracted
// root, its children and (bounded) its grandchildren. When nothing matches,
// the extracted root is returned unchanged with located reporting false;
// that is a recoverable condition, the install fails later only if no
// payload subdirectory is ultimately found.
func (l *Locator) FindRoot(root string) (string, bool) {
	if l.hasToolchainDir(root) || l.hasRequiredSubdirs(root) {
		return root, true
	}

	entries, err := l.OSOps.ReadDir(root)
	if err != nil {
		entries = nil
	}

	var children []string
	for _, entry := range entries {
		if entry.IsDir() {
			children = append(children, filepath.Join(root, entry.Name()))
		}
	}

	for _, child := range children {
		if l.hasToolchainDir(child) || l.hasRequiredSubdirs(child) {
			return child, true
		}
	}

	if len(children) > maxChildren {
		children = children[:maxChildren]
	}

	for _, child := range children {
		grandEntries, err := l.OSOps.ReadDir(child)
		if err != nil {
			continue
		}

		scanned := 0
		for _, entry := range grandEntries {
			if !entry.IsDir() {
				continue
			}
			if scanned++; scanned > maxGrandchildren {
				break
			}

			grandchild := filepath.Join(child, entry.Name())
			if l.hasToolchainDir(grandchild) || l.hasRequiredSubdirs(grandchild) {
				return grandchild, true
			}
		}
	}

	slog.Warn("Warning (payload): could not confidently detect payload root, using extracted root as fallback",
		"path", root,
		"toolchain", l.ToolchainDir,
	)

	return root, false
}

func (l *Locator) hasToolchainDir(dir string) bool {
	info, err := l.OSOps.Stat(filepath.Join(dir, l.ToolchainDir))

	return err == nil && info.IsDir()
}

func (l *Locator) hasRequiredSubdirs(dir string) bool {
	for _, sub := range l.RequiredSubdirs {
		if _, err := l.OSOps.Stat(filepath.Join(dir, sub)); err != nil {
			return false
		}
	}

	return true
}
