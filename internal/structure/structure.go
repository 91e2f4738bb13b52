// Package structure parses, validates and applies the declarative project
// layout specification. The document is JSON with comments tolerated, and is
// rejected in full before any directory is created; applying a valid
// specification is idempotent.
package structure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/stagekit/stagekit/internal/schema"
)

type osProvider interface {
	Stat(name string) (os.FileInfo, error)
}

type treeProvider interface {
	EnsureDir(path string) error
}

// Handler is the principal implementation of the structure specification
// validator.
type Handler struct {
	OSOps osProvider
	Tree  treeProvider
}

// NewHandler returns a pointer to a new structure [Handler].
func NewHandler(osOps osProvider, tree treeProvider) *Handler {
	return &Handler{
		OSOps: osOps,
		Tree:  tree,
	}
}

// Parse validates doc and returns the immutable [schema.StructureSpec] it
// describes. Both `create_dirs` and `markers` must be present (empty values
// are fine); all paths must be relative and must not escape the install
// root. No filesystem mutation happens here.
func Parse(doc []byte) (*schema.StructureSpec, error) {
	var spec schema.StructureSpec

	if err := json.Unmarshal(jsonc.ToJSON(doc), &spec); err != nil {
		return nil, fmt.Errorf("(structure) %w: %w", ErrInvalidSpec, err)
	}

	if spec.CreateDirs == nil {
		return nil, fmt.Errorf("(structure) %w: missing 'create_dirs'", ErrInvalidSpec)
	}

	if spec.Markers == nil {
		return nil, fmt.Errorf("(structure) %w: missing 'markers'", ErrInvalidSpec)
	}

	for _, dir := range spec.CreateDirs {
		if err := checkRelative(dir); err != nil {
			return nil, fmt.Errorf("(structure) create_dirs entry %q: %w", dir, err)
		}
	}

	for name, marker := range spec.Markers {
		if err := checkRelative(marker); err != nil {
			return nil, fmt.Errorf("(structure) marker %q: %w", name, err)
		}
	}

	return &spec, nil
}

// Apply ensures every directory named in spec.CreateDirs exists below
// installRoot, creating intermediate directories as needed.
func (h *Handler) Apply(installRoot string, spec *schema.StructureSpec) error {
	for _, dir := range spec.CreateDirs {
		if err := h.Tree.EnsureDir(filepath.Join(installRoot, dir)); err != nil {
			return fmt.Errorf("(structure) %w", err)
		}
	}

	return nil
}

// Audit checks every marker file of spec below installRoot and returns one
// result per marker. It is a read-only post-install check; missing markers
// are reported, never fatal.
func (h *Handler) Audit(installRoot string, spec *schema.StructureSpec) []schema.MarkerResult {
	results := make([]schema.MarkerResult, 0, len(spec.Markers))

	for name, marker := range spec.Markers {
		info, err := h.OSOps.Stat(filepath.Join(installRoot, marker))
		results = append(results, schema.MarkerResult{
			Name: name,
			Path: marker,
			OK:   err == nil && info.Mode().IsRegular(),
		})
	}

	return results
}

func checkRelative(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidSpec)
	}

	if filepath.IsAbs(path) {
		return fmt.Errorf("%w: absolute path", ErrInvalidSpec)
	}

	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes the install root", ErrInvalidSpec)
	}

	return nil
}
