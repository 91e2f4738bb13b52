package schema

// StructureSpec is the declarative description of a project layout. It is
// parsed from a JSON document and is immutable once validated; no filesystem
// mutation happens before validation has passed.
type StructureSpec struct {
	// CreateDirs is an ordered sequence of relative paths that must exist
	// below the install root after an install.
	CreateDirs []string `json:"create_dirs"`

	// Markers maps a dependency name to a relative file path whose presence
	// is checked after install. Missing markers are reported as warnings,
	// never as errors.
	Markers map[string]string `json:"markers"`

	// RepoRootMarkers is a set of relative directory names used to recognize
	// a project root inside an extracted archive. When absent from the
	// document, a caller-supplied default applies.
	RepoRootMarkers []string `json:"repo_root_markers"`
}

// MarkerResult is the outcome of a single post-install marker check.
type MarkerResult struct {
	// Name is the dependency name the marker belongs to.
	Name string

	// Path is the marker path relative to the install root.
	Path string

	// OK describes whether the marker file exists.
	OK bool
}
