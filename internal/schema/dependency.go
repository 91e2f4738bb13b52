package schema

// Dependency describes one external binary dependency to be installed from
// an archive into `external/<Name>` below the install root.
type Dependency struct {
	// Name is the dependency name, which doubles as the final folder name
	// below the `external` directory (e.g. "SDL2").
	Name string

	// URL is the remote locator of the dependency archive.
	URL string
}

// StagingOperation is the ephemeral state of one dependency install. It is
// created at the start of the install, fully consumed by its end (either
// committed into FinalDir or discarded on error) and never shared across
// dependencies.
type StagingOperation struct {
	// Name is the dependency name.
	Name string

	// ExtractedRoot is the directory the dependency archive was expanded to.
	ExtractedRoot string

	// StagingDir is the side directory the replacement subtree is built in.
	// It is exclusively owned by the operation until the commit step.
	StagingDir string

	// FinalDir is the live dependency directory the staged subtree is
	// swapped into. Its previous content is destroyed at commit time.
	FinalDir string

	// ToolchainDir is the fixed toolchain directory name expected to wrap
	// the dependency payload (e.g. "x86_64-w64-mingw32").
	ToolchainDir string

	// RequiredSubdirs are the payload directories searched for below the
	// toolchain directory or the payload root (e.g. include, lib, bin).
	RequiredSubdirs []string

	// PreferCopy leaves the extracted payload intact and copies it into
	// staging, instead of moving it.
	PreferCopy bool
}
