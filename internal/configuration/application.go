package configuration

import "github.com/stagekit/stagekit/internal/schema"

// Defaults mirroring a stock SDL2 development setup; every value can be
// overridden through a configuration file or command-line flags.
const (
	DefaultProjectURL = "https://github.com/therealpixeles/SDLite/archive/refs/heads/main.zip"

	DefaultSDL2URL = "https://github.com/libsdl-org/SDL/releases/download/release-2.32.10/" +
		"SDL2-devel-2.32.10-mingw.zip"

	DefaultSDL2ImageURL = "https://github.com/libsdl-org/SDL_image/releases/download/release-2.8.8/" +
		"SDL2_image-devel-2.8.8-mingw.zip"

	DefaultInstallSubfolder = "SDLite"

	DefaultToolchainDir = "x86_64-w64-mingw32"
)

// DefaultStructureJSON is the built-in structure specification, applied when
// no custom structure file is configured.
const DefaultStructureJSON = `{
  "create_dirs": [
    "include",
    "src",
    "res",
    "external/SDL2",
    "external/SDL2_image",
    "bin/debug",
    "bin/release"
  ],
  "markers": {
    "SDL2": "external/SDL2/include/SDL2/SDL.h",
    "SDL2_image": "external/SDL2_image/include/SDL2/SDL_image.h"
  },
  "repo_root_markers": ["include", "src", "res"]
}`

// DefaultRequiredSubdirs are the payload directories expected below a
// dependency's toolchain directory.
//
//nolint:gochecknoglobals
var DefaultRequiredSubdirs = []string{"include", "lib", "bin"}

// DefaultRootMarkers recognize a project root when no structure document
// configures its own set.
//
//nolint:gochecknoglobals
var DefaultRootMarkers = []string{"include", "src", "res"}

// Config is the principal structure holding the application configuration.
type Config struct {
	// ProjectURL is the remote locator of the project skeleton archive.
	ProjectURL string

	// Dependencies are the external binary dependencies to install.
	Dependencies []schema.Dependency

	// InstallSubfolder is the directory name created below the chosen
	// install location.
	InstallSubfolder string

	// ToolchainDir is the toolchain directory name preserved inside every
	// installed dependency.
	ToolchainDir string

	// RequiredSubdirs are the payload directories searched for in every
	// dependency archive.
	RequiredSubdirs []string

	// StructureFile is the path of a custom structure specification
	// document; empty selects [DefaultStructureJSON].
	StructureFile string

	// PreferCopy copies dependency payloads into staging instead of moving
	// them, leaving extracted temp trees intact.
	PreferCopy bool

	// KeepDownloads retains the .downloads scratch directory after install.
	KeepDownloads bool

	// KeepTemp retains the .tmp_* extraction directories after install.
	KeepTemp bool
}

// NewConfig returns a pointer to a new [Config] holding the defaults.
func NewConfig() *Config {
	return &Config{
		ProjectURL: DefaultProjectURL,
		Dependencies: []schema.Dependency{
			{Name: "SDL2", URL: DefaultSDL2URL},
			{Name: "SDL2_image", URL: DefaultSDL2ImageURL},
		},
		InstallSubfolder: DefaultInstallSubfolder,
		ToolchainDir:     DefaultToolchainDir,
		RequiredSubdirs:  DefaultRequiredSubdirs,
	}
}
