package staging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagekit/stagekit/internal/detect"
	"github.com/stagekit/stagekit/internal/payload"
	"github.com/stagekit/stagekit/internal/schema"
	"github.com/stagekit/stagekit/internal/treeops"
)

const testToolchain = "x86_64-w64-mingw32"

//nolint:gochecknoglobals
var testSubdirs = []string{"include", "lib", "bin"}

func newTestInstaller() *Installer {
	osProvider := &schema.OS{}
	tree := treeops.NewHandler(osProvider, &schema.Unix{})
	finder := detect.NewFinder(osProvider, tree)
	locator := payload.NewLocator(testToolchain, testSubdirs, osProvider, finder)

	return NewInstaller(osProvider, tree, locator)
}

// newTestOperation lays out an extracted dependency archive below base and
// returns the matching staging operation.
func newTestOperation(t *testing.T, base string, wrapPayloadInToolchain bool) *schema.StagingOperation {
	t.Helper()

	extracted := filepath.Join(base, "extracted")

	payloadBase := filepath.Join(extracted, "SDL2-release")
	if wrapPayloadInToolchain {
		payloadBase = filepath.Join(payloadBase, testToolchain)
	}

	writeTestFile(t, filepath.Join(payloadBase, "include", "SDL2", "SDL.h"), "header")
	writeTestFile(t, filepath.Join(payloadBase, "lib", "libSDL2.a"), "lib")
	writeTestFile(t, filepath.Join(payloadBase, "bin", "SDL2.dll"), "bin")

	finalDir := filepath.Join(base, "external", "SDL2")

	return &schema.StagingOperation{
		Name:            "SDL2",
		ExtractedRoot:   extracted,
		StagingDir:      finalDir + StagingSuffix,
		FinalDir:        finalDir,
		ToolchainDir:    testToolchain,
		RequiredSubdirs: testSubdirs,
	}
}

func writeTestFile(t *testing.T, path string, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestInstall_Success_FreshInstall tests a first-time install into a
// non-existent final directory.
func TestInstall_Success_FreshInstall(t *testing.T) {
	t.Parallel()

	installer := newTestInstaller()
	report := &treeops.Report{}

	base := t.TempDir()
	op := newTestOperation(t, base, true)

	require.NoError(t, installer.Install(op, report))

	assert.FileExists(t, filepath.Join(op.FinalDir, testToolchain, "include", "SDL2", "SDL.h"))
	assert.FileExists(t, filepath.Join(op.FinalDir, testToolchain, "lib", "libSDL2.a"))
	assert.FileExists(t, filepath.Join(op.FinalDir, testToolchain, "bin", "SDL2.dll"))
	assert.NoDirExists(t, op.StagingDir)
	assert.NoDirExists(t, op.FinalDir+AsideSuffix)
}

// TestInstall_Success_ReplacesStaleContent tests that a reinstall leaves no
// stale files from the previous install behind.
func TestInstall_Success_ReplacesStaleContent(t *testing.T) {
	t.Parallel()

	installer := newTestInstaller()
	report := &treeops.Report{}

	base := t.TempDir()
	op := newTestOperation(t, base, true)

	stale := filepath.Join(op.FinalDir, testToolchain, "lib", "libSDL2-old.a")
	writeTestFile(t, stale, "stale")

	require.NoError(t, installer.Install(op, report))

	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(op.FinalDir, testToolchain, "lib", "libSDL2.a"))
	assert.NoDirExists(t, op.FinalDir+AsideSuffix)
}

// TestInstall_Success_PayloadWithoutToolchainWrapper tests an archive
// shipping include, lib and bin directly, without a toolchain directory.
func TestInstall_Success_PayloadWithoutToolchainWrapper(t *testing.T) {
	t.Parallel()

	installer := newTestInstaller()
	report := &treeops.Report{}

	base := t.TempDir()
	op := newTestOperation(t, base, false)

	require.NoError(t, installer.Install(op, report))

	assert.FileExists(t, filepath.Join(op.FinalDir, testToolchain, "include", "SDL2", "SDL.h"))
	assert.FileExists(t, filepath.Join(op.FinalDir, testToolchain, "bin", "SDL2.dll"))
}

// TestInstall_Success_PreferCopyLeavesExtractedTree tests that the copying
// mode keeps the extracted source tree intact.
func TestInstall_Success_PreferCopyLeavesExtractedTree(t *testing.T) {
	t.Parallel()

	installer := newTestInstaller()
	report := &treeops.Report{}

	base := t.TempDir()
	op := newTestOperation(t, base, true)
	op.PreferCopy = true

	require.NoError(t, installer.Install(op, report))

	assert.FileExists(t, filepath.Join(op.FinalDir, testToolchain, "lib", "libSDL2.a"))

	// The wrapper is flattened in place, but the copied payload stays.
	assert.FileExists(t, filepath.Join(op.ExtractedRoot, testToolchain, "lib", "libSDL2.a"))
}

// TestInstall_Success_PartialPayload tests that missing payload
// subdirectories are soft failures as long as at least one was staged.
func TestInstall_Success_PartialPayload(t *testing.T) {
	t.Parallel()

	installer := newTestInstaller()
	report := &treeops.Report{}

	base := t.TempDir()
	op := newTestOperation(t, base, true)

	require.NoError(t, os.RemoveAll(filepath.Join(op.ExtractedRoot, "SDL2-release", testToolchain, "lib")))
	require.NoError(t, os.RemoveAll(filepath.Join(op.ExtractedRoot, "SDL2-release", testToolchain, "bin")))

	require.NoError(t, installer.Install(op, report))

	assert.FileExists(t, filepath.Join(op.FinalDir, testToolchain, "include", "SDL2", "SDL.h"))
	assert.NotEmpty(t, report.Warnings)
}

// TestInstall_Fail_PayloadNotFound tests that an archive without any
// payload directories fails hard and leaves the final directory untouched.
func TestInstall_Fail_PayloadNotFound(t *testing.T) {
	t.Parallel()

	installer := newTestInstaller()
	report := &treeops.Report{}

	base := t.TempDir()
	extracted := filepath.Join(base, "extracted")
	writeTestFile(t, filepath.Join(extracted, "README.txt"), "no payload here")

	finalDir := filepath.Join(base, "external", "SDL2")
	previous := filepath.Join(finalDir, testToolchain, "lib", "libSDL2.a")
	writeTestFile(t, previous, "previous install")

	op := &schema.StagingOperation{
		Name:            "SDL2",
		ExtractedRoot:   extracted,
		StagingDir:      finalDir + StagingSuffix,
		FinalDir:        finalDir,
		ToolchainDir:    testToolchain,
		RequiredSubdirs: testSubdirs,
	}

	err := installer.Install(op, report)
	require.ErrorIs(t, err, ErrPayloadNotFound)

	assert.Equal(t, "previous install", func() string {
		content, err := os.ReadFile(previous)
		require.NoError(t, err)

		return string(content)
	}())
	assert.NoDirExists(t, op.StagingDir)
}

// TestInstall_Success_LeftoverStagingRecovered tests that a staging
// directory left behind by an aborted earlier run is discarded first.
func TestInstall_Success_LeftoverStagingRecovered(t *testing.T) {
	t.Parallel()

	installer := newTestInstaller()
	report := &treeops.Report{}

	base := t.TempDir()
	op := newTestOperation(t, base, true)

	leftover := filepath.Join(op.StagingDir, testToolchain, "lib", "half-written.a")
	writeTestFile(t, leftover, "junk")

	require.NoError(t, installer.Install(op, report))

	assert.NoFileExists(t, filepath.Join(op.FinalDir, testToolchain, "lib", "half-written.a"))
	assert.FileExists(t, filepath.Join(op.FinalDir, testToolchain, "lib", "libSDL2.a"))
	assert.NoDirExists(t, op.StagingDir)
}
