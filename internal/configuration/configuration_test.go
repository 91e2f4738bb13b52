package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagekit/stagekit/internal/schema"
)

// fakeConfigProvider is a fake implementation of configProvider returning a
// fixed map.
type fakeConfigProvider struct {
	envMap map[string]string
	err    error
}

func (f *fakeConfigProvider) Read(_ ...string) (map[string]string, error) {
	return f.envMap, f.err
}

// TestLoad_Success_Defaults tests that loading without files returns the
// built-in defaults.
func TestLoad_Success_Defaults(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeConfigProvider{})

	cfg, err := handler.Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultProjectURL, cfg.ProjectURL)
	assert.Equal(t, DefaultInstallSubfolder, cfg.InstallSubfolder)
	assert.Equal(t, DefaultToolchainDir, cfg.ToolchainDir)
	assert.Equal(t, DefaultRequiredSubdirs, cfg.RequiredSubdirs)
	assert.Len(t, cfg.Dependencies, 2)
	assert.False(t, cfg.PreferCopy)
	assert.False(t, cfg.KeepDownloads)
	assert.False(t, cfg.KeepTemp)
}

// TestLoad_Success_Overlay tests that configured values replace the
// defaults while unset keys keep them.
func TestLoad_Success_Overlay(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeConfigProvider{envMap: map[string]string{
		"PROJECT_URL":       "https://example.com/skeleton.zip",
		"INSTALL_SUBFOLDER": "MyProject",
		"DEPENDENCIES":      "SDL2=https://example.com/sdl2.zip, SDL2_ttf=https://example.com/ttf.zip",
		"PREFER_COPY":       "yes",
		"KEEP_TEMP":         "off",
	}})

	cfg, err := handler.Load("some.conf")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/skeleton.zip", cfg.ProjectURL)
	assert.Equal(t, "MyProject", cfg.InstallSubfolder)
	assert.Equal(t, DefaultToolchainDir, cfg.ToolchainDir)
	assert.Equal(t, []schema.Dependency{
		{Name: "SDL2", URL: "https://example.com/sdl2.zip"},
		{Name: "SDL2_ttf", URL: "https://example.com/ttf.zip"},
	}, cfg.Dependencies)
	assert.True(t, cfg.PreferCopy)
	assert.False(t, cfg.KeepTemp)
}

// TestLoad_Fail_BadDependencyList tests that a malformed DEPENDENCIES value
// fails the load.
func TestLoad_Fail_BadDependencyList(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeConfigProvider{envMap: map[string]string{
		"DEPENDENCIES": "SDL2-without-url",
	}})

	_, err := handler.Load("some.conf")
	require.ErrorIs(t, err, ErrBadDependencyList)
}

// TestParseDependencies_Table verifies the dependency list parsing.
func TestParseDependencies_Table(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		want    []schema.Dependency
		wantErr bool
	}{
		{
			"Success_Single",
			"SDL2=https://example.com/a.zip",
			[]schema.Dependency{{Name: "SDL2", URL: "https://example.com/a.zip"}},
			false,
		},
		{
			"Success_TrailingComma",
			"SDL2=https://example.com/a.zip,",
			[]schema.Dependency{{Name: "SDL2", URL: "https://example.com/a.zip"}},
			false,
		},
		{"Fail_Empty", "", nil, true},
		{"Fail_MissingURL", "SDL2=", nil, true},
		{"Fail_MissingName", "=https://example.com/a.zip", nil, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			deps, err := parseDependencies(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrBadDependencyList)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, deps)
		})
	}
}
