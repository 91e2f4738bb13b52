// Package configuration establishes the application configuration from
// defaults and optional Unix-type configuration files.
package configuration

import (
	"fmt"
	"strings"

	"github.com/stagekit/stagekit/internal/schema"
)

type configProvider interface {
	Read(filenames ...string) (map[string]string, error)
}

// Handler is the principal implementation of the configuration layer.
type Handler struct {
	ConfigOps configProvider
}

// NewHandler returns a pointer to a new configuration [Handler].
func NewHandler(configOps configProvider) *Handler {
	return &Handler{
		ConfigOps: configOps,
	}
}

// Load returns the application [Config], overlaying the defaults with any
// values read from the given configuration files. With no filenames given,
// the defaults are returned as-is.
func (c *Handler) Load(filenames ...string) (*Config, error) {
	cfg := NewConfig()

	if len(filenames) == 0 {
		return cfg, nil
	}

	envMap, err := c.ConfigOps.Read(filenames...)
	if err != nil {
		return nil, fmt.Errorf("(config) %w", err)
	}

	if v := c.mapKeyToString(envMap, "PROJECT_URL"); v != "" {
		cfg.ProjectURL = v
	}
	if v := c.mapKeyToString(envMap, "INSTALL_SUBFOLDER"); v != "" {
		cfg.InstallSubfolder = v
	}
	if v := c.mapKeyToString(envMap, "TOOLCHAIN_DIR"); v != "" {
		cfg.ToolchainDir = v
	}
	if v := c.mapKeyToString(envMap, "DEPENDENCIES"); v != "" {
		deps, err := parseDependencies(v)
		if err != nil {
			return nil, fmt.Errorf("(config) %w", err)
		}
		cfg.Dependencies = deps
	}
	if v := c.mapKeyToString(envMap, "STRUCTURE_FILE"); v != "" {
		cfg.StructureFile = v
	}

	cfg.PreferCopy = c.mapKeyToBool(envMap, "PREFER_COPY", cfg.PreferCopy)
	cfg.KeepDownloads = c.mapKeyToBool(envMap, "KEEP_DOWNLOADS", cfg.KeepDownloads)
	cfg.KeepTemp = c.mapKeyToBool(envMap, "KEEP_TEMP", cfg.KeepTemp)

	return cfg, nil
}

func (c *Handler) mapKeyToString(envMap map[string]string, key string) string {
	if value, exists := envMap[key]; exists {
		return value
	}

	return ""
}

func (c *Handler) mapKeyToBool(envMap map[string]string, key string, fallback bool) bool {
	value, exists := envMap[key]
	if !exists {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// parseDependencies parses a comma-separated list of name=url pairs.
func parseDependencies(value string) ([]schema.Dependency, error) {
	var deps []schema.Dependency

	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, url, ok := strings.Cut(pair, "=")
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadDependencyList, pair)
		}

		deps = append(deps, schema.Dependency{Name: name, URL: url})
	}

	if len(deps) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrBadDependencyList)
	}

	return deps, nil
}
