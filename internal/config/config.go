// Package config loads and resolves builder configuration: the YAML builder
// config file, the TypeScript project config (path aliases), environment
// detection, and the CI-aware default policy table.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	berrors "github.com/savvy-web/bun-builder-sub000/internal/errors"
)

// Mode names for the two supported build modes.
const (
	ModeBundle   = "bundle"
	ModePreserve = "preserve"
)

// Config is the builder configuration loaded from bunbuilder.yaml.
type Config struct {
	// Modes is the default list of build modes when the CLI does not select one.
	Modes []string `yaml:"modes"`

	// Target passed through to the native bundler (e.g. "node", "browser").
	Target string `yaml:"target"`

	// Format is the module format per mode; unset modes use "esm".
	Format map[string]string `yaml:"format"`

	// Externals are specifiers the bundler must not inline.
	Externals []string `yaml:"externals"`

	// TSConfig is the path to the TypeScript project config, relative to the
	// package directory. Defaults to "tsconfig.json".
	TSConfig string `yaml:"tsconfig"`

	// OutDir is the build output directory. Defaults to "dist".
	OutDir string `yaml:"outDir"`

	// AssetsDir, when set and present, is copied verbatim into the output.
	AssetsDir string `yaml:"assetsDir"`

	// Destinations are publish destinations; each gets its own transform-hook
	// invocation and its own final package metadata write. Empty means one
	// generic destination named "default".
	Destinations []Destination `yaml:"destinations"`

	// VirtualEntries are extra bundle entries shipped with the package but
	// absent from the public export surface.
	VirtualEntries map[string]string `yaml:"virtualEntries"`

	// LocalExportDirs receive a copy of the built artifacts after a successful
	// build. Always skipped in CI.
	LocalExportDirs []string `yaml:"localExportDirs"`

	// DocConfigPath is the generated documentation tool config. Written
	// locally; validated for staleness in CI.
	DocConfigPath string `yaml:"docConfigPath"`

	// Lint overrides the doc-lint policy ("warn", "error", "throw").
	// Empty selects the CI-aware default.
	Lint LintConfig `yaml:"lint"`
}

// LintConfig controls the documentation lint phase.
type LintConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Policy  string `yaml:"policy"`
}

// Destination is a publish destination for the final package metadata.
type Destination struct {
	Name string `yaml:"name"`
	// Dir is where the destination's package metadata is written, relative to
	// the output directory. Empty means the output directory itself.
	Dir string `yaml:"dir"`
}

// Load reads the builder config from path. A missing file yields the zero
// config with defaults applied; a malformed file is a configuration error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal, fmt.Sprintf("reading config %s", path))
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal, fmt.Sprintf("parsing config %s", path))
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Modes) == 0 {
		c.Modes = []string{ModeBundle, ModePreserve}
	}
	if c.Target == "" {
		c.Target = "node"
	}
	if c.TSConfig == "" {
		c.TSConfig = "tsconfig.json"
	}
	if c.OutDir == "" {
		c.OutDir = "dist"
	}
	if len(c.Destinations) == 0 {
		c.Destinations = []Destination{{Name: "default"}}
	}
	if c.DocConfigPath == "" {
		c.DocConfigPath = "api-extractor.json"
	}
}

// ValidateModes checks that every requested mode is known.
func ValidateModes(modes []string) error {
	for _, m := range modes {
		if m != ModeBundle && m != ModePreserve {
			return berrors.ConfigError(fmt.Sprintf("unknown build mode %q (expected %q or %q)", m, ModeBundle, ModePreserve))
		}
	}
	return nil
}

// ModeOutDir returns the output directory for one mode pass.
func (c *Config) ModeOutDir(pkgDir, mode string) string {
	if mode == ModePreserve {
		return filepath.Join(pkgDir, c.OutDir, "preserve")
	}
	return filepath.Join(pkgDir, c.OutDir)
}

// ModeFormat returns the module format for a mode, defaulting to esm.
func (c *Config) ModeFormat(mode string) string {
	if f, ok := c.Format[mode]; ok && f != "" {
		return f
	}
	return "esm"
}
