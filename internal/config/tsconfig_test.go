package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadTSConfigJSONC(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tsconfig.json")
	writeFile(t, path, `{
  // line comment
  "compilerOptions": {
    /* block comment */
    "baseUrl": ".",
    "paths": {
      "@lib/*": ["src/lib/*"],
      "#internal": ["src/internal/index.ts"],
    },
  },
}`)

	cfg, err := LoadTSConfig(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.BaseURL)
	assert.Equal(t, "src/lib/*", cfg.Paths["@lib/*"])
	assert.Equal(t, "src/internal/index.ts", cfg.Paths["#internal"])
}

func TestLoadTSConfigExtends(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tsconfig.base.json"), `{
  "compilerOptions": {"baseUrl": ".", "paths": {"@base/*": ["base/*"]}}
}`)
	writeFile(t, filepath.Join(dir, "tsconfig.json"), `{
  "extends": "./tsconfig.base.json",
  "compilerOptions": {"paths": {"@lib/*": ["src/lib/*"]}}
}`)

	cfg, err := LoadTSConfig(filepath.Join(dir, "tsconfig.json"))
	require.NoError(t, err)
	assert.Equal(t, "base/*", cfg.Paths["@base/*"])
	assert.Equal(t, "src/lib/*", cfg.Paths["@lib/*"])
}

func TestLoadTSConfigDanglingExtends(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tsconfig.json"), `{
  "extends": "./missing.json",
  "compilerOptions": {"paths": {"@lib/*": ["src/lib/*"]}}
}`)

	_, err := LoadTSConfig(filepath.Join(dir, "tsconfig.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving extends")
}

func TestLoadTSConfigMissingIsFatal(t *testing.T) {
	_, err := LoadTSConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestStripJSONCPreservesStrings(t *testing.T) {
	in := []byte(`{"a": "http://example.com/*x*/", "b": "quote\"//notcomment"}`)
	assert.Equal(t, string(in), string(stripJSONC(in)))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "bunbuilder.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{ModeBundle, ModePreserve}, cfg.Modes)
	assert.Equal(t, "dist", cfg.OutDir)
	assert.Equal(t, "tsconfig.json", cfg.TSConfig)
	require.Len(t, cfg.Destinations, 1)
	assert.Equal(t, "default", cfg.Destinations[0].Name)
}

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bunbuilder.yaml")
	writeFile(t, path, `
modes: [bundle]
target: browser
format:
  bundle: cjs
externals: [react]
destinations:
  - name: npm
  - name: jsr
    dir: jsr
virtualEntries:
  worker: src/worker.ts
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"bundle"}, cfg.Modes)
	assert.Equal(t, "browser", cfg.Target)
	assert.Equal(t, "cjs", cfg.ModeFormat(ModeBundle))
	assert.Equal(t, "esm", cfg.ModeFormat(ModePreserve))
	assert.Equal(t, []string{"react"}, cfg.Externals)
	require.Len(t, cfg.Destinations, 2)
	assert.Equal(t, "src/worker.ts", cfg.VirtualEntries["worker"])
}
