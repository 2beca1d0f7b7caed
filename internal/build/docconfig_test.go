package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savvy-web/bun-builder-sub000/internal/config"
	"github.com/savvy-web/bun-builder-sub000/internal/pkgmeta"
)

func docConfigContext(t *testing.T, mode config.DocConfigMode) *Context {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "bunbuilder.yaml"))
	require.NoError(t, err)

	bc := newContext(config.ModeBundle, dir, cfg, config.EnvInfo{}, config.DefaultPolicies(config.EnvInfo{}))
	bc.Policies.DocConfig = mode
	key := "."
	bc.Entries = []pkgmeta.EntryPoint{{
		Name:       "index",
		SourcePath: filepath.Join(dir, "src", "index.ts"),
		ExportKey:  &key,
	}}
	return bc
}

func TestEnsureDocConfigWritesLocally(t *testing.T) {
	bc := docConfigContext(t, config.DocConfigWrite)

	require.NoError(t, ensureDocConfig(bc))

	data, err := os.ReadFile(filepath.Join(bc.PkgDir, bc.Cfg.DocConfigPath))
	require.NoError(t, err)
	assert.Contains(t, string(data), "mainEntryPointFilePath")
	assert.Contains(t, string(data), "dtsRollup")
}

func TestEnsureDocConfigValidateAcceptsFreshFile(t *testing.T) {
	// Write with the local policy, then validate as CI would.
	bc := docConfigContext(t, config.DocConfigWrite)
	require.NoError(t, ensureDocConfig(bc))

	bc.Policies.DocConfig = config.DocConfigValidate
	assert.NoError(t, ensureDocConfig(bc))
}

func TestEnsureDocConfigValidateRejectsStaleFile(t *testing.T) {
	bc := docConfigContext(t, config.DocConfigValidate)
	path := filepath.Join(bc.PkgDir, bc.Cfg.DocConfigPath)
	require.NoError(t, os.WriteFile(path, []byte(`{"projectFolder": "elsewhere"}`), 0o644))

	err := ensureDocConfig(bc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale")
}

func TestEnsureDocConfigValidateRequiresFile(t *testing.T) {
	bc := docConfigContext(t, config.DocConfigValidate)

	err := ensureDocConfig(bc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committed")
}
