package build

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/savvy-web/bun-builder-sub000/internal/config"
	berrors "github.com/savvy-web/bun-builder-sub000/internal/errors"
)

// ensureDocConfig generates the rollup tool's project config deterministically
// from the package state. Locally the file is (re)written; in CI a stale file
// on disk is a hard configuration error, so the committed config can never
// drift from what the build actually uses.
func ensureDocConfig(bc *Context) error {
	path := filepath.Join(bc.PkgDir, bc.Cfg.DocConfigPath)
	want, err := renderDocConfig(bc)
	if err != nil {
		return err
	}

	switch bc.Policies.DocConfig {
	case config.DocConfigValidate:
		got, err := os.ReadFile(path)
		if err != nil {
			return berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal,
				fmt.Sprintf("doc config %s must be committed before a CI build", bc.Cfg.DocConfigPath))
		}
		if !bytes.Equal(bytes.TrimSpace(got), bytes.TrimSpace(want)) {
			return berrors.ConfigError(fmt.Sprintf(
				"doc config %s is stale; regenerate it with a local build and commit the result", bc.Cfg.DocConfigPath))
		}
		return nil
	default: // write
		if err := os.WriteFile(path, want, 0o644); err != nil {
			return berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal, "writing doc config")
		}
		return nil
	}
}

// renderDocConfig produces the canonical config bytes. Key order and
// indentation are fixed so validation can compare bytes instead of parsing.
func renderDocConfig(bc *Context) ([]byte, error) {
	mainEntry := "<projectFolder>/src/index.ts"
	for _, e := range bc.ExportEntries() {
		if e.IsRoot() {
			if rel, err := filepath.Rel(bc.PkgDir, e.SourcePath); err == nil {
				mainEntry = "<projectFolder>/" + filepath.ToSlash(rel)
			}
			break
		}
	}

	declDirToken := "<projectFolder>/" + filepath.ToSlash(relOrBase(bc.PkgDir, bc.DeclDir))
	declEntry := strings.Replace(mainEntry, "/src/", "/", 1)
	declEntry = strings.TrimSuffix(declEntry, ".ts") + ".d.ts"
	declEntry = strings.Replace(declEntry, "<projectFolder>", declDirToken, 1)

	doc := map[string]any{
		"$schema":                "https://developer.microsoft.com/json-schemas/api-extractor/v7/api-extractor.schema.json",
		"projectFolder":          ".",
		"mainEntryPointFilePath": declEntry,
		"compiler": map[string]any{
			"tsconfigFilePath": "<projectFolder>/" + filepath.ToSlash(bc.Cfg.TSConfig),
		},
		"apiReport":     map[string]any{"enabled": false},
		"docModel":      map[string]any{"enabled": true},
		"dtsRollup":     map[string]any{"enabled": true},
		"tsdocMetadata": map[string]any{"enabled": false},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal, "rendering doc config")
	}
	return buf.Bytes(), nil
}

func relOrBase(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return filepath.Base(path)
}
