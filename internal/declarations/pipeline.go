package declarations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// EntrySpec names one export entry whose declarations get consolidated.
type EntrySpec struct {
	Name       string
	SourcePath string
}

// Artifact is the declaration output for one entry. Entries whose rollup
// failed simply have no artifact.
type Artifact struct {
	Entry           string
	DeclarationPath string
	APIDocPath      string
}

// RollupOutcome aggregates per-entry consolidation results. Forgotten-export
// and doc-warning diagnostics are captured separately for policy handling
// instead of printing directly.
type RollupOutcome struct {
	Artifacts    []Artifact
	Warnings     []string
	Forgotten    []Diagnostic
	DocWarnings  []Diagnostic
	UsedFallback bool
}

// RollupEntries runs the rollup tool once per export entry, never once
// globally. A failing entry is skipped with a warning; if every entry fails
// (or the tool is not installed), the caller falls back to raw per-file
// declarations via CopyRawDeclarations.
func RollupEntries(ctx context.Context, roller Roller, entries []EntrySpec, declDir, pkgDir, outDir, tsconfigPath string, withAPIDocs bool) *RollupOutcome {
	out := &RollupOutcome{}
	if !roller.Installed() {
		out.Warnings = append(out.Warnings, "declaration rollup tool not installed")
		return out
	}

	for _, entry := range entries {
		declFile := declFileFor(declDir, pkgDir, entry.SourcePath)
		if declFile == "" {
			out.Warnings = append(out.Warnings, fmt.Sprintf("entry %s: no generated declaration found", entry.Name))
			continue
		}

		req := RollupRequest{
			DeclarationFile: declFile,
			TSConfigPath:    tsconfigPath,
			RollupOutPath:   filepath.Join(outDir, entry.Name+".d.ts"),
		}
		if withAPIDocs {
			req.APIDocPath = filepath.Join(outDir, entry.Name+".api.json")
		}

		res, err := roller.Rollup(ctx, req)
		if err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("entry %s: rollup failed: %v", entry.Name, err))
			continue
		}

		for _, d := range res.Diagnostics {
			switch {
			case IsSuppressed(d):
			case IsForgottenExport(d):
				out.Forgotten = append(out.Forgotten, d)
			case IsDocWarning(d):
				out.DocWarnings = append(out.DocWarnings, d)
			default:
				slog.Warn("Rollup diagnostic", "entry", entry.Name, "id", d.MessageID, "message", d.Message)
			}
		}

		if !res.Success {
			out.Warnings = append(out.Warnings, fmt.Sprintf("entry %s: rollup reported failure", entry.Name))
			continue
		}
		out.Artifacts = append(out.Artifacts, Artifact{
			Entry:           entry.Name,
			DeclarationPath: req.RollupOutPath,
			APIDocPath:      req.APIDocPath,
		})
	}
	return out
}

// CopyRawDeclarations is the fallback path: copy the per-file declarations
// for every reachable source file into outDir, preserving layout relative to
// the package directory.
func CopyRawDeclarations(declDir, pkgDir string, reachable []string, outDir string) ([]string, error) {
	var copied []string
	for _, src := range reachable {
		declFile := declFileFor(declDir, pkgDir, src)
		if declFile == "" {
			continue
		}
		rel, err := filepath.Rel(declDir, declFile)
		if err != nil {
			return copied, err
		}
		dst := filepath.Join(outDir, rel)
		if err := copyFile(declFile, dst); err != nil {
			return copied, err
		}
		copied = append(copied, dst)
	}
	return copied, nil
}

// declFileFor locates the generated declaration for one source file. The
// compiler mirrors sources under declDir either from the package directory
// or from its rootDir (commonly src/); both layouts are probed.
func declFileFor(declDir, pkgDir, sourcePath string) string {
	rel, err := filepath.Rel(pkgDir, sourcePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))

	candidates := []string{filepath.Join(declDir, stem+".d.ts")}
	if parts := strings.SplitN(filepath.ToSlash(stem), "/", 2); len(parts) == 2 {
		candidates = append(candidates, filepath.Join(declDir, filepath.FromSlash(parts[1])+".d.ts"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c
		}
	}
	return ""
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
