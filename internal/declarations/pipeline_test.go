package declarations

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRoller succeeds or fails per declaration file stem.
type fakeRoller struct {
	failFor     map[string]bool
	diagnostics []Diagnostic
	requests    []RollupRequest
}

func (f *fakeRoller) Installed() bool { return true }

func (f *fakeRoller) Rollup(_ context.Context, req RollupRequest) (*RollupResult, error) {
	f.requests = append(f.requests, req)
	stem := filepath.Base(req.DeclarationFile)
	if f.failFor[stem] {
		return &RollupResult{Success: false}, nil
	}
	return &RollupResult{Success: true, Diagnostics: f.diagnostics}, nil
}

func setupDecls(t *testing.T) (pkgDir, declDir string) {
	t.Helper()
	pkgDir = t.TempDir()
	declDir = filepath.Join(pkgDir, ".decl")
	for _, f := range []string{"src/index.d.ts", "src/utils.d.ts", "src/internal.d.ts"} {
		path := filepath.Join(declDir, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("export {};\n"), 0o644))
	}
	return pkgDir, declDir
}

func specEntries(pkgDir string) []EntrySpec {
	return []EntrySpec{
		{Name: "index", SourcePath: filepath.Join(pkgDir, "src/index.ts")},
		{Name: "utils", SourcePath: filepath.Join(pkgDir, "src/utils.ts")},
	}
}

func TestRollupEntriesRunsOncePerEntry(t *testing.T) {
	pkgDir, declDir := setupDecls(t)
	roller := &fakeRoller{}
	outDir := filepath.Join(pkgDir, "dist")

	out := RollupEntries(context.Background(), roller, specEntries(pkgDir), declDir, pkgDir, outDir, "tsconfig.json", true)

	require.Len(t, roller.requests, 2)
	require.Len(t, out.Artifacts, 2)
	assert.Equal(t, filepath.Join(outDir, "index.d.ts"), out.Artifacts[0].DeclarationPath)
	assert.Equal(t, filepath.Join(outDir, "index.api.json"), out.Artifacts[0].APIDocPath)
	assert.Empty(t, out.Warnings)
}

func TestRollupEntriesPartialFailureSkipsOnlyThatEntry(t *testing.T) {
	pkgDir, declDir := setupDecls(t)
	roller := &fakeRoller{failFor: map[string]bool{"utils.d.ts": true}}

	out := RollupEntries(context.Background(), roller, specEntries(pkgDir), declDir, pkgDir, filepath.Join(pkgDir, "dist"), "tsconfig.json", false)

	require.Len(t, out.Artifacts, 1)
	assert.Equal(t, "index", out.Artifacts[0].Entry)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "utils")
}

func TestRollupEntriesNotInstalled(t *testing.T) {
	pkgDir, declDir := setupDecls(t)

	out := RollupEntries(context.Background(), notInstalledRoller{}, specEntries(pkgDir), declDir, pkgDir, filepath.Join(pkgDir, "dist"), "tsconfig.json", false)

	assert.Empty(t, out.Artifacts)
	require.Len(t, out.Warnings, 1)
}

func TestRollupEntriesClassifiesDiagnostics(t *testing.T) {
	pkgDir, declDir := setupDecls(t)
	roller := &fakeRoller{diagnostics: []Diagnostic{
		{MessageID: "console-preamble", Message: "tool banner"},
		{MessageID: "ae-forgotten-export", Message: "InternalOptions is not exported"},
		{MessageID: "tsdoc-param-tag-missing-hyphen", Message: "param syntax"},
		{MessageID: "ae-misc", Message: "something else"},
	}}

	out := RollupEntries(context.Background(), roller, specEntries(pkgDir)[:1], declDir, pkgDir, filepath.Join(pkgDir, "dist"), "tsconfig.json", false)

	require.Len(t, out.Forgotten, 1)
	assert.Equal(t, "ae-forgotten-export", out.Forgotten[0].MessageID)
	require.Len(t, out.DocWarnings, 1)
	assert.Equal(t, "tsdoc-param-tag-missing-hyphen", out.DocWarnings[0].MessageID)
}

func TestCopyRawDeclarationsFiltersByReachableSet(t *testing.T) {
	pkgDir, declDir := setupDecls(t)
	outDir := filepath.Join(pkgDir, "dist")

	reachable := []string{
		filepath.Join(pkgDir, "src/index.ts"),
		filepath.Join(pkgDir, "src/utils.ts"),
	}
	copied, err := CopyRawDeclarations(declDir, pkgDir, reachable, outDir)
	require.NoError(t, err)
	require.Len(t, copied, 2)

	assert.FileExists(t, filepath.Join(outDir, "src/index.d.ts"))
	assert.FileExists(t, filepath.Join(outDir, "src/utils.d.ts"))
	assert.NoFileExists(t, filepath.Join(outDir, "src/internal.d.ts"))
}

func TestDeclFileForProbesRootDirLayouts(t *testing.T) {
	pkgDir := t.TempDir()
	declDir := filepath.Join(pkgDir, ".decl")
	// rootDir=src layout: declarations mirror without the leading src/.
	path := filepath.Join(declDir, "index.d.ts")
	require.NoError(t, os.MkdirAll(declDir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	got := declFileFor(declDir, pkgDir, filepath.Join(pkgDir, "src/index.ts"))
	assert.Equal(t, path, got)
}
