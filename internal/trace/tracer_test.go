package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savvy-web/bun-builder-sub000/internal/config"
	"github.com/savvy-web/bun-builder-sub000/internal/resolve"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTracer() *Tracer {
	return New(resolve.New(nil))
}

func TestExtractSpecifiers(t *testing.T) {
	src := []byte(`
import def from "./a";
import { named } from "./b";
import "./side-effect";
export * from "./c";
export { x } from "./d";
export const local = 1;
const lazy = await import("./e");
const computed = await import("./" + name);
const templated = await import(` + "`./${name}`" + `);
const legacy = require("./f");
`)
	specs, err := ExtractSpecifiers(src, "index.ts")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"./a", "./b", "./side-effect", "./c", "./d", "./e", "./f"}, specs)
}

func TestTraceBasicReachability(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/index.ts"), `import { a } from "./a"; export * from "./b";`)
	touch(t, filepath.Join(dir, "src/a.ts"), `export const a = 1;`)
	touch(t, filepath.Join(dir, "src/b.ts"), `import "external-pkg"; export const b = 2;`)
	touch(t, filepath.Join(dir, "src/unrelated.ts"), `export const u = 0;`)

	res := newTracer().TraceFromEntries([]string{filepath.Join(dir, "src/index.ts")})
	require.Empty(t, res.Errors)
	assert.Equal(t, []string{
		filepath.Join(dir, "src/a.ts"),
		filepath.Join(dir, "src/b.ts"),
		filepath.Join(dir, "src/index.ts"),
	}, res.Files)
}

func TestTraceIdempotent(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/index.ts"), `import "./a"; import "./b";`)
	touch(t, filepath.Join(dir, "src/a.ts"), ``)
	touch(t, filepath.Join(dir, "src/b.ts"), ``)

	entry := filepath.Join(dir, "src/index.ts")
	first := New(resolve.New(nil)).TraceFromEntries([]string{entry})
	second := New(resolve.New(nil)).TraceFromEntries([]string{entry})
	assert.Equal(t, first.Files, second.Files)
}

func TestTraceCircularImports(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/a.ts"), `import { b } from "./b"; export const a = 1;`)
	touch(t, filepath.Join(dir, "src/b.ts"), `import { a } from "./a"; export const b = 2;`)

	res := newTracer().TraceFromEntries([]string{filepath.Join(dir, "src/a.ts")})
	require.Empty(t, res.Errors)
	assert.Equal(t, []string{
		filepath.Join(dir, "src/a.ts"),
		filepath.Join(dir, "src/b.ts"),
	}, res.Files)
}

func TestTraceNonLiteralDynamicImport(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/index.ts"), `
const name = "a";
const mod = await import("./" + name);
`)
	touch(t, filepath.Join(dir, "src/a.ts"), ``)

	res := newTracer().TraceFromEntries([]string{filepath.Join(dir, "src/index.ts")})
	require.Empty(t, res.Errors)
	assert.Equal(t, []string{filepath.Join(dir, "src/index.ts")}, res.Files)
}

func TestTraceExcludesTestAndDeclarationFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/index.ts"), `
import "./helper.test";
import "./types";
import "./__tests__/fixture";
`)
	// Test files are traversed but never included; their own imports still count.
	touch(t, filepath.Join(dir, "src/helper.test.ts"), `import "./shared";`)
	touch(t, filepath.Join(dir, "src/shared.ts"), ``)
	touch(t, filepath.Join(dir, "src/types.d.ts"), ``)
	touch(t, filepath.Join(dir, "src/__tests__/fixture.ts"), ``)

	res := newTracer().TraceFromEntries([]string{filepath.Join(dir, "src/index.ts")})
	assert.Equal(t, []string{
		filepath.Join(dir, "src/index.ts"),
		filepath.Join(dir, "src/shared.ts"),
	}, res.Files)
}

func TestTraceExcludesVendoredPaths(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/index.ts"), `import "../node_modules/dep/index";`)
	touch(t, filepath.Join(dir, "node_modules/dep/index.ts"), ``)

	res := newTracer().TraceFromEntries([]string{filepath.Join(dir, "src/index.ts")})
	assert.Equal(t, []string{filepath.Join(dir, "src/index.ts")}, res.Files)
}

func TestTraceMissingEntry(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/index.ts"), ``)

	res := newTracer().TraceFromEntries([]string{
		filepath.Join(dir, "src/index.ts"),
		filepath.Join(dir, "src/missing.ts"),
	})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ErrEntryNotFound, res.Errors[0].Kind)
	assert.Equal(t, []string{filepath.Join(dir, "src/index.ts")}, res.Entries)
	assert.Equal(t, []string{filepath.Join(dir, "src/index.ts")}, res.Files)
}

func TestTraceNoResolverIsHardFailure(t *testing.T) {
	res := New(nil).TraceFromEntries([]string{"whatever.ts"})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ErrNoResolver, res.Errors[0].Kind)
	assert.Empty(t, res.Files)
	assert.Empty(t, res.Entries)
}

func TestTraceAliasThroughTestHelper(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/index.ts"), `import "@helpers/setup.test";`)
	touch(t, filepath.Join(dir, "helpers/setup.test.ts"), `import "../src/used";`)
	touch(t, filepath.Join(dir, "src/used.ts"), ``)

	r := resolve.New(&config.TSConfig{
		BaseURL: dir,
		Paths:   map[string]string{"@helpers/*": "helpers/*"},
	})
	res := New(r).TraceFromEntries([]string{filepath.Join(dir, "src/index.ts")})
	assert.Equal(t, []string{
		filepath.Join(dir, "src/index.ts"),
		filepath.Join(dir, "src/used.ts"),
	}, res.Files)
}
