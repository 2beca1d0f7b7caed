package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savvy-web/bun-builder-sub000/internal/config"
)

func touch(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveRelative(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/index.ts"), "")
	touch(t, filepath.Join(dir, "src/utils.ts"), "")
	touch(t, filepath.Join(dir, "src/lib/index.ts"), "")

	r := New(nil)
	from := filepath.Join(dir, "src/index.ts")

	assert.Equal(t, filepath.Join(dir, "src/utils.ts"), r.Resolve("./utils", from))
	assert.Equal(t, filepath.Join(dir, "src/utils.ts"), r.Resolve("./utils.ts", from))
	assert.Equal(t, filepath.Join(dir, "src/lib/index.ts"), r.Resolve("./lib", from))
	assert.Equal(t, "", r.Resolve("./missing", from))
}

func TestResolveJSExtensionMapsToSource(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/index.ts"), "")
	touch(t, filepath.Join(dir, "src/utils.ts"), "")

	r := New(nil)
	from := filepath.Join(dir, "src/index.ts")
	assert.Equal(t, filepath.Join(dir, "src/utils.ts"), r.Resolve("./utils.js", from))
}

func TestResolveBareSpecifierIsExternal(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/index.ts"), "")

	r := New(nil)
	assert.Equal(t, "", r.Resolve("react", filepath.Join(dir, "src/index.ts")))
	assert.Equal(t, "", r.Resolve("node:path", filepath.Join(dir, "src/index.ts")))
}

func TestResolveAlias(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/lib/math.ts"), "")
	touch(t, filepath.Join(dir, "src/internal/index.ts"), "")

	r := New(&config.TSConfig{
		BaseURL: dir,
		Paths: map[string]string{
			"@lib/*":    "src/lib/*",
			"#internal": "src/internal/index.ts",
		},
	})
	from := filepath.Join(dir, "src/index.ts")

	assert.Equal(t, filepath.Join(dir, "src/lib/math.ts"), r.Resolve("@lib/math", from))
	assert.Equal(t, filepath.Join(dir, "src/internal/index.ts"), r.Resolve("#internal", from))
	assert.Equal(t, "", r.Resolve("@other/math", from))
}

func TestResolveDeclarationRedirectsToImplementation(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/types.d.ts"), "")
	touch(t, filepath.Join(dir, "src/types.ts"), "")
	touch(t, filepath.Join(dir, "src/ambient.d.ts"), "")

	r := New(nil)
	from := filepath.Join(dir, "src/index.ts")

	// Implementation exists: redirect to it.
	assert.Equal(t, filepath.Join(dir, "src/types.ts"), r.Resolve("./types.d.ts", from))
	// Declaration-only: resolution stops.
	assert.Equal(t, "", r.Resolve("./ambient.d.ts", from))
}

func TestResolveCaches(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "src/a.ts"), "")
	touch(t, filepath.Join(dir, "src/b.ts"), "")

	r := New(nil)
	from := filepath.Join(dir, "src/a.ts")
	first := r.Resolve("./b", from)
	require.NotEmpty(t, first)

	// Removing the file does not invalidate the per-trace cache.
	require.NoError(t, os.Remove(filepath.Join(dir, "src/b.ts")))
	assert.Equal(t, first, r.Resolve("./b", from))
}
