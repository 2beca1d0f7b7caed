// Package resolve maps import specifiers to absolute source paths: relative
// and alias-qualified specifiers probe the filesystem, everything else is
// treated as an external dependency.
package resolve

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/savvy-web/bun-builder-sub000/internal/config"
)

// sourceExts are probed in order when a specifier omits its extension.
var sourceExts = []string{".ts", ".tsx", ".mts", ".cts"}

// Resolver resolves one trace pass. The cache is scoped to the resolver, so
// a fresh resolver per build mode never leaks stale results between modes.
type Resolver struct {
	ts    *config.TSConfig
	cache map[cacheKey]string
}

type cacheKey struct {
	specifier string
	fromDir   string
}

// New creates a Resolver with the given project config. The config supplies
// the path-alias table; nil disables alias resolution.
func New(ts *config.TSConfig) *Resolver {
	return &Resolver{ts: ts, cache: make(map[cacheKey]string)}
}

// Resolve maps specifier, imported from fromFile, to an absolute source
// path. It returns "" when the specifier is external or unresolvable; the
// caller stops traversal there.
func (r *Resolver) Resolve(specifier, fromFile string) string {
	fromDir := filepath.Dir(fromFile)
	key := cacheKey{specifier: specifier, fromDir: fromDir}
	if hit, ok := r.cache[key]; ok {
		return hit
	}
	resolved := r.resolve(specifier, fromDir)
	r.cache[key] = resolved
	return resolved
}

func (r *Resolver) resolve(specifier, fromDir string) string {
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"), specifier == ".", specifier == "..":
		return probe(filepath.Join(fromDir, specifier))
	case filepath.IsAbs(specifier):
		return probe(specifier)
	default:
		if target := r.expandAlias(specifier); target != "" {
			return probe(target)
		}
		// Bare specifier with no matching alias: external dependency.
		return ""
	}
}

// expandAlias matches specifier against the tsconfig paths table. Exact
// patterns win over wildcard ones; among wildcards the longest prefix wins.
func (r *Resolver) expandAlias(specifier string) string {
	if r.ts == nil {
		return ""
	}
	if target, ok := r.ts.Paths[specifier]; ok {
		return filepath.Join(r.ts.BaseURL, target)
	}
	bestLen := -1
	var best string
	for pattern, target := range r.ts.Paths {
		star := strings.IndexByte(pattern, '*')
		if star < 0 {
			continue
		}
		prefix, suffix := pattern[:star], pattern[star+1:]
		if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
			continue
		}
		if len(prefix) <= bestLen {
			continue
		}
		bestLen = len(prefix)
		captured := specifier[len(prefix) : len(specifier)-len(suffix)]
		best = strings.Replace(target, "*", captured, 1)
	}
	if best == "" {
		return ""
	}
	return filepath.Join(r.ts.BaseURL, best)
}

// probe locates the source file a path refers to: the path itself, an
// extension-substituted sibling, an extension-appended candidate, or a
// directory index. Declaration-only hits are redirected to their
// implementation source; a declaration with no implementation resolves to
// nothing, so traversal never descends into declaration-only territory.
func probe(path string) string {
	if strings.HasSuffix(path, ".d.ts") {
		return implementationFor(path)
	}
	if isFile(path) {
		if !isSourceExt(path) {
			return ""
		}
		return filepath.Clean(path)
	}

	// NodeNext-style specifiers name the emitted .js; map back to the source.
	if ext := filepath.Ext(path); ext == ".js" || ext == ".jsx" || ext == ".mjs" || ext == ".cjs" {
		base := strings.TrimSuffix(path, ext)
		for _, se := range sourceExts {
			if isFile(base + se) {
				return filepath.Clean(base + se)
			}
		}
		return ""
	}

	for _, se := range sourceExts {
		if isFile(path + se) {
			return filepath.Clean(path + se)
		}
	}
	for _, se := range sourceExts {
		idx := filepath.Join(path, "index"+se)
		if isFile(idx) {
			return filepath.Clean(idx)
		}
	}
	return ""
}

// implementationFor maps a .d.ts path to the sibling implementation source,
// or "" when none exists.
func implementationFor(declPath string) string {
	base := strings.TrimSuffix(declPath, ".d.ts")
	for _, se := range sourceExts {
		if isFile(base + se) {
			return filepath.Clean(base + se)
		}
	}
	return ""
}

func isSourceExt(path string) bool {
	if strings.HasSuffix(path, ".d.ts") {
		return false
	}
	ext := filepath.Ext(path)
	for _, se := range sourceExts {
		if ext == se {
			return true
		}
	}
	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
