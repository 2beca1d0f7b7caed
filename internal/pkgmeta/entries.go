package pkgmeta

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	berrors "github.com/savvy-web/bun-builder-sub000/internal/errors"
	"github.com/savvy-web/bun-builder-sub000/internal/util/sets"
)

// EntryPoint is a named, publicly reachable compilation unit derived from
// export or executable metadata. ExportKey is nil for executable entries.
type EntryPoint struct {
	// Name is a filesystem-safe identifier, unique within one build.
	Name string
	// SourcePath is the absolute path of the entry's TypeScript source.
	SourcePath string
	// ExportKey is the originating exports key ("." or "./utils"), or nil for
	// bin entries.
	ExportKey *string
}

// IsRoot reports whether this entry is the package-root export.
func (e EntryPoint) IsRoot() bool {
	return e.ExportKey != nil && *e.ExportKey == "."
}

// Subpath returns the export subpath without the leading "./", empty for the
// root export and for bin entries.
func (e EntryPoint) Subpath() string {
	if e.ExportKey == nil || *e.ExportKey == "." {
		return ""
	}
	return strings.TrimPrefix(*e.ExportKey, "./")
}

// DeriveEntryPoints builds the entry list for a package: one entry per
// export key whose target is a first-party TypeScript source, plus one per
// bin command. Export keys come first, sorted with the root export leading;
// bin entries follow in command-name order.
func DeriveEntryPoints(pkg *Package) ([]EntryPoint, error) {
	var entries []EntryPoint
	used := sets.New[string]()

	keys := make([]string, 0, len(pkg.Exports))
	for k := range pkg.Exports {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "." {
			return true
		}
		if keys[j] == "." {
			return false
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		src := pkg.Exports[key].Source()
		if !isSourcePath(src) {
			// Non-source exports (./package.json, prebuilt assets) are passed
			// through untouched; they are not compilation units.
			continue
		}
		key := key
		entries = append(entries, EntryPoint{
			Name:       uniqueName(entryName(key), used),
			SourcePath: absFrom(pkg.Dir, src),
			ExportKey:  &key,
		})
	}

	bin := pkg.Bin()
	cmds := make([]string, 0, len(bin))
	for c := range bin {
		cmds = append(cmds, c)
	}
	sort.Strings(cmds)
	for _, cmd := range cmds {
		src := bin[cmd]
		if !isSourcePath(src) {
			continue
		}
		entries = append(entries, EntryPoint{
			Name:       uniqueName(sanitizeName(cmd), used),
			SourcePath: absFrom(pkg.Dir, src),
		})
	}

	if len(entries) == 0 {
		return nil, berrors.MetadataError(fmt.Sprintf("package %s declares no TypeScript entry points", pkg.Name))
	}
	return entries, nil
}

func absFrom(dir, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(dir, rel)
}

func isSourcePath(p string) bool {
	if p == "" || strings.HasSuffix(p, ".d.ts") {
		return false
	}
	ext := filepath.Ext(p)
	return ext == ".ts" || ext == ".tsx" || ext == ".mts" || ext == ".cts"
}

// entryName derives a filesystem-safe identifier from an export key:
// "." -> "index", "./utils" -> "utils", "./a/b" -> "a_b".
func entryName(exportKey string) string {
	if exportKey == "." {
		return "index"
	}
	return sanitizeName(strings.TrimPrefix(exportKey, "./"))
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '/':
			b.WriteByte('_')
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "entry"
	}
	return b.String()
}

func uniqueName(base string, used sets.Set[string]) string {
	name := base
	for i := 2; used.Has(name); i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	used.Add(name)
	return name
}
