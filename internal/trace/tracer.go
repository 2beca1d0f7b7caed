// Package trace computes the reachability set: the first-party source files
// transitively imported by a package's entry points. The walk decides what
// gets compiled and typed; everything it excludes stays out of the published
// surface.
package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/savvy-web/bun-builder-sub000/internal/resolve"
	"github.com/savvy-web/bun-builder-sub000/internal/util/sets"
)

// Error kinds reported in Result.Errors.
const (
	ErrEntryNotFound = "entry_not_found"
	ErrReadFailed    = "read_failed"
	ErrParseFailed   = "parse_failed"
	ErrNoResolver    = "no_resolution_context"
)

// Error is a structured, accumulated trace error. Soft errors never halt
// the walk; only a missing resolution context empties the result.
type Error struct {
	Kind string
	Path string
	Err  error
}

func (e Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

// Result is the outcome of one trace pass. Files is sorted and deduplicated;
// repeated traces over an unchanged tree yield identical results.
type Result struct {
	Files   []string
	Entries []string
	Errors  []Error
}

// Tracer walks the import graph from entry files using a Resolver.
type Tracer struct {
	resolver *resolve.Resolver
}

// New creates a Tracer. The resolver carries the per-pass cache, so callers
// allocate a fresh resolver (and tracer) per build mode.
func New(resolver *resolve.Resolver) *Tracer {
	return &Tracer{resolver: resolver}
}

// TraceFromEntries runs a depth-first reachability walk from the given entry
// files. The visited set is keyed by cleaned absolute path, which also makes
// the walk cycle-safe: an already-visited file is never re-descended.
//
// Visiting and inclusion are distinct: excluded files (declarations, test
// files, vendored paths) are still traversed, because a production file may
// transitively import through them.
func (t *Tracer) TraceFromEntries(entryPaths []string) *Result {
	res := &Result{}
	if t.resolver == nil {
		res.Errors = append(res.Errors, Error{Kind: ErrNoResolver, Path: ""})
		return res
	}

	var stack []string
	for _, entry := range entryPaths {
		abs := normalize(entry)
		if !fileExists(abs) {
			res.Errors = append(res.Errors, Error{Kind: ErrEntryNotFound, Path: entry})
			continue
		}
		res.Entries = append(res.Entries, abs)
		stack = append(stack, abs)
	}

	visited := sets.New[string]()
	included := sets.New[string]()

	for len(stack) > 0 {
		file := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Has(file) {
			continue
		}
		visited.Add(file)

		if Includable(file) {
			included.Add(file)
		}

		src, err := os.ReadFile(file)
		if err != nil {
			res.Errors = append(res.Errors, Error{Kind: ErrReadFailed, Path: file, Err: err})
			continue
		}
		specs, err := ExtractSpecifiers(src, file)
		if err != nil {
			res.Errors = append(res.Errors, Error{Kind: ErrParseFailed, Path: file, Err: err})
			continue
		}
		for _, spec := range specs {
			resolved := t.resolver.Resolve(spec, file)
			if resolved == "" {
				continue
			}
			resolved = normalize(resolved)
			if !visited.Has(resolved) {
				stack = append(stack, resolved)
			}
		}
	}

	res.Files = sets.SortedStrings(included)
	return res
}

// Includable reports whether a visited file belongs in the reachability set:
// a first-party source file that is neither declaration-only nor a test.
func Includable(path string) bool {
	if strings.HasSuffix(path, ".d.ts") {
		return false
	}
	ext := filepath.Ext(path)
	if ext != ".ts" && ext != ".tsx" && ext != ".mts" && ext != ".cts" {
		return false
	}
	if isVendored(path) || isTestPath(path) {
		return false
	}
	return true
}

func isVendored(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == "node_modules" || seg == "vendor" {
			return true
		}
	}
	return false
}

func isTestPath(path string) bool {
	base := filepath.Base(path)
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}
	for _, seg := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if seg == "__tests__" || seg == "__mocks__" || seg == "test" || seg == "tests" {
			return true
		}
	}
	return false
}

func normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
