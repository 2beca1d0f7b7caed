// Package pkgmeta reads and writes package metadata (package.json): the
// source-facing manifest that declares entry points, and the publish-facing
// manifest written per destination at the end of a build.
package pkgmeta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	berrors "github.com/savvy-web/bun-builder-sub000/internal/errors"
)

// ExportTarget is one value in the exports map: either a bare path or a
// conditional object. Conditions the builder cares about are kept as fields;
// everything else round-trips through Other.
type ExportTarget struct {
	Path    string
	Types   string
	Import  string
	Require string
	Default string
}

// UnmarshalJSON accepts both the string shorthand and the conditional form.
func (t *ExportTarget) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Path)
	}
	var obj struct {
		Types   string `json:"types"`
		Import  string `json:"import"`
		Require string `json:"require"`
		Default string `json:"default"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Types, t.Import, t.Require, t.Default = obj.Types, obj.Import, obj.Require, obj.Default
	return nil
}

// MarshalJSON emits the string shorthand when only Path is set.
func (t ExportTarget) MarshalJSON() ([]byte, error) {
	if t.Path != "" {
		return json.Marshal(t.Path)
	}
	obj := map[string]string{}
	if t.Types != "" {
		obj["types"] = t.Types
	}
	if t.Import != "" {
		obj["import"] = t.Import
	}
	if t.Require != "" {
		obj["require"] = t.Require
	}
	if t.Default != "" {
		obj["default"] = t.Default
	}
	return json.Marshal(obj)
}

// Source returns the module path this target points at, preferring the
// runtime conditions over the types-only one.
func (t ExportTarget) Source() string {
	switch {
	case t.Path != "":
		return t.Path
	case t.Default != "":
		return t.Default
	case t.Import != "":
		return t.Import
	case t.Require != "":
		return t.Require
	}
	return ""
}

// Bin is the executables map; the string shorthand becomes a single entry
// keyed by the package's unscoped name.
type Bin map[string]string

// Package is the parsed package.json.
type Package struct {
	Dir              string                  `json:"-"`
	Name             string                  `json:"name"`
	Version          string                  `json:"version"`
	Description      string                  `json:"description,omitempty"`
	Type             string                  `json:"type,omitempty"`
	Exports          map[string]ExportTarget `json:"exports,omitempty"`
	BinRaw           json.RawMessage         `json:"bin,omitempty"`
	Files            []string                `json:"files,omitempty"`
	Dependencies     map[string]string       `json:"dependencies,omitempty"`
	PeerDependencies map[string]string       `json:"peerDependencies,omitempty"`
	DevDependencies  map[string]string       `json:"devDependencies,omitempty"`
}

// Load reads and parses package.json from dir.
func Load(dir string) (*Package, error) {
	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryMetadata, berrors.SeverityFatal, fmt.Sprintf("reading %s", path))
	}
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryMetadata, berrors.SeverityFatal, fmt.Sprintf("parsing %s", path))
	}
	if pkg.Name == "" {
		return nil, berrors.MetadataError(fmt.Sprintf("%s: missing package name", path))
	}
	pkg.Dir = dir
	return &pkg, nil
}

// Bin normalizes the bin field into a command→path map.
func (p *Package) Bin() Bin {
	if len(p.BinRaw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(p.BinRaw, &single); err == nil {
		return Bin{unscopedName(p.Name): single}
	}
	var many map[string]string
	if err := json.Unmarshal(p.BinRaw, &many); err == nil {
		return Bin(many)
	}
	return nil
}

// UnscopedName strips a leading @scope/ from a package name.
func unscopedName(name string) string {
	if len(name) > 0 && name[0] == '@' {
		if i := bytes.IndexByte([]byte(name), '/'); i >= 0 {
			return name[i+1:]
		}
	}
	return name
}

// WriteJSON writes v as pretty-printed JSON with two-space indent and a
// trailing newline, the shape registries and diff tools expect.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return berrors.Wrap(err, berrors.CategoryMetadata, berrors.SeverityFatal, fmt.Sprintf("encoding %s", path))
	}
	// json.Encoder already terminates with a single newline.
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return berrors.Wrap(err, berrors.CategoryFileSystem, berrors.SeverityFatal, fmt.Sprintf("writing %s", path))
	}
	return nil
}
