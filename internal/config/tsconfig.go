package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	berrors "github.com/savvy-web/bun-builder-sub000/internal/errors"
)

// TSConfig is the subset of a TypeScript project config the builder needs:
// the base URL and path-alias table that drive module resolution, and the
// declaration output directory.
type TSConfig struct {
	Path    string
	BaseURL string
	// Paths maps alias patterns ("@lib/*") to target patterns relative to
	// BaseURL ("src/lib/*"). Only single-target patterns are honored; extra
	// fallback targets are ignored, matching how the bundler resolves.
	Paths map[string]string
}

type rawTSConfig struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// LoadTSConfig parses the project config at path. tsconfig files are JSONC;
// comments and trailing commas are stripped before decoding. A missing file
// is a fatal configuration error: without it there is no resolution context.
func LoadTSConfig(path string) (*TSConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal, fmt.Sprintf("reading tsconfig %s", path))
	}
	var raw rawTSConfig
	if err := json.Unmarshal(stripJSONC(data), &raw); err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal, fmt.Sprintf("parsing tsconfig %s", path))
	}

	cfg := &TSConfig{Path: path, Paths: map[string]string{}}

	// Resolve an extends chain first so local options win. A dangling or
	// malformed parent is a hard error: silently losing the inherited alias
	// table would make aliased imports resolve as external with no diagnostic.
	if raw.Extends != "" && strings.HasPrefix(raw.Extends, ".") {
		parentPath := filepath.Join(filepath.Dir(path), raw.Extends)
		if filepath.Ext(parentPath) == "" {
			parentPath += ".json"
		}
		parent, err := LoadTSConfig(parentPath)
		if err != nil {
			return nil, berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal,
				fmt.Sprintf("resolving extends %q in %s", raw.Extends, path))
		}
		cfg.BaseURL = parent.BaseURL
		for k, v := range parent.Paths {
			cfg.Paths[k] = v
		}
	}

	if raw.CompilerOptions.BaseURL != "" {
		cfg.BaseURL = filepath.Join(filepath.Dir(path), raw.CompilerOptions.BaseURL)
	} else if cfg.BaseURL == "" {
		cfg.BaseURL = filepath.Dir(path)
	}
	for pattern, targets := range raw.CompilerOptions.Paths {
		if len(targets) > 0 {
			cfg.Paths[pattern] = targets[0]
		}
	}
	return cfg, nil
}

// stripJSONC removes // and /* */ comments plus trailing commas so the
// standard JSON decoder accepts tsconfig files. String contents are
// preserved byte for byte.
func stripJSONC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				i++
				out = append(out, data[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++ // skip the closing '/'
		case c == ',':
			// Trailing comma: drop if the next non-space byte closes a scope.
			j := i + 1
			for j < len(data) && (data[j] == ' ' || data[j] == '\t' || data[j] == '\n' || data[j] == '\r') {
				j++
			}
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				continue
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}
