package pkgmeta

// PublishManifest is the ordered publish-facing package.json. A dedicated
// struct keeps field order stable across rewrites instead of depending on
// map iteration.
type PublishManifest struct {
	Name             string                  `json:"name"`
	Version          string                  `json:"version"`
	Description      string                  `json:"description,omitempty"`
	Type             string                  `json:"type,omitempty"`
	Exports          map[string]ExportTarget `json:"exports,omitempty"`
	Bin              Bin                     `json:"bin,omitempty"`
	Files            []string                `json:"files,omitempty"`
	Dependencies     map[string]string       `json:"dependencies,omitempty"`
	PeerDependencies map[string]string       `json:"peerDependencies,omitempty"`
	GitHead          string                  `json:"gitHead,omitempty"`
}

// ArtifactRef locates the built outputs for one entry, relative to the
// directory the manifest is written into.
type ArtifactRef struct {
	JS    string
	Types string
}

// BuildPublishManifest rewrites the source-facing package into its published
// form: every exported entry now points at built artifacts, bin commands
// point at bundled scripts, devDependencies are dropped, and the repository
// head (when known) is stamped as gitHead.
func BuildPublishManifest(pkg *Package, entries []EntryPoint, artifacts map[string]ArtifactRef, gitHead string) *PublishManifest {
	m := &PublishManifest{
		Name:             pkg.Name,
		Version:          pkg.Version,
		Description:      pkg.Description,
		Type:             pkg.Type,
		Files:            pkg.Files,
		Dependencies:     pkg.Dependencies,
		PeerDependencies: pkg.PeerDependencies,
		GitHead:          gitHead,
	}

	exports := map[string]ExportTarget{}
	bin := Bin{}
	for _, e := range entries {
		ref, ok := artifacts[e.Name]
		if !ok {
			continue
		}
		if e.ExportKey != nil {
			exports[*e.ExportKey] = ExportTarget{Types: ref.Types, Default: ref.JS}
		} else {
			bin[e.Name] = ref.JS
		}
	}
	// Pass through non-source exports untouched.
	for key, target := range pkg.Exports {
		if _, ok := exports[key]; !ok && !isSourcePath(target.Source()) {
			exports[key] = target
		}
	}
	if len(exports) > 0 {
		m.Exports = exports
	}
	if len(bin) > 0 {
		m.Bin = bin
	}
	return m
}
