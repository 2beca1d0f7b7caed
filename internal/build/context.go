package build

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/savvy-web/bun-builder-sub000/internal/bundler"
	"github.com/savvy-web/bun-builder-sub000/internal/config"
	"github.com/savvy-web/bun-builder-sub000/internal/declarations"
	"github.com/savvy-web/bun-builder-sub000/internal/doclint"
	"github.com/savvy-web/bun-builder-sub000/internal/metrics"
	"github.com/savvy-web/bun-builder-sub000/internal/pkgmeta"
	"github.com/savvy-web/bun-builder-sub000/internal/resolve"
	"github.com/savvy-web/bun-builder-sub000/internal/util/sets"
)

// TransformHook is the optional user hook invoked once per publish
// destination after artifacts exist and before metadata is written.
type TransformHook func(bc *Context, dest config.Destination) error

// Context carries the state of one build-mode pass. It is created at mode
// start, passed by reference through every stage, and discarded at the end.
// The resolver cache and publish set are freshly allocated per mode and
// never shared across modes.
type Context struct {
	BuildID string
	Mode    string
	PkgDir  string

	Cfg      *config.Config
	Env      config.EnvInfo
	Policies config.Policies

	// Populated by the setup stage.
	Pkg      *pkgmeta.Package
	Entries  []pkgmeta.EntryPoint
	TSConfig *config.TSConfig
	Resolver *resolve.Resolver

	OutDir  string
	DeclDir string

	// External collaborators.
	Bundler  bundler.Bundler
	Compiler *declarations.Compiler
	Roller   declarations.Roller
	Linter   doclint.Linter
	Recorder metrics.Recorder
	Hook     TransformHook

	// Trace output: the declaration allow-list.
	Reachable []string

	// Declaration state.
	DeclsAvailable bool
	Artifacts      map[string]pkgmeta.ArtifactRef

	// PublishFiles accumulates every file produced for this mode.
	PublishFiles sets.Set[string]

	// DeferredErrors holds policy failures remembered for the final verdict:
	// the mode keeps running so the eventual message is exhaustive, but
	// metadata is never written for a failed mode.
	DeferredErrors []error

	Warnings []string

	StartTime time.Time
}

// newContext allocates the per-mode state.
func newContext(mode string, pkgDir string, cfg *config.Config, env config.EnvInfo, policies config.Policies) *Context {
	return &Context{
		BuildID:      uuid.NewString(),
		Mode:         mode,
		PkgDir:       pkgDir,
		Cfg:          cfg,
		Env:          env,
		Policies:     policies,
		OutDir:       cfg.ModeOutDir(pkgDir, mode),
		DeclDir:      filepath.Join(pkgDir, ".bunbuilder", mode+"-decl"),
		Artifacts:    map[string]pkgmeta.ArtifactRef{},
		PublishFiles: sets.New[string](),
		StartTime:    time.Now(),
	}
}

// ExportEntries returns the entries derived from export keys, excluding
// executable entries. Declarations and API documents cover only the export
// surface.
func (bc *Context) ExportEntries() []pkgmeta.EntryPoint {
	var out []pkgmeta.EntryPoint
	for _, e := range bc.Entries {
		if e.ExportKey != nil {
			out = append(out, e)
		}
	}
	return out
}

// Defer remembers a policy failure for the final verdict.
func (bc *Context) Defer(err error) {
	bc.DeferredErrors = append(bc.DeferredErrors, err)
}

// Warn records a non-fatal warning on the context.
func (bc *Context) Warn(msg string) {
	bc.Warnings = append(bc.Warnings, msg)
}

// Result is the caller-facing outcome of one requested build mode. Expected
// build failures are carried here, never as raw panics or thrown errors.
type Result struct {
	Success       bool     `json:"success"`
	Mode          string   `json:"mode"`
	OutputDir     string   `json:"outputDirectory"`
	ProducedFiles []string `json:"producedFiles"`
	DurationMs    int64    `json:"durationMs"`
	Errors        []string `json:"errors,omitempty"`
}
