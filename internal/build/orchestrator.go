package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/savvy-web/bun-builder-sub000/internal/bundler"
	"github.com/savvy-web/bun-builder-sub000/internal/config"
	"github.com/savvy-web/bun-builder-sub000/internal/declarations"
	"github.com/savvy-web/bun-builder-sub000/internal/doclint"
	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
	"github.com/savvy-web/bun-builder-sub000/internal/metrics"
	"github.com/savvy-web/bun-builder-sub000/internal/util/sets"
)

// Orchestrator runs the full build pipeline for one package across the
// requested modes. Collaborators are injected once; per-mode state lives in
// a fresh Context so modes can never leak caches or artifacts into each
// other.
type Orchestrator struct {
	PkgDir   string
	Cfg      *config.Config
	Env      config.EnvInfo
	Bundler  bundler.Bundler
	Compiler *declarations.Compiler
	Roller   declarations.Roller
	Linter   doclint.Linter
	Recorder metrics.Recorder
	Hook     TransformHook
}

// New assembles an orchestrator with the default external collaborators.
func New(pkgDir string, cfg *config.Config, env config.EnvInfo) *Orchestrator {
	return &Orchestrator{
		PkgDir:   pkgDir,
		Cfg:      cfg,
		Env:      env,
		Bundler:  &bundler.ExecBundler{},
		Compiler: &declarations.Compiler{},
		Roller:   declarations.NewRoller(""),
		Linter:   doclint.NewLinter(""),
		Recorder: metrics.NoopRecorder{},
	}
}

// pipeline is the canonical stage order for one mode pass.
func pipeline() []StageDef {
	return []StageDef{
		{Name: StageSetup, Fn: stageSetup},
		{Name: StageDocLint, Fn: stageDocLint},
		{Name: StageCompile, Fn: stageCompile},
		{Name: StageTraceDecls, Fn: stageTraceDecls},
		{Name: StageEmitDecls, Fn: stageEmitDecls},
		{Name: StageRollupDecls, Fn: stageRollupDecls},
		{Name: StageCopyAssets, Fn: stageCopyAssets},
		{Name: StageTransform, Fn: stageTransformHook},
		{Name: StageVirtual, Fn: stageVirtualEntries},
		{Name: StageWriteMeta, Fn: stageWriteMetadata},
		{Name: StageLocalExport, Fn: stageLocalExport},
	}
}

// Run executes the requested modes sequentially and returns one Result per
// mode, in request order. Expected build failures are reported in the
// Results, never as an error return; the error return is reserved for
// invalid requests.
func (o *Orchestrator) Run(ctx context.Context, modes []string) ([]Result, error) {
	if len(modes) == 0 {
		modes = o.Cfg.Modes
	}
	if err := config.ValidateModes(modes); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(modes))
	for _, mode := range modes {
		results = append(results, o.runMode(ctx, mode))
	}
	return results, nil
}

// runMode executes one mode pass with panic isolation: a panicking stage or
// hook fails its own mode and the next mode still runs.
func (o *Orchestrator) runMode(ctx context.Context, mode string) (res Result) {
	policies := config.ResolvePolicies(o.Env, o.Cfg.Lint)
	bc := newContext(mode, o.PkgDir, o.Cfg, o.Env, policies)
	bc.Bundler = o.Bundler
	bc.Compiler = o.Compiler
	bc.Roller = o.Roller
	bc.Linter = o.Linter
	bc.Recorder = o.Recorder
	if bc.Recorder == nil {
		bc.Recorder = metrics.NoopRecorder{}
	}
	bc.Hook = o.Hook

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Build mode panicked", logfields.BuildID(bc.BuildID), logfields.Mode(mode), "panic", r)
			res = o.finishMode(bc, fmt.Errorf("internal panic: %v", r))
		}
	}()

	err := runStages(ctx, bc, pipeline())
	return o.finishMode(bc, err)
}

func (o *Orchestrator) finishMode(bc *Context, err error) Result {
	dur := time.Since(bc.StartTime)
	bc.Recorder.ObserveBuildDuration(bc.Mode, dur)

	res := Result{
		Success:       err == nil,
		Mode:          bc.Mode,
		OutputDir:     bc.OutDir,
		ProducedFiles: sets.SortedStrings(bc.PublishFiles),
		DurationMs:    dur.Milliseconds(),
	}
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
	}
	for _, w := range bc.Warnings {
		slog.Warn("Build warning", logfields.BuildID(bc.BuildID), logfields.Mode(bc.Mode), "warning", w)
	}

	outcome := "success"
	if !res.Success {
		outcome = "failed"
	}
	bc.Recorder.IncBuildOutcome(bc.Mode, outcome)
	slog.Info("Build mode finished",
		logfields.BuildID(bc.BuildID),
		logfields.Mode(bc.Mode),
		"success", res.Success,
		"files", len(res.ProducedFiles),
		logfields.DurationMS(float64(dur.Milliseconds())))
	return res
}
