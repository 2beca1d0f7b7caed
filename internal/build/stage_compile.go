package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/savvy-web/bun-builder-sub000/internal/bundler"
	"github.com/savvy-web/bun-builder-sub000/internal/config"
	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
)

// stageCompile produces executable artifacts. Bundle mode hands every entry
// to the native bundler in one invocation; preserve mode compiles each
// reachable file individually, keeping the source layout.
func stageCompile(ctx context.Context, bc *Context) error {
	if bc.Mode == config.ModePreserve {
		return compilePreserve(ctx, bc)
	}
	return compileBundle(ctx, bc)
}

func compileBundle(ctx context.Context, bc *Context) error {
	entries := map[string]string{}
	for _, e := range bc.Entries {
		entries[e.Name] = e.SourcePath
	}

	res, err := bc.Bundler.Bundle(ctx, bundler.Request{
		Entries:   entries,
		OutDir:    bc.OutDir,
		Format:    bc.Cfg.ModeFormat(bc.Mode),
		Target:    bc.Cfg.Target,
		Externals: bc.Cfg.Externals,
		Naming:    "[name].js",
	})
	if err != nil {
		return NewFatalStageError(StageCompile, err)
	}

	for _, d := range res.Diagnostics {
		slog.Warn("Bundler diagnostic", logfields.Mode(bc.Mode), "diagnostic", d.String())
	}
	for _, a := range res.Artifacts {
		bc.PublishFiles.Add(a.Path)
	}
	for _, e := range bc.Entries {
		ref := bc.Artifacts[e.Name]
		ref.JS = filepath.Join(bc.OutDir, e.Name+".js")
		bc.Artifacts[e.Name] = ref
	}
	slog.Info("Bundling complete", logfields.Mode(bc.Mode), "entries", len(entries), "artifacts", len(res.Artifacts))
	return nil
}

// compilePreserve compiles every reachable file on its own, mirroring the
// source layout under the output directory. Diagnostics from all files are
// collected before the stage decides; there is no short-circuit on the
// first failing file.
func compilePreserve(ctx context.Context, bc *Context) error {
	res := traceEntries(bc)
	for _, te := range res.Errors {
		bc.Warn(te.Error())
	}
	if len(res.Files) == 0 {
		return NewFatalStageError(StageCompile, fmt.Errorf("no reachable source files to compile"))
	}

	var failures []bundler.Diagnostic
	for _, file := range res.Files {
		rel, err := filepath.Rel(bc.PkgDir, file)
		if err != nil || strings.HasPrefix(rel, "..") {
			bc.Warn(fmt.Sprintf("skipping out-of-package file %s", file))
			continue
		}
		stem := strings.TrimSuffix(rel, filepath.Ext(rel))
		outDir := filepath.Dir(filepath.Join(bc.OutDir, rel))

		out, err := bc.Bundler.Bundle(ctx, bundler.Request{
			Entries:   map[string]string{filepath.Base(stem): file},
			OutDir:    outDir,
			Format:    bc.Cfg.ModeFormat(bc.Mode),
			Target:    bc.Cfg.Target,
			Externals: append([]string{"*"}, bc.Cfg.Externals...),
		})
		if err != nil {
			var agg *bundler.AggregateError
			if errors.As(err, &agg) {
				failures = append(failures, agg.Diagnostics...)
			} else {
				failures = append(failures, bundler.Diagnostic{Message: err.Error(), File: file})
			}
			continue
		}
		for _, a := range out.Artifacts {
			bc.PublishFiles.Add(a.Path)
		}
	}

	if len(failures) > 0 {
		return NewFatalStageError(StageCompile, &bundler.AggregateError{Diagnostics: failures})
	}

	for _, e := range bc.Entries {
		rel, err := filepath.Rel(bc.PkgDir, e.SourcePath)
		if err != nil {
			continue
		}
		stem := strings.TrimSuffix(rel, filepath.Ext(rel))
		ref := bc.Artifacts[e.Name]
		ref.JS = filepath.Join(bc.OutDir, stem+".js")
		bc.Artifacts[e.Name] = ref
	}
	slog.Info("Per-file compilation complete", logfields.Mode(bc.Mode), "files", len(res.Files))
	return nil
}
