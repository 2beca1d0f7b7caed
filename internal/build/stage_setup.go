package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/savvy-web/bun-builder-sub000/internal/config"
	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
	"github.com/savvy-web/bun-builder-sub000/internal/pkgmeta"
	"github.com/savvy-web/bun-builder-sub000/internal/resolve"
)

// stageSetup loads package metadata, derives entry points, and resolves the
// TypeScript project config. Everything here is a hard requirement: setup
// failures are configuration errors and abort the mode.
func stageSetup(_ context.Context, bc *Context) error {
	pkg, err := pkgmeta.Load(bc.PkgDir)
	if err != nil {
		return NewFatalStageError(StageSetup, err)
	}
	bc.Pkg = pkg

	entries, err := pkgmeta.DeriveEntryPoints(pkg)
	if err != nil {
		return NewFatalStageError(StageSetup, err)
	}
	bc.Entries = entries

	ts, err := config.LoadTSConfig(filepath.Join(bc.PkgDir, bc.Cfg.TSConfig))
	if err != nil {
		return NewFatalStageError(StageSetup, err)
	}
	bc.TSConfig = ts
	bc.Resolver = resolve.New(ts)

	for _, dir := range []string{bc.OutDir, bc.DeclDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return NewFatalStageError(StageSetup, err)
		}
	}

	slog.Info("Build setup complete",
		logfields.BuildID(bc.BuildID),
		logfields.Mode(bc.Mode),
		"package", pkg.Name,
		"entries", len(entries),
		"out", bc.OutDir)
	return nil
}
