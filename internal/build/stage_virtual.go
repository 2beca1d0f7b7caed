package build

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/savvy-web/bun-builder-sub000/internal/bundler"
	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
)

// stageVirtualEntries bundles configured extra entries that ship with the
// package but never appear in the export surface or the metadata rewrite.
func stageVirtualEntries(ctx context.Context, bc *Context) error {
	if len(bc.Cfg.VirtualEntries) == 0 {
		return Skip("no virtual entries configured")
	}

	entries := map[string]string{}
	names := make([]string, 0, len(bc.Cfg.VirtualEntries))
	for name, src := range bc.Cfg.VirtualEntries {
		entries[name] = filepath.Join(bc.PkgDir, src)
		names = append(names, name)
	}
	sort.Strings(names)

	res, err := bc.Bundler.Bundle(ctx, bundler.Request{
		Entries:   entries,
		OutDir:    bc.OutDir,
		Format:    bc.Cfg.ModeFormat(bc.Mode),
		Target:    bc.Cfg.Target,
		Externals: bc.Cfg.Externals,
		Naming:    "[name].js",
	})
	if err != nil {
		return NewWarnStageError(StageVirtual, err)
	}
	for _, a := range res.Artifacts {
		bc.PublishFiles.Add(a.Path)
	}
	slog.Info("Virtual entries bundled", logfields.Mode(bc.Mode), "entries", names)
	return nil
}
