package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
	"github.com/savvy-web/bun-builder-sub000/internal/util/sets"
)

// stageLocalExport mirrors the produced files into auxiliary local
// directories (typically sibling checkouts consuming the package via file
// links). The policy table disables this in CI unconditionally.
func stageLocalExport(_ context.Context, bc *Context) error {
	if !bc.Policies.LocalExport {
		return Skip("local export disabled by policy")
	}
	if len(bc.Cfg.LocalExportDirs) == 0 {
		return Skip("no local export directories configured")
	}

	files := sets.SortedStrings(bc.PublishFiles)
	for _, dir := range bc.Cfg.LocalExportDirs {
		target := dir
		if !filepath.IsAbs(target) {
			target = filepath.Join(bc.PkgDir, target)
		}
		copied := 0
		for _, f := range files {
			rel, err := filepath.Rel(bc.OutDir, f)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			if err := copyRegularFile(f, filepath.Join(target, rel)); err != nil {
				return NewWarnStageError(StageLocalExport, fmt.Errorf("exporting to %s: %w", dir, err))
			}
			copied++
		}
		slog.Info("Local export complete", logfields.Mode(bc.Mode), "dir", dir, "files", copied)
	}
	return nil
}
