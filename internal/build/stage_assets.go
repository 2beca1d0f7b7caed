package build

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
)

// stageCopyAssets copies the configured assets directory verbatim into the
// output. Assets never pass through the bundler.
func stageCopyAssets(_ context.Context, bc *Context) error {
	if bc.Cfg.AssetsDir == "" {
		return Skip("no assets directory configured")
	}
	src := filepath.Join(bc.PkgDir, bc.Cfg.AssetsDir)
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return Skip("assets directory absent")
		}
		return NewWarnStageError(StageCopyAssets, err)
	}
	if !info.IsDir() {
		return NewWarnStageError(StageCopyAssets, fmt.Errorf("assets path %s is not a directory", src))
	}

	dst := filepath.Join(bc.OutDir, filepath.Base(bc.Cfg.AssetsDir))
	count := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := copyRegularFile(path, target); err != nil {
			return err
		}
		bc.PublishFiles.Add(target)
		count++
		return nil
	})
	if err != nil {
		return NewWarnStageError(StageCopyAssets, fmt.Errorf("copying assets: %w", err))
	}
	slog.Info("Assets copied", logfields.Mode(bc.Mode), "dir", bc.Cfg.AssetsDir, "files", count)
	return nil
}

func copyRegularFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
