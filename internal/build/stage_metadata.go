package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	berrors "github.com/savvy-web/bun-builder-sub000/internal/errors"
	"github.com/savvy-web/bun-builder-sub000/internal/gitinfo"
	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
	"github.com/savvy-web/bun-builder-sub000/internal/pkgmeta"
)

// stageWriteMetadata is the final verdict gate. Policy failures deferred by
// earlier stages surface here as one exhaustive fatal error; a failed mode
// never gets its publish metadata written.
func stageWriteMetadata(_ context.Context, bc *Context) error {
	if len(bc.DeferredErrors) > 0 {
		msgs := make([]string, len(bc.DeferredErrors))
		for i, e := range bc.DeferredErrors {
			msgs[i] = e.Error()
		}
		return NewFatalStageError(StageWriteMeta, fmt.Errorf(
			"build failed with %d policy violation(s):\n%s", len(msgs), strings.Join(msgs, "\n")))
	}

	gitHead := gitinfo.HeadHash(bc.PkgDir)

	for _, dest := range bc.Cfg.Destinations {
		destDir := bc.OutDir
		if dest.Dir != "" {
			destDir = filepath.Join(bc.OutDir, dest.Dir)
			if err := os.MkdirAll(destDir, 0o755); err != nil {
				return NewFatalStageError(StageWriteMeta, err)
			}
		}

		refs := map[string]pkgmeta.ArtifactRef{}
		for name, ref := range bc.Artifacts {
			rel, err := relativizeRef(destDir, ref)
			if err != nil {
				return NewFatalStageError(StageWriteMeta, berrors.MetadataError(
					fmt.Sprintf("entry %s artifact outside destination %s: %v", name, dest.Name, err)))
			}
			refs[name] = rel
		}

		manifest := pkgmeta.BuildPublishManifest(bc.Pkg, bc.Entries, refs, gitHead)
		outPath := filepath.Join(destDir, "package.json")
		if err := pkgmeta.WriteJSON(outPath, manifest); err != nil {
			return NewFatalStageError(StageWriteMeta, err)
		}
		bc.PublishFiles.Add(outPath)
		slog.Info("Publish metadata written", logfields.Mode(bc.Mode), "destination", dest.Name, "path", outPath)
	}
	return nil
}

// relativizeRef rewrites absolute artifact paths relative to the manifest's
// directory with an explicit ./ prefix, the form package consumers expect.
func relativizeRef(destDir string, ref pkgmeta.ArtifactRef) (pkgmeta.ArtifactRef, error) {
	out := pkgmeta.ArtifactRef{}
	var err error
	if ref.JS != "" {
		if out.JS, err = dotRelative(destDir, ref.JS); err != nil {
			return out, err
		}
	}
	if ref.Types != "" {
		if out.Types, err = dotRelative(destDir, ref.Types); err != nil {
			return out, err
		}
	}
	return out, nil
}

func dotRelative(base, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return path, nil
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", err
	}
	return "./" + filepath.ToSlash(rel), nil
}
