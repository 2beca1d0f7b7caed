package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/savvy-web/bun-builder-sub000/internal/apisurface"
	"github.com/savvy-web/bun-builder-sub000/internal/config"
	"github.com/savvy-web/bun-builder-sub000/internal/declarations"
	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
	"github.com/savvy-web/bun-builder-sub000/internal/pkgmeta"
	"github.com/savvy-web/bun-builder-sub000/internal/trace"
)

// stageTraceDecls re-runs the tracer to build the declaration allow-list.
// The compile stage may have traced already, but declarations always get a
// dedicated pass over the current resolver state.
func stageTraceDecls(_ context.Context, bc *Context) error {
	res := traceEntries(bc)
	for _, te := range res.Errors {
		if te.Kind == trace.ErrNoResolver {
			return NewFatalStageError(StageTraceDecls, te)
		}
		bc.Warn(te.Error())
	}
	bc.Reachable = res.Files
	slog.Debug("Declaration allow-list traced", logfields.Mode(bc.Mode), "files", len(res.Files))
	return nil
}

// stageEmitDecls runs the external type compiler over the whole reachable
// set. A failing compiler degrades the build to "no declarations" with a
// warning instead of aborting.
func stageEmitDecls(ctx context.Context, bc *Context) error {
	if bc.Compiler == nil {
		return Skip("type compiler not configured")
	}
	tsconfigPath := filepath.Join(bc.PkgDir, bc.Cfg.TSConfig)
	if err := bc.Compiler.EmitDeclarations(ctx, tsconfigPath, bc.DeclDir); err != nil {
		bc.DeclsAvailable = false
		return NewWarnStageError(StageEmitDecls, fmt.Errorf("declaration generation failed, continuing without declarations: %w", err))
	}
	bc.DeclsAvailable = true
	return nil
}

// stageRollupDecls consolidates declarations once per export entry, applies
// the forgotten-export and doc-warning policies, merges per-entry API
// documents, and falls back to raw per-file declarations when every entry
// fails.
func stageRollupDecls(ctx context.Context, bc *Context) error {
	if !bc.DeclsAvailable {
		return Skip("no declarations to consolidate")
	}
	exports := bc.ExportEntries()
	if len(exports) == 0 {
		return Skip("no export entries")
	}

	if err := ensureDocConfig(bc); err != nil {
		return NewFatalStageError(StageRollupDecls, err)
	}

	specs := make([]declarations.EntrySpec, 0, len(exports))
	for _, e := range exports {
		specs = append(specs, declarations.EntrySpec{Name: e.Name, SourcePath: e.SourcePath})
	}
	tsconfigPath := filepath.Join(bc.PkgDir, bc.Cfg.TSConfig)

	out := declarations.RollupEntries(ctx, bc.Roller, specs, bc.DeclDir, bc.PkgDir, bc.OutDir, tsconfigPath, true)

	for _, w := range out.Warnings {
		bc.Warn(w)
		slog.Warn("Declaration rollup", logfields.Mode(bc.Mode), "warning", w)
	}
	for range out.Artifacts {
		bc.Recorder.IncEntryRollup(true)
	}
	for range out.Warnings {
		bc.Recorder.IncEntryRollup(false)
	}

	if err := applyRollupPolicies(bc, out); err != nil {
		return err
	}

	if len(out.Artifacts) == 0 {
		// Every entry failed (or the tool is absent): fall back to raw
		// per-file declarations filtered by the reachability set.
		copied, err := declarations.CopyRawDeclarations(bc.DeclDir, bc.PkgDir, bc.Reachable, bc.OutDir)
		if err != nil {
			return NewWarnStageError(StageRollupDecls, fmt.Errorf("raw declaration fallback failed: %w", err))
		}
		for _, f := range copied {
			bc.PublishFiles.Add(f)
		}
		slog.Warn("Declaration rollup unavailable; shipped raw per-file declarations",
			logfields.Mode(bc.Mode), "files", len(copied))
		return nil
	}

	for _, a := range out.Artifacts {
		bc.PublishFiles.Add(a.DeclarationPath)
		ref := bc.Artifacts[a.Entry]
		ref.Types = a.DeclarationPath
		bc.Artifacts[a.Entry] = ref
	}

	return mergeAPIDocs(bc, exports, out.Artifacts)
}

// applyRollupPolicies enforces the forgotten-export and doc-warning policy
// table entries. Diagnostics were fully collected by the rollup pass, so a
// failing policy throws one exhaustive error.
func applyRollupPolicies(bc *Context, out *declarations.RollupOutcome) error {
	if len(out.Forgotten) > 0 {
		err := fmt.Errorf("%d forgotten export(s):\n%s", len(out.Forgotten), joinDiagnostics(out.Forgotten))
		switch bc.Policies.ForgottenExports {
		case config.PolicyError:
			bc.Defer(err)
		default: // include: surface as log output only
			slog.Info("Forgotten exports", logfields.Mode(bc.Mode), "detail", err.Error())
		}
	}
	if len(out.DocWarnings) > 0 {
		err := fmt.Errorf("%d documentation warning(s):\n%s", len(out.DocWarnings), joinDiagnostics(out.DocWarnings))
		switch bc.Policies.DocWarnings {
		case config.PolicyFail:
			return NewFatalStageError(StageRollupDecls, err)
		default: // log
			slog.Warn("Documentation warnings", logfields.Mode(bc.Mode), "detail", err.Error())
		}
	}
	return nil
}

func joinDiagnostics(diags []declarations.Diagnostic) string {
	msgs := make([]string, len(diags))
	for i, d := range diags {
		msgs[i] = d.String()
	}
	return strings.Join(msgs, "\n")
}

// mergeAPIDocs combines the per-entry API documents into one multi-entry
// document written next to the declarations.
func mergeAPIDocs(bc *Context, exports []pkgmeta.EntryPoint, artifacts []declarations.Artifact) error {
	keyByName := map[string]string{}
	for _, e := range exports {
		if e.ExportKey != nil {
			keyByName[e.Name] = *e.ExportKey
		}
	}

	var docs []apisurface.EntryDoc
	for _, a := range artifacts {
		if a.APIDocPath == "" {
			continue
		}
		data, err := os.ReadFile(a.APIDocPath)
		if err != nil {
			bc.Warn(fmt.Sprintf("entry %s: missing API document: %v", a.Entry, err))
			continue
		}
		doc, err := apisurface.ParseDocument(data)
		if err != nil {
			bc.Warn(fmt.Sprintf("entry %s: unparseable API document: %v", a.Entry, err))
			continue
		}
		docs = append(docs, apisurface.EntryDoc{Name: a.Entry, ExportKey: keyByName[a.Entry], Doc: doc})
	}
	if len(docs) == 0 {
		return nil
	}

	merged, err := apisurface.Merge(docs, bc.Pkg.Name)
	if err != nil {
		return NewWarnStageError(StageRollupDecls, fmt.Errorf("merging API documents: %w", err))
	}
	data, err := merged.Marshal()
	if err != nil {
		return NewWarnStageError(StageRollupDecls, fmt.Errorf("encoding merged API document: %w", err))
	}
	outPath := filepath.Join(bc.OutDir, "api.json")
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return NewWarnStageError(StageRollupDecls, fmt.Errorf("writing merged API document: %w", err))
	}
	bc.PublishFiles.Add(outPath)
	return nil
}
