package build

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/savvy-web/bun-builder-sub000/internal/config"
	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
	"github.com/savvy-web/bun-builder-sub000/internal/trace"
)

// stageDocLint runs the documentation lint engine over the package's
// reachable sources and applies the resolved lint policy. All findings are
// collected before the policy decides anything, so a throwing policy still
// produces an exhaustive message.
func stageDocLint(ctx context.Context, bc *Context) error {
	if bc.Linter == nil || !bc.Linter.Installed() {
		return Skip("lint engine not installed")
	}
	if bc.Cfg.Lint.Enabled != nil && !*bc.Cfg.Lint.Enabled {
		return Skip("lint disabled by config")
	}

	res := traceEntries(bc)
	if len(res.Files) == 0 {
		return Skip("no lintable files")
	}

	lintRes, err := bc.Linter.Lint(ctx, res.Files, "")
	if err != nil {
		return NewWarnStageError(StageDocLint, fmt.Errorf("lint engine failed: %w", err))
	}

	for _, f := range lintRes.Findings {
		slog.Warn("Doc lint finding", logfields.Mode(bc.Mode), "finding", f.String())
	}
	if !lintRes.HasErrors() {
		return nil
	}

	msgs := make([]string, 0, len(lintRes.Findings))
	for _, f := range lintRes.Findings {
		msgs = append(msgs, f.String())
	}
	err = fmt.Errorf("documentation lint reported %d finding(s):\n%s",
		len(lintRes.Findings), strings.Join(msgs, "\n"))

	switch bc.Policies.Lint {
	case config.PolicyThrow:
		return NewFatalStageError(StageDocLint, err)
	case config.PolicyError:
		bc.Defer(err)
		return NewWarnStageError(StageDocLint, err)
	default: // warn
		return NewWarnStageError(StageDocLint, err)
	}
}

// traceEntries runs the tracer over the context's entry points.
func traceEntries(bc *Context) *trace.Result {
	paths := make([]string, 0, len(bc.Entries))
	for _, e := range bc.Entries {
		paths = append(paths, e.SourcePath)
	}
	return trace.New(bc.Resolver).TraceFromEntries(paths)
}
