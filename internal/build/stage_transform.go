package build

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
)

// stageTransformHook invokes the user transform hook once per publish
// destination. A panicking or failing hook aborts the mode: the hook edits
// publish state, so a half-applied transform must never reach metadata.
func stageTransformHook(_ context.Context, bc *Context) error {
	if bc.Hook == nil {
		return Skip("no transform hook configured")
	}
	for _, dest := range bc.Cfg.Destinations {
		if err := runHook(dest.Name, func() error { return bc.Hook(bc, dest) }); err != nil {
			return NewFatalStageError(StageTransform, err)
		}
		slog.Debug("Transform hook applied", logfields.Mode(bc.Mode), "destination", dest.Name)
	}
	return nil
}

// runHook converts a hook panic into an error so one bad hook cannot take
// down the whole multi-mode run.
func runHook(dest string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform hook panicked for destination %s: %v", dest, r)
		}
	}()
	if hookErr := fn(); hookErr != nil {
		return fmt.Errorf("transform hook failed for destination %s: %w", dest, hookErr)
	}
	return nil
}
