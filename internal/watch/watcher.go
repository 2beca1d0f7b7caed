// Package watch rebuilds the package whenever its sources change. Rebuilds
// are serialized: events arriving during a build coalesce into at most one
// follow-up build.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/savvy-web/bun-builder-sub000/internal/build"
)

// Runner executes one full build pass; the watcher owns when, not how.
type Runner interface {
	Run(ctx context.Context, modes []string) ([]build.Result, error)
}

// Watcher monitors a package directory and triggers rebuilds on change.
type Watcher struct {
	pkgDir   string
	modes    []string
	runner   Runner
	watcher  *fsnotify.Watcher
	debounce time.Duration

	rebuildChan chan struct{}
}

// New creates a watcher over pkgDir. Watches are added per directory because
// fsnotify does not recurse.
func New(pkgDir string, modes []string, runner Runner) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	abs, err := filepath.Abs(pkgDir)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("resolving package path: %w", err)
	}
	return &Watcher{
		pkgDir:      abs,
		modes:       modes,
		runner:      runner,
		watcher:     fsw,
		debounce:    250 * time.Millisecond,
		rebuildChan: make(chan struct{}, 1),
	}, nil
}

// Run builds once, then blocks rebuilding on changes until ctx is canceled.
// Every build executes on this goroutine, so two passes can never overlap;
// change signals arriving while a build runs coalesce into one follow-up
// build through the single-slot rebuild channel.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addWatches(); err != nil {
		return err
	}
	slog.Info("Watching for changes", "dir", w.pkgDir, "modes", w.modes)

	go w.eventLoop(ctx)

	w.runBuild(ctx)

	var debounce *time.Timer
	var pending <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.rebuildChan:
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.debounce)
			}
			pending = debounce.C
		case <-pending:
			pending = nil
			w.runBuild(ctx)
		}
	}
}

// addWatches registers every source directory under the package, skipping
// vendored trees and build outputs so our own writes never retrigger us.
func (w *Watcher) addWatches() error {
	return filepath.WalkDir(w.pkgDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func ignoredDir(name string) bool {
	switch name {
	case "node_modules", "vendor", "dist", ".git", ".bunbuilder":
		return true
	}
	return strings.HasPrefix(name, ".") && name != "."
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			rel, err := filepath.Rel(w.pkgDir, event.Name)
			if err != nil || !relevantEvent(event, rel) {
				continue
			}
			// New directories need a watch of their own.
			if event.Op&fsnotify.Create != 0 {
				if err := w.watcher.Add(event.Name); err == nil {
					slog.Debug("Watching new path", "path", event.Name)
				}
			}
			slog.Debug("Change detected", "file", event.Name, "op", event.Op.String())
			select {
			case w.rebuildChan <- struct{}{}:
			default: // rebuild already pending
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Watcher error", "error", err)
		}
	}
}

// relevantEvent filters to source-affecting changes: writes, creates,
// removes, and renames of non-ignored files. rel is the event path relative
// to the watched package directory.
func relevantEvent(event fsnotify.Event, rel string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if ignoredDir(seg) {
			return false
		}
	}
	return true
}

// runBuild executes one serialized build pass. Failures are logged, never
// fatal: watch mode exists to keep trying.
func (w *Watcher) runBuild(ctx context.Context) {
	start := time.Now()
	results, err := w.runner.Run(ctx, w.modes)
	if err != nil {
		slog.Error("Build request invalid", "error", err)
		return
	}
	ok := true
	for _, r := range results {
		if !r.Success {
			ok = false
			for _, e := range r.Errors {
				slog.Error("Build failed", "mode", r.Mode, "error", e)
			}
		}
	}
	if ok {
		slog.Info("Rebuild complete", "duration", time.Since(start))
	}
}
