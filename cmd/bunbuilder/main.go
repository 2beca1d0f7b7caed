package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/savvy-web/bun-builder-sub000/internal/build"
	"github.com/savvy-web/bun-builder-sub000/internal/config"
	"github.com/savvy-web/bun-builder-sub000/internal/metrics"
	"github.com/savvy-web/bun-builder-sub000/internal/pkgmeta"
	"github.com/savvy-web/bun-builder-sub000/internal/resolve"
	"github.com/savvy-web/bun-builder-sub000/internal/trace"
	"github.com/savvy-web/bun-builder-sub000/internal/version"
	"github.com/savvy-web/bun-builder-sub000/internal/watch"
)

var CLI struct {
	Config  string           `short:"c" help:"Builder configuration file path" default:"bunbuilder.yaml"`
	PkgDir  string           `short:"p" help:"Package directory to build" default:"."`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Build struct {
		Mode []string `short:"m" help:"Build modes to run (bundle, preserve); default from config"`
	} `cmd:"" help:"Build the package across the configured modes"`

	Trace struct {
		Entry []string `arg:"" optional:"" help:"Entry files to trace; default derives entries from package.json"`
	} `cmd:"" help:"Print the reachable source files for the package's entry points"`

	Watch struct {
		Mode        []string `short:"m" help:"Build modes to run on each change"`
		MetricsAddr string   `help:"Serve Prometheus metrics on this address (e.g. :9090)"`
	} `cmd:"" help:"Rebuild on source changes"`
}

func main() {
	kctx := kong.Parse(&CLI, kong.Vars{"version": version.Version})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch kctx.Command() {
	case "build":
		err = runBuild(ctx)
	case "trace", "trace <entry>":
		err = runTrace(os.Stdout)
	case "watch":
		err = runWatch(ctx)
	default:
		err = fmt.Errorf("unknown command %q", kctx.Command())
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func loadSetup() (*config.Config, config.EnvInfo, error) {
	cfg, err := config.Load(filepath.Join(CLI.PkgDir, CLI.Config))
	if err != nil {
		return nil, config.EnvInfo{}, err
	}
	return cfg, config.DetectEnv(), nil
}

func runBuild(ctx context.Context) error {
	cfg, env, err := loadSetup()
	if err != nil {
		return err
	}

	o := build.New(CLI.PkgDir, cfg, env)
	results, err := o.Run(ctx, CLI.Build.Mode)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			for _, e := range r.Errors {
				slog.Error("Build failed", "mode", r.Mode, "error", e)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d build mode(s) failed", failed, len(results))
	}
	return nil
}

func runTrace(out *os.File) error {
	pkgDir, err := filepath.Abs(CLI.PkgDir)
	if err != nil {
		return err
	}
	cfg, _, err := loadSetup()
	if err != nil {
		return err
	}

	entries := CLI.Trace.Entry
	if len(entries) == 0 {
		pkg, err := pkgmeta.Load(pkgDir)
		if err != nil {
			return err
		}
		eps, err := pkgmeta.DeriveEntryPoints(pkg)
		if err != nil {
			return err
		}
		for _, e := range eps {
			entries = append(entries, e.SourcePath)
		}
	} else {
		for i, e := range entries {
			if !filepath.IsAbs(e) {
				entries[i] = filepath.Join(pkgDir, e)
			}
		}
	}

	ts, err := config.LoadTSConfig(filepath.Join(pkgDir, cfg.TSConfig))
	if err != nil {
		return err
	}

	res := trace.New(resolve.New(ts)).TraceFromEntries(entries)
	for _, te := range res.Errors {
		slog.Warn("Trace issue", "error", te.Error())
	}
	for _, f := range res.Files {
		if rel, err := filepath.Rel(pkgDir, f); err == nil {
			fmt.Fprintln(out, rel)
		} else {
			fmt.Fprintln(out, f)
		}
	}
	return nil
}

func runWatch(ctx context.Context) error {
	cfg, env, err := loadSetup()
	if err != nil {
		return err
	}

	o := build.New(CLI.PkgDir, cfg, env)

	if CLI.Watch.MetricsAddr != "" {
		reg := prom.NewRegistry()
		o.Recorder = metrics.NewPrometheusRecorder(reg)
		go func() {
			slog.Info("Serving metrics", "addr", CLI.Watch.MetricsAddr)
			srv := &http.Server{Addr: CLI.Watch.MetricsAddr, Handler: metrics.HTTPHandler(reg)}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	w, err := watch.New(CLI.PkgDir, CLI.Watch.Mode, o)
	if err != nil {
		return err
	}
	err = w.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}
