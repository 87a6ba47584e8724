package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdsite/internal/cache"
	"git.home.luguber.info/inful/mdsite/internal/compiler"
	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/linkcheck"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/preview"
	"git.home.luguber.info/inful/mdsite/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Site file path" default:"mdsite.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Input  string `short:"i" help:"Input directory containing Markdown sources"`
	Output string `short:"o" help:"Output directory for the generated site"`
	Style  string `help:"Stylesheet copied to the output root"`
	Header string `help:"HTML fragment inserted before every page body"`
	Footer string `help:"HTML fragment inserted after every page body"`
	Cache  string `help:"SQLite render cache path"`

	Build struct {
		VerifyLinks bool `help:"Check internal links in the generated site"`
		Report      bool `help:"Write build-report.json to the output root"`
	} `cmd:"" help:"Compile the source tree into the output tree once"`

	Watch struct {
		Resync int `help:"Minutes between periodic full recompiles (0 disables)"`
	} `cmd:"" help:"Compile, then watch the source tree and recompile on changes"`

	Serve struct {
		Addr   string `help:"Preview server listen address" default:":8080"`
		Resync int    `help:"Minutes between periodic full recompiles (0 disables)"`
	} `cmd:"" help:"Watch mode plus a preview server with live reload"`

	Init struct {
		Force bool `help:"Overwrite an existing site file"`
	} `cmd:"" help:"Write a starter site file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild()
	case "watch":
		err = runWatch("", CLI.Watch.Resync)
	case "serve":
		err = runWatch(CLI.Serve.Addr, CLI.Serve.Resync)
	case "init":
		err = runInit()
	}
	if err != nil {
		slog.Error("Command failed", slog.String("command", ctx.Command()), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// resolveConfig layers the site file, MDSITE_* environment overrides and CLI
// flags, then discovers conventional chrome files at the input root.
func resolveConfig() (*config.SiteConfig, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if CLI.Input != "" {
		cfg.InputDir = CLI.Input
	}
	if CLI.Output != "" {
		cfg.OutputDir = CLI.Output
	}
	if CLI.Style != "" {
		cfg.Stylesheet = CLI.Style
	}
	if CLI.Header != "" {
		cfg.HeaderPath = CLI.Header
	}
	if CLI.Footer != "" {
		cfg.FooterPath = CLI.Footer
	}
	if CLI.Cache != "" {
		cfg.CachePath = CLI.Cache
	}
	cfg.DiscoverChrome()
	return cfg, nil
}

// newCompiler assembles a compiler with the optional render cache attached.
// The returned closer is safe to call when no cache is configured.
func newCompiler(cfg *config.SiteConfig, rec metrics.Recorder) (*compiler.Compiler, func(), error) {
	comp := compiler.New(cfg).WithMetrics(rec)
	closer := func() {}
	if cfg.CachePath != "" {
		store, err := cache.Open(cfg.CachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open render cache: %w", err)
		}
		comp = comp.WithCache(store)
		closer = func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close render cache", slog.String("error", err.Error()))
			}
		}
	}
	return comp, closer, nil
}

func runBuild() error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	comp, closeCache, err := newCompiler(cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer closeCache()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := comp.Compile(ctx)
	if err != nil {
		return err
	}
	fmt.Println(report.Summary())

	if CLI.Build.VerifyLinks {
		issues, err := linkcheck.Check(cfg.OutputDir)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			slog.Warn("Broken internal link", slog.String("page", issue.Page), slog.String("target", issue.Target))
		}
	}
	if CLI.Build.Report {
		if err := report.Persist(cfg.OutputDir); err != nil {
			slog.Warn("Failed to persist build report", slog.String("error", err.Error()))
		}
	}
	if report.Outcome == compiler.OutcomeFailed {
		return errors.New("compile finished with errors")
	}
	return nil
}

// runWatch runs the watch loop: one full compile up front, then incremental
// recompiles driven by file-system events. With a non-empty addr it also
// serves the output tree with live reload and Prometheus metrics.
func runWatch(addr string, resyncMinutes int) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if resyncMinutes > 0 {
		cfg.Watch.ResyncMinutes = resyncMinutes
	}

	registry := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(registry)
	comp, closeCache, err := newCompiler(cfg, rec)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var srv *preview.Server
	if addr != "" {
		srv = preview.NewServer(cfg.OutputDir, addr, registry)
	}

	compileFn := func(ctx context.Context, changes []compiler.Change, full bool) (*compiler.Report, error) {
		var report *compiler.Report
		var err error
		if full {
			report, err = comp.Compile(ctx)
		} else {
			report, err = comp.CompileSubset(ctx, changes)
		}
		if err == nil && srv != nil && report.Outcome != compiler.OutcomeFailed {
			srv.NotifyReload()
		}
		return report, err
	}

	// Initial full pass before watching, so the served tree is complete.
	report, err := comp.Compile(ctx)
	if err != nil {
		return err
	}
	fmt.Println(report.Summary())

	source, err := watch.NewFSSource(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	coord := watch.NewCoordinator(cfg, source.Events(), compileFn).WithMetrics(rec)

	if cfg.Watch.ResyncMinutes > 0 {
		resync, err := watch.StartResync(time.Duration(cfg.Watch.ResyncMinutes)*time.Minute, coord.RequestFull)
		if err != nil {
			return err
		}
		defer func() {
			if err := resync.Stop(); err != nil {
				slog.Warn("Failed to stop resync scheduler", slog.String("error", err.Error()))
			}
		}()
	}

	errChan := make(chan error, 3)
	go func() { errChan <- source.Run(ctx) }()
	go func() { errChan <- coord.Run(ctx) }()
	if srv != nil {
		go func() { errChan <- srv.Start() }()
	}

	slog.Info("Watching for changes",
		slog.String("input", cfg.InputDir),
		slog.String("output", cfg.OutputDir))

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	if srv != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := srv.Stop(stopCtx); err != nil {
			slog.Warn("Preview server shutdown failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func runInit() error {
	slog.Info("Writing site file", slog.String("path", CLI.Config), slog.Bool("force", CLI.Init.Force))
	return config.Init(CLI.Config, CLI.Init.Force)
}
